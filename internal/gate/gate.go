// Package gate decides whether a user may open a content batch and, when
// not, which wall (premium, ad verification, payment) stands in the way.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sahilkl/filegate/internal/shortener"
	"github.com/sahilkl/filegate/internal/storage"
	"github.com/sahilkl/filegate/internal/verify"
)

// DecisionKind classifies a gate outcome
type DecisionKind int

const (
	Granted DecisionKind = iota
	NeedsPremium
	NeedsVerification
	NeedsPayment
)

// Decision is the gate's verdict for one access attempt
type Decision struct {
	Kind  DecisionKind
	Batch *storage.Batch

	// NeedsVerification
	VerifyURL     string
	RetryURL      string
	TutorialURL   string
	ValidityHours int

	// NeedsPayment
	Price    float64
	Manual   bool // seller-owned batch, settled by screenshot review
	OwnerUPI string
}

// Gate evaluates batch access policies
type Gate struct {
	store       *storage.Storage
	tokens      *verify.Service
	shortener   *shortener.Client
	botUsername string
	operatorID  int64
	log         *slog.Logger
}

// New creates a gate
func New(store *storage.Storage, tokens *verify.Service, sh *shortener.Client, botUsername string, operatorID int64, log *slog.Logger) *Gate {
	return &Gate{
		store:       store,
		tokens:      tokens,
		shortener:   sh,
		botUsername: botUsername,
		operatorID:  operatorID,
		log:         log,
	}
}

// IsPremium reports premium standing. The operator always counts.
func (g *Gate) IsPremium(userID int64) bool {
	return userID == g.operatorID || g.store.IsPremium(userID)
}

// IsVerified reports whether the user clears the ad-verification wall.
// Premium bypasses it, and a disabled shortener system opens it for
// everyone.
func (g *Gate) IsVerified(userID int64) bool {
	if g.IsPremium(userID) {
		return true
	}
	cfg, err := g.store.GetShortenerConfig()
	if err != nil {
		g.log.Error("shortener config read failed", "error", err)
		return true
	}
	if !cfg.Active || len(cfg.Slots) == 0 {
		return true
	}
	return g.store.HasVerification(userID)
}

// Decide evaluates one access attempt. bypass marks a deep link that was
// issued with the verification wall pre-cleared.
func (g *Gate) Decide(ctx context.Context, userID int64, code string, bypass bool) (*Decision, error) {
	batch, err := g.store.GetBatch(code)
	if err != nil {
		return nil, err
	}

	switch batch.Policy {
	case storage.PolicyPremium:
		if g.IsPremium(userID) {
			return &Decision{Kind: Granted, Batch: batch}, nil
		}
		return &Decision{Kind: NeedsPremium, Batch: batch}, nil

	case storage.PolicySale, storage.PolicySpecial:
		d := &Decision{Kind: NeedsPayment, Batch: batch, Price: batch.Price}
		if batch.OwnerID != g.operatorID {
			d.Manual = true
			upi, err := g.store.UPI(batch.OwnerID)
			if err != nil {
				return nil, err
			}
			d.OwnerUPI = upi
		}
		return d, nil

	default: // public
		if bypass || g.IsVerified(userID) {
			return &Decision{Kind: Granted, Batch: batch}, nil
		}
		return g.verificationWall(ctx, userID, code, batch)
	}
}

// verificationWall mints a one-time token, wraps its deep link through
// the user's next shortener slot and returns the two links to show.
func (g *Gate) verificationWall(ctx context.Context, userID int64, code string, batch *storage.Batch) (*Decision, error) {
	cfg, err := g.store.GetShortenerConfig()
	if err != nil {
		return nil, err
	}

	idx, err := g.store.NextShortenerIndex(userID, len(cfg.Slots))
	if err != nil {
		return nil, err
	}

	token, err := g.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}

	deepLink := g.deepLink(token)
	return &Decision{
		Kind:          NeedsVerification,
		Batch:         batch,
		VerifyURL:     g.shortener.Shorten(ctx, deepLink, cfg.Slots[idx]),
		RetryURL:      g.deepLink(code),
		TutorialURL:   cfg.TutorialURL,
		ValidityHours: cfg.ValidityHours,
	}, nil
}

// Purchase settles an operator-owned sale batch from the buyer's credit
// balance. The balance check and debit are one atomic operation, so two
// simultaneous purchases cannot overdraw.
func (g *Gate) Purchase(userID int64, code string) (bool, *storage.Batch, error) {
	batch, err := g.store.GetBatch(code)
	if err != nil {
		return false, nil, err
	}

	ok, err := g.store.DebitIfAtLeast(userID, batch.Price)
	if err != nil {
		return false, nil, err
	}
	if ok {
		g.log.Info("sale settled", "user_id", userID, "code", code, "price", batch.Price)
	}
	return ok, batch, nil
}

func (g *Gate) deepLink(payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", g.botUsername, payload)
}
