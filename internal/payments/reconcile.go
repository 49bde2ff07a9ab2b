// Package payments reconciles the two sides of a credit purchase: the
// provider webhook reporting money received and the user's email claim.
// Either side may arrive first.
package payments

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sahilkl/filegate/internal/storage"
)

// WebhookOutcome classifies what a webhook delivery did
type WebhookOutcome int

const (
	OutcomeMatched WebhookOutcome = iota
	OutcomeSaved
)

// ClaimOutcome classifies what a user's email claim did
type ClaimOutcome int

const (
	ClaimInvalidEmail ClaimOutcome = iota
	ClaimCredited
	ClaimTracking
)

// Match describes a completed reconciliation, for notifying the buyer
type Match struct {
	UserID       int64
	Amount       float64
	Credited     float64
	BonusPercent float64
}

// Reconciler matches webhook payments against user claims
type Reconciler struct {
	store *storage.Storage
	log   *slog.Logger
}

// New creates a reconciler
func New(store *storage.Storage, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

var nonAmount = regexp.MustCompile(`[^0-9.]`)

// SanitizeAmount extracts a number from provider-formatted amount text
// like "₹100.00". Unparseable input becomes 0 rather than an error so a
// malformed payload still gets stored and can be resolved by hand.
func SanitizeAmount(raw string) float64 {
	clean := nonAmount.ReplaceAllString(raw, "")
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}

// NormalizeEmail canonicalizes an email for matching
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail is a plausibility check, not RFC validation; its job is to
// catch users typing something that is clearly not the payment email.
func ValidEmail(email string) bool {
	return len(email) >= 5 && strings.Contains(email, "@") && strings.Contains(email, ".")
}

// HandleWebhook processes one provider notification. If a user already
// claimed this email the payment is credited immediately (with any
// active bonus applied at credit time); otherwise it is stored for a
// later claim. Claim consumption is atomic, so a redelivered webhook
// cannot double-credit: the second delivery finds no claim and lands in
// the unclaimed store.
func (r *Reconciler) HandleWebhook(email string, amount float64) (WebhookOutcome, *Match, error) {
	email = NormalizeEmail(email)

	userID, err := r.store.ConsumePendingClaim(email)
	if err == storage.ErrNotFound {
		if _, err := r.store.AddUnclaimedPayment(email, amount); err != nil {
			return OutcomeSaved, nil, err
		}
		r.log.Info("payment stored unclaimed", "email", email, "amount", amount)
		return OutcomeSaved, nil, nil
	}
	if err != nil {
		return OutcomeSaved, nil, err
	}

	bonus, err := r.store.BonusPercent(userID)
	if err != nil {
		return OutcomeSaved, nil, err
	}
	credited := amount * (1 + bonus/100)
	if err := r.store.AddCredits(userID, credited); err != nil {
		return OutcomeSaved, nil, err
	}

	r.log.Info("payment matched", "user_id", userID, "amount", amount, "credited", credited)
	return OutcomeMatched, &Match{
		UserID:       userID,
		Amount:       amount,
		Credited:     credited,
		BonusPercent: bonus,
	}, nil
}

// HandleClaim processes a user's payment email. A payment already on
// file is consumed and credited at its stored amount; bonuses apply
// only when the webhook side resolves a claim, never retroactively.
// Otherwise the claim is stored for the webhook to find. Either way the
// purchase session ends.
func (r *Reconciler) HandleClaim(userID int64, email string) (ClaimOutcome, float64, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return ClaimInvalidEmail, 0, nil
	}

	amount, err := r.store.ConsumeUnclaimedPayment(email)
	if err == nil {
		if err := r.store.AddCredits(userID, amount); err != nil {
			return ClaimTracking, 0, err
		}
		r.store.ClearPurchaseSession(userID)
		r.log.Info("claim matched stored payment", "user_id", userID, "amount", amount)
		return ClaimCredited, amount, nil
	}
	if err != storage.ErrNotFound {
		return ClaimTracking, 0, err
	}

	if err := r.store.CreatePendingClaim(email, userID); err != nil {
		return ClaimTracking, 0, err
	}
	r.store.ClearPurchaseSession(userID)
	r.log.Info("claim registered", "user_id", userID, "email", email)
	return ClaimTracking, 0, nil
}

// BeginInvoice opens a credit-purchase session in the viewing phase
func (r *Reconciler) BeginInvoice(userID int64) error {
	return r.store.SetPurchaseSession(userID, storage.SessionKindCredit, storage.PhaseViewing, "")
}

// MarkPaid moves an open credit session to the pending phase, where the
// next text message is read as the payment email. Returns false when no
// session is open.
func (r *Reconciler) MarkPaid(userID int64) (bool, error) {
	sess, err := r.store.GetPurchaseSession(userID)
	if err == storage.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if sess.Kind != storage.SessionKindCredit {
		return false, nil
	}
	return true, r.store.SetSessionPhase(userID, storage.PhasePending)
}

// BackToInvoice returns a pending session to the viewing phase
func (r *Reconciler) BackToInvoice(userID int64) error {
	return r.store.SetSessionPhase(userID, storage.PhaseViewing)
}

// AwaitingEmail reports whether the user's next message should be read
// as a payment email.
func (r *Reconciler) AwaitingEmail(userID int64) bool {
	sess, err := r.store.GetPurchaseSession(userID)
	if err != nil {
		return false
	}
	return sess.Kind == storage.SessionKindCredit && sess.Phase == storage.PhasePending
}
