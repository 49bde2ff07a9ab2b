// Package verify implements the one-time ad-verification token protocol.
package verify

import (
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/sahilkl/filegate/internal/storage"
)

// TokenPrefix disambiguates verification tokens from batch codes in
// /start deep links.
const TokenPrefix = "v_"

const codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Result of a token redemption attempt
type Result int

const (
	ResultOK Result = iota
	ResultNotFound
	ResultMismatch
)

// Service issues and redeems verification tokens
type Service struct {
	store *storage.Storage
	log   *slog.Logger
}

// New creates a verification token service
func New(store *storage.Storage, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Issue creates a short-lived token bound to the account. 8 characters
// over a 36-symbol alphabet gives a bit over 41 bits of entropy.
func (s *Service) Issue(userID int64) (string, error) {
	token := TokenPrefix + RandomCode(8)
	if err := s.store.CreateVerificationToken(token, userID); err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}

	s.log.Info("verification token issued", "user_id", userID)
	return token, nil
}

// Redeem consumes the token and opens the account's verification window.
// A second redemption of the same token returns ResultNotFound; a token
// bound to a different account returns ResultMismatch so a shared link
// cannot verify the wrong person.
func (s *Service) Redeem(token string, userID int64) (Result, int, error) {
	consumed, err := s.store.ConsumeVerificationToken(token, userID)
	if err != nil {
		return ResultNotFound, 0, err
	}

	if !consumed {
		owner, err := s.store.VerificationTokenOwner(token)
		if err == storage.ErrNotFound {
			return ResultNotFound, 0, nil
		}
		if err != nil {
			return ResultNotFound, 0, err
		}
		if owner != userID {
			s.log.Warn("verification token account mismatch",
				"user_id", userID,
				"owner_id", owner,
			)
			return ResultMismatch, 0, nil
		}
		// Consumed by a concurrent redemption between our two reads.
		return ResultNotFound, 0, nil
	}

	cfg, err := s.store.GetShortenerConfig()
	if err != nil {
		return ResultNotFound, 0, err
	}
	if err := s.store.SetVerified(userID, cfg.ValidityHours); err != nil {
		return ResultNotFound, 0, err
	}

	s.log.Info("verification granted", "user_id", userID, "hours", cfg.ValidityHours)
	return ResultOK, cfg.ValidityHours, nil
}

// RandomCode returns n crypto-random lowercase alphanumerics
func RandomCode(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
