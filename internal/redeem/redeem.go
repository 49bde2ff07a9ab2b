// Package redeem manages admin-issued credit codes.
package redeem

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sahilkl/filegate/internal/storage"
)

// Result of a redemption attempt
type Result int

const (
	ResultOK Result = iota
	ResultInvalid // unknown or expired
	ResultAlreadyUsed
)

// Engine creates and redeems codes
type Engine struct {
	store *storage.Storage
	log   *slog.Logger
}

// New creates a redeem engine
func New(store *storage.Storage, log *slog.Logger) *Engine {
	return &Engine{store: store, log: log}
}

// Normalize canonicalizes user-typed code input
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateCode issues a code worth the given credits, with an optional
// purchase bonus that lasts as long as the code itself.
func (e *Engine) CreateCode(code string, credits, bonusPercent float64, ttl time.Duration) (*storage.RedeemCode, error) {
	code = Normalize(code)
	if code == "" {
		return nil, fmt.Errorf("empty code")
	}
	if credits <= 0 {
		return nil, fmt.Errorf("credits must be positive")
	}

	expiresAt := time.Now().Add(ttl)
	if err := e.store.CreateRedeemCode(code, credits, bonusPercent, expiresAt); err != nil {
		return nil, err
	}

	e.log.Info("redeem code created", "code", code, "credits", credits, "bonus", bonusPercent)
	return &storage.RedeemCode{
		Code:         code,
		Credits:      credits,
		BonusPercent: bonusPercent,
		ExpiresAt:    expiresAt,
	}, nil
}

// Redeem consumes a code for a user. The consumed-set insert is what
// makes it once-per-account: whoever inserts first wins, everyone else
// gets ResultAlreadyUsed. Credits are face value times the current
// credit price.
func (e *Engine) Redeem(userID int64, code string) (Result, float64, error) {
	code = Normalize(code)

	rc, err := e.store.GetRedeemCode(code)
	if err == storage.ErrNotFound {
		return ResultInvalid, 0, nil
	}
	if err != nil {
		return ResultInvalid, 0, err
	}
	if time.Now().After(rc.ExpiresAt) {
		return ResultInvalid, 0, nil
	}

	fresh, err := e.store.MarkRedeemUsed(userID, code)
	if err != nil {
		return ResultInvalid, 0, err
	}
	if !fresh {
		return ResultAlreadyUsed, 0, nil
	}

	value, err := e.store.CreditValue()
	if err != nil {
		return ResultInvalid, 0, err
	}
	granted := rc.Credits * value
	if err := e.store.AddCredits(userID, granted); err != nil {
		return ResultInvalid, 0, err
	}

	if rc.BonusPercent > 0 {
		if err := e.store.SetBonus(userID, rc.BonusPercent, rc.ExpiresAt); err != nil {
			e.log.Error("bonus grant failed", "user_id", userID, "code", code, "error", err)
		}
	}

	e.log.Info("redeem code consumed", "user_id", userID, "code", code, "granted", granted)
	return ResultOK, granted, nil
}

// DeleteCode removes a code, reporting whether it existed
func (e *Engine) DeleteCode(code string) (bool, error) {
	return e.store.DeleteRedeemCode(Normalize(code))
}

// List returns all live codes, newest first
func (e *Engine) List() ([]storage.RedeemCode, error) {
	return e.store.ListRedeemCodes()
}
