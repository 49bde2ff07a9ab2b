package redeem

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sahilkl/filegate/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.Storage) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, log), store
}

func TestRedeemGrantsCredits(t *testing.T) {
	e, store := newTestEngine(t)

	if _, err := e.CreateCode("welcome50", 50, 0, time.Hour); err != nil {
		t.Fatalf("create code: %v", err)
	}

	// Lowercase input matches the upper-normalized code
	result, granted, err := e.Redeem(1, "  welcome50 ")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result != ResultOK {
		t.Fatalf("result = %v, want ResultOK", result)
	}
	if granted != 50 {
		t.Errorf("granted = %v, want 50 at default credit value", granted)
	}
	if balance, _ := store.Balance(1); balance != 50 {
		t.Errorf("balance = %v, want 50", balance)
	}
}

func TestRedeemOncePerAccount(t *testing.T) {
	e, store := newTestEngine(t)

	if _, err := e.CreateCode("ONCE", 10, 0, time.Hour); err != nil {
		t.Fatalf("create code: %v", err)
	}

	if result, _, _ := e.Redeem(1, "ONCE"); result != ResultOK {
		t.Fatalf("first redeem = %v", result)
	}
	if result, _, _ := e.Redeem(1, "ONCE"); result != ResultAlreadyUsed {
		t.Errorf("second redeem = %v, want ResultAlreadyUsed", result)
	}
	if result, _, _ := e.Redeem(2, "ONCE"); result != ResultOK {
		t.Errorf("other account redeem = %v, want ResultOK", result)
	}

	if balance, _ := store.Balance(1); balance != 10 {
		t.Errorf("balance = %v, want 10 after duplicate attempt", balance)
	}
}

func TestRedeemAppliesCreditValue(t *testing.T) {
	e, store := newTestEngine(t)

	if err := store.SetCreditValue(2); err != nil {
		t.Fatalf("set credit value: %v", err)
	}
	if _, err := e.CreateCode("DOUBLE", 10, 0, time.Hour); err != nil {
		t.Fatalf("create code: %v", err)
	}

	_, granted, err := e.Redeem(1, "DOUBLE")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if granted != 20 {
		t.Errorf("granted = %v, want 20", granted)
	}
}

func TestRedeemBonusFollowsCodeExpiry(t *testing.T) {
	e, store := newTestEngine(t)

	rc, err := e.CreateCode("BOOST", 10, 25, time.Hour)
	if err != nil {
		t.Fatalf("create code: %v", err)
	}

	if result, _, _ := e.Redeem(1, "BOOST"); result != ResultOK {
		t.Fatalf("redeem failed")
	}

	pct, err := store.BonusPercent(1)
	if err != nil {
		t.Fatalf("bonus: %v", err)
	}
	if pct != 25 {
		t.Errorf("bonus = %v, want 25", pct)
	}

	acct, err := store.GetAccount(1)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.BonusUntil == nil || !acct.BonusUntil.Equal(rc.ExpiresAt.Truncate(time.Second)) {
		t.Errorf("bonus_until = %v, want code expiry %v", acct.BonusUntil, rc.ExpiresAt)
	}
}

func TestRedeemInvalidAndExpired(t *testing.T) {
	e, _ := newTestEngine(t)

	if result, _, _ := e.Redeem(1, "MISSING"); result != ResultInvalid {
		t.Errorf("unknown code = %v, want ResultInvalid", result)
	}

	if _, err := e.CreateCode("GONE", 10, 0, -time.Minute); err != nil {
		t.Fatalf("create expired code: %v", err)
	}
	if result, _, _ := e.Redeem(1, "GONE"); result != ResultInvalid {
		t.Errorf("expired code = %v, want ResultInvalid", result)
	}
}

func TestCreateCodeValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	if _, err := e.CreateCode("  ", 10, 0, time.Hour); err == nil {
		t.Error("empty code accepted")
	}
	if _, err := e.CreateCode("ZERO", 0, 0, time.Hour); err == nil {
		t.Error("zero credits accepted")
	}

	if _, err := e.CreateCode("dup", 10, 0, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.CreateCode("DUP", 10, 0, time.Hour); err != storage.ErrAlreadyExists {
		t.Errorf("duplicate create: err=%v, want ErrAlreadyExists", err)
	}
}
