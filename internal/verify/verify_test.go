package verify

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sahilkl/filegate/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Storage) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, log), store
}

func TestRandomCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := RandomCode(8)
		if len(code) != 8 {
			t.Fatalf("len = %d, want 8", len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("unexpected rune %q in %q", r, code)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = true
	}
}

func TestIssueAndRedeem(t *testing.T) {
	svc, store := newTestService(t)

	token, err := svc.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(token, TokenPrefix) {
		t.Errorf("token %q missing prefix", token)
	}

	result, hours, err := svc.Redeem(token, 7)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result != ResultOK {
		t.Fatalf("result = %v, want ResultOK", result)
	}
	if hours != 12 {
		t.Errorf("hours = %d, want default 12", hours)
	}
	if !store.HasVerification(7) {
		t.Error("verification window not opened")
	}

	// Tokens are single use
	result, _, err = svc.Redeem(token, 7)
	if err != nil {
		t.Fatalf("second redeem: %v", err)
	}
	if result != ResultNotFound {
		t.Errorf("second redeem = %v, want ResultNotFound", result)
	}
}

func TestRedeemWrongAccount(t *testing.T) {
	svc, store := newTestService(t)

	token, err := svc.Issue(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	result, _, err := svc.Redeem(token, 8)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result != ResultMismatch {
		t.Errorf("result = %v, want ResultMismatch", result)
	}
	if store.HasVerification(8) {
		t.Error("wrong account got verified")
	}

	// The owner can still use their token afterwards
	result, _, err = svc.Redeem(token, 7)
	if err != nil {
		t.Fatalf("owner redeem: %v", err)
	}
	if result != ResultOK {
		t.Errorf("owner redeem = %v, want ResultOK", result)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	result, _, err := svc.Redeem("v_nope1234", 7)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result != ResultNotFound {
		t.Errorf("result = %v, want ResultNotFound", result)
	}
}
