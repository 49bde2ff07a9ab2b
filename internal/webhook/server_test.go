package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sahilkl/filegate/internal/payments"
	"github.com/sahilkl/filegate/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Storage, *[]payments.Match) {
	t.Helper()

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := payments.New(store, log)

	var notified []payments.Match
	notify := func(ctx context.Context, m payments.Match) {
		notified = append(notified, m)
	}

	return NewServer(rec, notify, "s3cret", log), store, &notified
}

func post(s *Server, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.handleWebhook(w, req)
	return w
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out["status"]
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := post(s, "/webhook?secret=wrong", `{"user_email":"a@b.com","amount":100}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", w.Code)
	}
	if status := decodeStatus(t, w); status != "unauthorized" {
		t.Errorf("status = %q, want unauthorized", status)
	}
}

func TestWebhookRejectsNonPost(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook?secret=s3cret", nil)
	w := httptest.NewRecorder()
	s.handleWebhook(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", w.Code)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	s, _, _ := newTestServer(t)

	w := post(s, "/webhook?secret=s3cret", `{broken`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", w.Code)
	}
	if status := decodeStatus(t, w); status != "error" {
		t.Errorf("status = %q, want error", status)
	}
}

func TestWebhookSavesUnmatchedPayment(t *testing.T) {
	s, store, notified := newTestServer(t)

	w := post(s, "/webhook?secret=s3cret", `{"user_email":"a@b.com","amount":"₹150.00"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", w.Code)
	}
	if status := decodeStatus(t, w); status != "saved" {
		t.Errorf("status = %q, want saved", status)
	}
	if len(*notified) != 0 {
		t.Errorf("notified %d matches, want 0", len(*notified))
	}

	// The sanitized amount is stored and claimable
	amount, err := store.ConsumeUnclaimedPayment("a@b.com")
	if err != nil {
		t.Fatalf("consume unclaimed: %v", err)
	}
	if amount != 150 {
		t.Errorf("stored amount = %v, want 150", amount)
	}
}

func TestWebhookMatchesClaim(t *testing.T) {
	s, store, notified := newTestServer(t)

	if err := store.CreatePendingClaim("a@b.com", 7); err != nil {
		t.Fatalf("create claim: %v", err)
	}

	// Numeric amount payload
	w := post(s, "/webhook?secret=s3cret", `{"user_email":"A@B.com","amount":100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", w.Code)
	}
	if status := decodeStatus(t, w); status != "success" {
		t.Errorf("status = %q, want success", status)
	}

	if len(*notified) != 1 {
		t.Fatalf("notified %d matches, want 1", len(*notified))
	}
	m := (*notified)[0]
	if m.UserID != 7 || m.Credited != 100 {
		t.Errorf("match = %+v", m)
	}
	if balance, _ := store.Balance(7); balance != 100 {
		t.Errorf("balance = %v, want 100", balance)
	}
}

func TestWebhookKeepsLargeNumericAmountExact(t *testing.T) {
	s, store, _ := newTestServer(t)

	// A plain %v render of 1e7 would be scientific notation and
	// sanitize down to 107
	w := post(s, "/webhook?secret=s3cret", `{"user_email":"a@b.com","amount":10000000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", w.Code)
	}

	amount, err := store.ConsumeUnclaimedPayment("a@b.com")
	if err != nil {
		t.Fatalf("consume unclaimed: %v", err)
	}
	if amount != 10000000 {
		t.Errorf("stored amount = %v, want 10000000", amount)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", w.Code)
	}
}
