// Package webhook receives payment notifications from the provider.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sahilkl/filegate/internal/payments"
)

// MatchNotifier is called when a webhook payment matched a user's claim
type MatchNotifier func(ctx context.Context, m payments.Match)

// Server handles incoming payment webhooks
type Server struct {
	reconciler *payments.Reconciler
	notify     MatchNotifier
	secret     string
	log        *slog.Logger

	server *http.Server
}

// NewServer creates a new webhook server
func NewServer(rec *payments.Reconciler, notify MatchNotifier, secret string, log *slog.Logger) *Server {
	return &Server{
		reconciler: rec,
		notify:     notify,
		secret:     secret,
		log:        log,
	}
}

// Start starts the webhook server
func (s *Server) Start(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/webhook/", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleHealth)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("starting webhook server", "port", port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	return s.server.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// payload is what the provider posts. Amount arrives as either a JSON
// number or a formatted string, depending on the provider's mood.
type payload struct {
	UserEmail string      `json:"user_email"`
	Amount    interface{} `json:"amount"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if s.secret != "" && r.URL.Query().Get("secret") != s.secret {
		s.log.Warn("webhook rejected, bad secret", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusForbidden, map[string]string{"status": "unauthorized"})
		return
	}

	var p payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.log.Warn("invalid webhook payload", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error"})
		return
	}

	amount := payments.SanitizeAmount(amountText(p.Amount))
	s.log.Debug("webhook received", "email", p.UserEmail, "amount", amount)

	outcome, match, err := s.reconciler.HandleWebhook(p.UserEmail, amount)
	if err != nil {
		s.log.Error("webhook reconcile failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
		return
	}

	if outcome == payments.OutcomeMatched {
		if s.notify != nil && match != nil {
			s.notify(r.Context(), *match)
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "saved",
		"message": "payment stored for later claim",
	})
}

// amountText renders the amount field for sanitizing. JSON numbers are
// formatted in plain notation; %v would turn large ones scientific.
func amountText(v interface{}) string {
	switch a := v.(type) {
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64)
	case string:
		return a
	default:
		return fmt.Sprintf("%v", v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
