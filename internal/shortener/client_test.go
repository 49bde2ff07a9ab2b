package shortener

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sahilkl/filegate/internal/storage"
)

func newTestClient() *Client {
	return NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestShortenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			t.Errorf("path = %q, want /api", r.URL.Path)
		}
		if r.URL.Query().Get("api") != "key123" {
			t.Errorf("api key = %q", r.URL.Query().Get("api"))
		}
		if r.URL.Query().Get("url") != "https://t.me/bot?start=v_abc" {
			t.Errorf("url = %q", r.URL.Query().Get("url"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","shortenedUrl":"https://sh.rt/xyz"}`))
	}))
	defer srv.Close()

	c := newTestClient()
	got := c.Shorten(context.Background(), "https://t.me/bot?start=v_abc", storage.ShortenerSlot{
		API:    "key123",
		Domain: srv.URL,
	})
	if got != "https://sh.rt/xyz" {
		t.Errorf("Shorten = %q, want shortened url", got)
	}
}

func TestShortenErrorStatusFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	c := newTestClient()
	got := c.Shorten(context.Background(), "https://original", storage.ShortenerSlot{
		API:    "key123",
		Domain: srv.URL,
	})
	if got != "https://original" {
		t.Errorf("Shorten = %q, want original url", got)
	}
}

func TestShortenBadJSONFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c := newTestClient()
	got := c.Shorten(context.Background(), "https://original", storage.ShortenerSlot{
		API:    "key123",
		Domain: srv.URL,
	})
	if got != "https://original" {
		t.Errorf("Shorten = %q, want original url", got)
	}
}

func TestShortenUnreachableFallsBack(t *testing.T) {
	c := newTestClient()
	got := c.Shorten(context.Background(), "https://original", storage.ShortenerSlot{
		API:    "key123",
		Domain: "http://127.0.0.1:1",
	})
	if got != "https://original" {
		t.Errorf("Shorten = %q, want original url", got)
	}
}

func TestShortenEmptySlotFallsBack(t *testing.T) {
	c := newTestClient()
	got := c.Shorten(context.Background(), "https://original", storage.ShortenerSlot{})
	if got != "https://original" {
		t.Errorf("Shorten = %q, want original url", got)
	}
}
