// Package shortener wraps destination URLs through third-party ad-link
// shortener services.
package shortener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sahilkl/filegate/internal/storage"
)

// Client calls shortener APIs. Every failure mode falls back to the
// original URL so a broken shortener never blocks content access.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a shortener client
func NewClient(log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type shortenResponse struct {
	Status       string `json:"status"`
	ShortenedURL string `json:"shortenedUrl"`
}

// Shorten wraps destination through the given shortener slot
func (c *Client) Shorten(ctx context.Context, destination string, slot storage.ShortenerSlot) string {
	if slot.API == "" || slot.Domain == "" {
		return destination
	}

	base := slot.Domain
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	apiURL := fmt.Sprintf("%s/api?api=%s&url=%s",
		base, url.QueryEscape(slot.API), url.QueryEscape(destination))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return destination
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("shortener request failed", "domain", slot.Domain, "error", err)
		return destination
	}
	defer resp.Body.Close()

	var out shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Warn("shortener response decode failed", "domain", slot.Domain, "error", err)
		return destination
	}

	if out.ShortenedURL != "" && (out.Status == "success" || out.Status == "") {
		return out.ShortenedURL
	}
	return destination
}
