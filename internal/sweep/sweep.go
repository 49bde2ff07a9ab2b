// Package sweep runs the periodic background maintenance passes.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/sahilkl/filegate/internal/storage"
)

// MessageDeleter deletes a delivered chat message
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Sweeper deletes due messages and garbage-collects expired state
type Sweeper struct {
	store   *storage.Storage
	deleter MessageDeleter
	log     *slog.Logger
}

// New creates a sweeper
func New(store *storage.Storage, deleter MessageDeleter, log *slog.Logger) *Sweeper {
	return &Sweeper{store: store, deleter: deleter, log: log}
}

// Start runs the sweep loop until the context is cancelled
func (sw *Sweeper) Start(ctx context.Context, interval time.Duration) {
	sw.log.Info("sweeper started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			sw.RunOnce(ctx)
		}
	}
}

// RunOnce executes every maintenance pass. Each pass is independent and
// idempotent; a failure in one is logged and does not block the rest.
func (sw *Sweeper) RunOnce(ctx context.Context) {
	sw.deleteDueMessages(ctx)

	if n, err := sw.store.ClearExpiredBonuses(); err != nil {
		sw.log.Error("bonus sweep failed", "error", err)
	} else if n > 0 {
		sw.log.Info("expired bonuses cleared", "count", n)
	}

	if n, err := sw.store.DeleteExpiredRedeemCodes(); err != nil {
		sw.log.Error("redeem code sweep failed", "error", err)
	} else if n > 0 {
		sw.log.Info("expired redeem codes removed", "count", n)
	}

	// Covers codes removed by the admin too, not just expired ones
	if _, err := sw.store.PruneUsedRedeems(); err != nil {
		sw.log.Error("used redeem prune failed", "error", err)
	}

	if _, err := sw.store.DeleteExpiredTokens(); err != nil {
		sw.log.Error("token sweep failed", "error", err)
	}
	if _, err := sw.store.DeleteExpiredClaims(); err != nil {
		sw.log.Error("claim sweep failed", "error", err)
	}
	if _, err := sw.store.DeleteExpiredUnclaimed(); err != nil {
		sw.log.Error("unclaimed payment sweep failed", "error", err)
	}
}

// deleteDueMessages removes delivered content whose display window has
// passed. The queue row goes away even when the chat-side delete fails
// (message already gone, chat blocked) so the queue cannot wedge.
func (sw *Sweeper) deleteDueMessages(ctx context.Context) {
	due, err := sw.store.DueDeletions()
	if err != nil {
		sw.log.Error("deletion queue read failed", "error", err)
		return
	}

	for _, d := range due {
		if sw.deleter != nil {
			if err := sw.deleter.DeleteMessage(ctx, d.ChatID, d.MessageID); err != nil {
				sw.log.Warn("message delete failed",
					"chat_id", d.ChatID,
					"message_id", d.MessageID,
					"error", err,
				)
			}
		}
		if err := sw.store.RemoveDeletion(d.ID); err != nil {
			sw.log.Error("deletion queue remove failed", "id", d.ID, "error", err)
		}
	}

	if len(due) > 0 {
		sw.log.Info("due messages swept", "count", len(due))
	}
}
