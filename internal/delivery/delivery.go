// Package delivery sends gated content and account notifications, and
// queues delivered messages for auto-deletion.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sahilkl/filegate/internal/payments"
	"github.com/sahilkl/filegate/internal/storage"
)

// Deliverer sends batch content to chats
type Deliverer struct {
	bot   *bot.Bot
	store *storage.Storage
	log   *slog.Logger
}

// New creates a deliverer
func New(b *bot.Bot, store *storage.Storage, log *slog.Logger) *Deliverer {
	return &Deliverer{bot: b, store: store, log: log}
}

// SendBatch delivers every item of a batch in stored order and schedules
// the whole delivery for auto-deletion. A single failed item is skipped
// rather than aborting the rest.
func (d *Deliverer) SendBatch(ctx context.Context, chatID int64, batch *storage.Batch) error {
	delay, err := d.store.DeleteDelay()
	if err != nil {
		return err
	}

	var ids []int

	warn := fmt.Sprintf(
		"⚠️ This content will be deleted in <b>%d minutes</b>.\nForward it somewhere safe now!",
		int(delay.Minutes()),
	)
	if m, err := d.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      warn,
		ParseMode: models.ParseModeHTML,
	}); err == nil {
		ids = append(ids, m.ID)
	}

	for _, f := range batch.Files {
		m, err := d.sendFile(ctx, chatID, f)
		if err != nil {
			d.log.Warn("batch item send failed",
				"chat_id", chatID,
				"code", batch.Code,
				"kind", f.Kind,
				"error", err,
			)
			continue
		}
		ids = append(ids, m.ID)
	}

	if len(ids) > 0 {
		if err := d.store.ScheduleDeletion(chatID, ids, time.Now().Add(delay)); err != nil {
			return fmt.Errorf("schedule deletion: %w", err)
		}
	}

	d.log.Info("batch delivered", "chat_id", chatID, "code", batch.Code, "items", len(batch.Files))
	return nil
}

func (d *Deliverer) sendFile(ctx context.Context, chatID int64, f storage.BatchFile) (*models.Message, error) {
	switch f.Kind {
	case "text":
		return d.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   f.FileID,
		})
	case "photo":
		return d.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID: chatID,
			Photo:  &models.InputFileString{Data: f.FileID},
		})
	case "video":
		return d.bot.SendVideo(ctx, &bot.SendVideoParams{
			ChatID: chatID,
			Video:  &models.InputFileString{Data: f.FileID},
		})
	case "audio":
		return d.bot.SendAudio(ctx, &bot.SendAudioParams{
			ChatID: chatID,
			Audio:  &models.InputFileString{Data: f.FileID},
		})
	default:
		return d.bot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:   chatID,
			Document: &models.InputFileString{Data: f.FileID},
		})
	}
}

// DeleteMessage removes a delivered message from a chat
func (d *Deliverer) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := d.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return err
}

// Notify sends a plain notification to a user, logging failures
func (d *Deliverer) Notify(ctx context.Context, userID int64, text string) {
	_, err := d.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		d.log.Warn("notify failed", "user_id", userID, "error", err)
	}
}

// PaymentConfirmed tells a buyer their webhook payment was credited
func (d *Deliverer) PaymentConfirmed(ctx context.Context, m payments.Match) {
	value, err := d.store.CreditValue()
	if err != nil || value <= 0 {
		value = 1
	}

	text := fmt.Sprintf(
		"✅ <b>Payment confirmed!</b>\n\n₹%.2f received, <b>%.2f credits</b> added to your wallet.",
		m.Amount, m.Credited/value,
	)
	if m.BonusPercent > 0 {
		text += fmt.Sprintf("\n🎁 Includes your <b>%.0f%%</b> bonus.", m.BonusPercent)
	}
	d.Notify(ctx, m.UserID, text)
}
