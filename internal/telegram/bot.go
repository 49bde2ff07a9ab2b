// Package telegram implements the bot's command, wizard and callback
// handling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sahilkl/filegate/internal/config"
	"github.com/sahilkl/filegate/internal/delivery"
	"github.com/sahilkl/filegate/internal/gate"
	"github.com/sahilkl/filegate/internal/payments"
	"github.com/sahilkl/filegate/internal/redeem"
	"github.com/sahilkl/filegate/internal/storage"
	"github.com/sahilkl/filegate/internal/verify"
)

type actionHandler func(ctx context.Context, cb *models.CallbackQuery, arg string)

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot        *bot.Bot
	cfg        *config.Config
	storage    *storage.Storage
	gate       *gate.Gate
	verify     *verify.Service
	redeem     *redeem.Engine
	reconciler *payments.Reconciler
	delivery   *delivery.Deliverer
	states     *StateManager
	actions    map[ActionKind]actionHandler
	log        *slog.Logger
}

// New creates a new telegram bot
func New(
	cfg *config.Config,
	store *storage.Storage,
	g *gate.Gate,
	v *verify.Service,
	r *redeem.Engine,
	rec *payments.Reconciler,
	log *slog.Logger,
) (*Bot, error) {
	b := &Bot{
		cfg:        cfg,
		storage:    store,
		gate:       g,
		verify:     v,
		redeem:     r,
		reconciler: rec,
		states:     NewStateManager(),
		log:        log,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot
	b.delivery = delivery.New(tgBot, store, log)
	b.actions = b.buildActionTable()

	// Register command handlers
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/start ", bot.MatchTypePrefix, b.startHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/redeem", bot.MatchTypePrefix, b.redeemHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/newbatch", bot.MatchTypeExact, b.newBatchHandler(storage.PolicyPublic))
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/newpremium", bot.MatchTypeExact, b.newBatchHandler(storage.PolicyPremium))
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/newsale", bot.MatchTypeExact, b.newBatchHandler(storage.PolicySale))
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/newspecial", bot.MatchTypeExact, b.newBatchHandler(storage.PolicySpecial))
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/proof", bot.MatchTypeExact, b.proofListHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/setupi", bot.MatchTypePrefix, b.setUPIHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, b.cancelHandler)
	tgBot.RegisterHandler(bot.HandlerTypeMessageText, "/admin", bot.MatchTypeExact, b.adminHandler)

	return b, nil
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// Delivery returns the content deliverer bound to this bot
func (b *Bot) Delivery() *delivery.Deliverer {
	return b.delivery
}

func (b *Bot) buildActionTable() map[ActionKind]actionHandler {
	return map[ActionKind]actionHandler{
		ActionHome:          b.showHome,
		ActionCredits:       b.showCredits,
		ActionBuyCredits:    b.showInvoice,
		ActionPaid:          b.handlePaid,
		ActionInvoice:       b.showInvoice,
		ActionPlans:         b.showPlans,
		ActionPlanInfo:      b.showPlanInfo,
		ActionPlanConfirm:   b.confirmPlan,
		ActionPremiumStatus: b.showPremiumStatus,
		ActionSaleConfirm:   b.confirmSale,
		ActionBatchSave:     b.saveBatch,
		ActionCancel:        b.cancelWizard,
		ActionProofAccept:   b.acceptProof,
		ActionProofReject:   b.rejectProof,

		ActionAdminPanel:        b.showAdminPanel,
		ActionRedeemMenu:        b.showRedeemMenu,
		ActionRedeemCreate:      b.startRedeemCreate,
		ActionRedeemDelete:      b.startRedeemDelete,
		ActionRedeemList:        b.listRedeemCodes,
		ActionCreditValue:       b.startCreditValue,
		ActionGrantCredits:      b.startGrantCredits,
		ActionBan:               b.startBan,
		ActionUnban:             b.startUnban,
		ActionVerifyToggle:      b.toggleVerification,
		ActionShortenerAdd:      b.startShortenerAdd,
		ActionShortenerClear:    b.clearShorteners,
		ActionShortenerHours:    b.startShortenerHours,
		ActionShortenerTutorial: b.startShortenerTutorial,
		ActionDeleteDelay:       b.startDeleteDelay,
		ActionPaymentLink:       b.startPaymentLink,
	}
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	userID := cb.From.ID

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	if b.storage.IsBanned(userID) {
		return
	}

	act := parseAction(cb.Data)
	if adminActions[act.Kind] && userID != b.cfg.AdminID {
		b.log.Warn("admin action from non-admin", "data", cb.Data, "user_id", userID)
		return
	}

	handler, ok := b.actions[act.Kind]
	if !ok {
		b.log.Warn("unknown callback", "data", cb.Data, "user_id", userID)
		return
	}
	handler(ctx, cb, act.Arg)
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.cfg.AdminID
}

// --- Send helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}
