package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sahilkl/filegate/internal/storage"
)

func (b *Bot) adminHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || !b.isAdmin(update.Message.From.ID) {
		return
	}

	text, keyboard := b.adminPanel()
	b.sendMessage(ctx, update.Message.Chat.ID, text, keyboard)
}

func (b *Bot) showAdminPanel(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Clear(cb.From.ID)
	text, keyboard := b.adminPanel()
	b.editMessage(ctx, cb.Message, text, keyboard)
}

func (b *Bot) adminPanel() (string, *models.InlineKeyboardMarkup) {
	count, _ := b.storage.CountAccounts()
	value, _ := b.storage.CreditValue()
	delay, _ := b.storage.DeleteDelay()
	cfg, _ := b.storage.GetShortenerConfig()

	text := fmt.Sprintf(
		"🛠 <b>Admin panel</b>\n\n"+
			"Users: <b>%d</b>\n"+
			"Credit value: <b>₹%.2f</b>\n"+
			"Delete delay: <b>%d min</b>\n"+
			"Verification: <b>%s</b> (%d shorteners, %dh validity)",
		count, value, int(delay.Minutes()), onOff(cfg.Active), len(cfg.Slots), cfg.ValidityHours,
	)
	return text, AdminKeyboard(cfg.Active)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// --- Redeem code management ---

func (b *Bot) showRedeemMenu(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Clear(cb.From.ID)
	b.editMessage(ctx, cb.Message, "🎟 <b>Redeem codes</b>", RedeemMenuKeyboard())
}

func (b *Bot) startRedeemCreate(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Set(cb.From.ID, StateWaitRedeemName, WizardData{})
	b.editMessage(ctx, cb.Message, "Send a name for the new code (e.g. <code>WELCOME50</code>):", RedeemMenuKeyboard())
}

func (b *Bot) startRedeemDelete(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Set(cb.From.ID, StateWaitRedeemDelete, WizardData{})
	b.editMessage(ctx, cb.Message, "Send the code to delete:", RedeemMenuKeyboard())
}

func (b *Bot) listRedeemCodes(ctx context.Context, cb *models.CallbackQuery, _ string) {
	codes, err := b.redeem.List()
	if err != nil {
		b.log.Error("list redeem codes", "error", err)
		return
	}
	if len(codes) == 0 {
		b.editMessage(ctx, cb.Message, "No live redeem codes.", RedeemMenuKeyboard())
		return
	}

	lines := []string{"🎟 <b>Live codes:</b>\n"}
	for _, c := range codes {
		line := fmt.Sprintf("• <code>%s</code> — %.0f credits", c.Code, c.Credits)
		if c.BonusPercent > 0 {
			line += fmt.Sprintf(", +%.0f%% bonus", c.BonusPercent)
		}
		line += fmt.Sprintf(", expires %s", c.ExpiresAt.Format("02 Jan 15:04"))
		lines = append(lines, line)
	}
	b.editMessage(ctx, cb.Message, strings.Join(lines, "\n"), RedeemMenuKeyboard())
}

// --- Account tools ---

func (b *Bot) startGrantCredits(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Set(cb.From.ID, StateWaitGrantUser, WizardData{})
	b.editMessage(ctx, cb.Message, "Send the user id to credit:", BackKeyboard())
}

func (b *Bot) startBan(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Set(cb.From.ID, StateWaitBanID, WizardData{})
	b.editMessage(ctx, cb.Message, "Send the user id to ban:", BackKeyboard())
}

func (b *Bot) startUnban(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Set(cb.From.ID, StateWaitUnbanID, WizardData{})
	b.editMessage(ctx, cb.Message, "Send the user id to unban:", BackKeyboard())
}

// --- Settings ---

func (b *Bot) startCreditValue(ctx context.Context, cb *models.CallbackQuery, _ string) {
	value, _ := b.storage.CreditValue()
	b.states.Set(cb.From.ID, StateWaitCreditValue, WizardData{})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("Current credit value: <b>₹%.2f</b>.\nSend the new value of one credit in ₹:", value),
		BackKeyboard(),
	)
}

func (b *Bot) startDeleteDelay(ctx context.Context, cb *models.CallbackQuery, _ string) {
	delay, _ := b.storage.DeleteDelay()
	b.states.Set(cb.From.ID, StateWaitDeleteDelay, WizardData{})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("Current delete delay: <b>%d min</b>.\nSend the new delay in minutes:", int(delay.Minutes())),
		BackKeyboard(),
	)
}

func (b *Bot) startPaymentLink(ctx context.Context, cb *models.CallbackQuery, _ string) {
	link, _ := b.storage.PaymentLink()
	if link == "" {
		link = "not set"
	}
	b.states.Set(cb.From.ID, StateWaitPaymentLink, WizardData{})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("Current payment page: %s\nSend the new payment page URL:", link),
		BackKeyboard(),
	)
}

func (b *Bot) startShortenerAdd(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Set(cb.From.ID, StateWaitShortenerDomain, WizardData{})
	b.editMessage(ctx, cb.Message, "Send the shortener domain (e.g. <code>example.in</code>):", BackKeyboard())
}

func (b *Bot) clearShorteners(ctx context.Context, cb *models.CallbackQuery, _ string) {
	cfg, err := b.storage.GetShortenerConfig()
	if err != nil {
		b.log.Error("get shortener config", "error", err)
		return
	}
	cfg.Slots = nil
	if err := b.storage.SaveShortenerConfig(cfg); err != nil {
		b.log.Error("save shortener config", "error", err)
		return
	}
	b.log.Info("shortener slots cleared")
	b.showAdminPanel(ctx, cb, "")
}

func (b *Bot) startShortenerHours(ctx context.Context, cb *models.CallbackQuery, _ string) {
	cfg, _ := b.storage.GetShortenerConfig()
	b.states.Set(cb.From.ID, StateWaitShortenerHours, WizardData{})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("Current validity: <b>%dh</b>.\nSend how many hours a verification lasts:", cfg.ValidityHours),
		BackKeyboard(),
	)
}

func (b *Bot) startShortenerTutorial(ctx context.Context, cb *models.CallbackQuery, _ string) {
	cfg, _ := b.storage.GetShortenerConfig()
	link := cfg.TutorialURL
	if link == "" {
		link = "not set"
	}
	b.states.Set(cb.From.ID, StateWaitShortenerTutorial, WizardData{})
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("Current tutorial: %s\nSend the new tutorial video URL:", link),
		BackKeyboard(),
	)
}

func (b *Bot) toggleVerification(ctx context.Context, cb *models.CallbackQuery, _ string) {
	cfg, err := b.storage.GetShortenerConfig()
	if err != nil {
		b.log.Error("get shortener config", "error", err)
		return
	}
	cfg.Active = !cfg.Active
	if err := b.storage.SaveShortenerConfig(cfg); err != nil {
		b.log.Error("save shortener config", "error", err)
		return
	}
	b.log.Info("verification toggled", "active", cfg.Active)
	b.showAdminPanel(ctx, cb, "")
}

// --- Admin text-state routing ---

func (b *Bot) handleAdminState(ctx context.Context, msg *models.Message, text string, state *UserState) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch state.State {
	case StateWaitRedeemName:
		name := strings.ToUpper(strings.TrimSpace(text))
		if name == "" {
			b.sendMessage(ctx, chatID, "❌ Send a non-empty code name.", nil)
			return
		}
		state.Data.RedeemName = name
		b.states.Set(userID, StateWaitRedeemCredits, state.Data)
		b.sendMessage(ctx, chatID, "How many credits is it worth?", nil)

	case StateWaitRedeemCredits:
		credits, ok := parsePositiveFloat(text)
		if !ok {
			b.sendMessage(ctx, chatID, "❌ Send a positive number of credits.", nil)
			return
		}
		state.Data.RedeemCredits = credits
		b.states.Set(userID, StateWaitRedeemBonus, state.Data)
		b.sendMessage(ctx, chatID, "Bonus percentage for top-ups while the code is live? (0 for none)", nil)

	case StateWaitRedeemBonus:
		bonus, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || bonus < 0 {
			b.sendMessage(ctx, chatID, "❌ Send a percentage, 0 or more.", nil)
			return
		}
		state.Data.RedeemBonus = bonus
		b.states.Set(userID, StateWaitRedeemHours, state.Data)
		b.sendMessage(ctx, chatID, "Valid for how many hours?", nil)

	case StateWaitRedeemHours:
		hours, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || hours <= 0 {
			b.sendMessage(ctx, chatID, "❌ Send a positive number of hours.", nil)
			return
		}
		b.states.Clear(userID)
		b.finishRedeemCreate(ctx, chatID, state, hours)

	case StateWaitRedeemDelete:
		b.states.Clear(userID)
		removed, err := b.redeem.DeleteCode(text)
		if err != nil {
			b.log.Error("delete redeem code", "error", err)
			return
		}
		if removed {
			b.sendMessage(ctx, chatID, "🗑 Code deleted.", RedeemMenuKeyboard())
		} else {
			b.sendMessage(ctx, chatID, "❌ No such code.", RedeemMenuKeyboard())
		}

	case StateWaitGrantUser:
		target, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			b.sendMessage(ctx, chatID, "❌ Send a numeric user id.", nil)
			return
		}
		state.Data.GrantUser = target
		b.states.Set(userID, StateWaitGrantAmount, state.Data)
		b.sendMessage(ctx, chatID, "How many credits to grant? (negative to deduct)", nil)

	case StateWaitGrantAmount:
		amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || amount == 0 {
			b.sendMessage(ctx, chatID, "❌ Send a non-zero number.", nil)
			return
		}
		target := state.Data.GrantUser
		b.states.Clear(userID)

		value, _ := b.storage.CreditValue()
		if err := b.storage.AddCredits(target, amount*value); err != nil {
			b.log.Error("grant credits", "error", err)
			b.sendMessage(ctx, chatID, "❌ Grant failed.", nil)
			return
		}
		b.log.Info("credits granted", "target", target, "credits", amount)
		b.sendMessage(ctx, chatID,
			fmt.Sprintf("✅ %.2f credits applied to <code>%d</code>.", amount, target), nil)
		if amount > 0 {
			b.delivery.Notify(ctx, target,
				fmt.Sprintf("🎁 <b>%.2f credits</b> were added to your wallet.", amount))
		}

	case StateWaitBanID, StateWaitUnbanID:
		target, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			b.sendMessage(ctx, chatID, "❌ Send a numeric user id.", nil)
			return
		}
		ban := state.State == StateWaitBanID
		b.states.Clear(userID)
		if err := b.storage.SetBanned(target, ban); err != nil {
			b.log.Error("set banned", "error", err)
			return
		}
		if ban {
			b.sendMessage(ctx, chatID, fmt.Sprintf("🚫 <code>%d</code> banned.", target), nil)
		} else {
			b.sendMessage(ctx, chatID, fmt.Sprintf("♻️ <code>%d</code> unbanned.", target), nil)
		}

	case StateWaitCreditValue:
		value, ok := parsePositiveFloat(text)
		if !ok {
			b.sendMessage(ctx, chatID, "❌ Send a positive value.", nil)
			return
		}
		b.states.Clear(userID)
		if err := b.storage.SetCreditValue(value); err != nil {
			b.log.Error("set credit value", "error", err)
			return
		}
		b.sendMessage(ctx, chatID, fmt.Sprintf("✅ One credit is now worth ₹%.2f.", value), nil)

	case StateWaitDeleteDelay:
		minutes, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || minutes <= 0 {
			b.sendMessage(ctx, chatID, "❌ Send a positive number of minutes.", nil)
			return
		}
		b.states.Clear(userID)
		if err := b.storage.SetDeleteDelay(minutes); err != nil {
			b.log.Error("set delete delay", "error", err)
			return
		}
		b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Delivered content now self-destructs after %d minutes.", minutes), nil)

	case StateWaitPaymentLink:
		link := strings.TrimSpace(text)
		if !strings.HasPrefix(link, "http") {
			b.sendMessage(ctx, chatID, "❌ Send a full URL starting with http(s).", nil)
			return
		}
		b.states.Clear(userID)
		if err := b.storage.SetPaymentLink(link); err != nil {
			b.log.Error("set payment link", "error", err)
			return
		}
		b.sendMessage(ctx, chatID, "✅ Payment page updated.", nil)

	case StateWaitShortenerDomain:
		domain := strings.TrimSpace(text)
		if domain == "" {
			b.sendMessage(ctx, chatID, "❌ Send a non-empty domain.", nil)
			return
		}
		state.Data.ShortenerDomain = domain
		b.states.Set(userID, StateWaitShortenerAPI, state.Data)
		b.sendMessage(ctx, chatID, "Send the API key for this shortener:", nil)

	case StateWaitShortenerAPI:
		key := strings.TrimSpace(text)
		if key == "" {
			b.sendMessage(ctx, chatID, "❌ Send a non-empty API key.", nil)
			return
		}
		domain := state.Data.ShortenerDomain
		b.states.Clear(userID)

		cfg, err := b.storage.GetShortenerConfig()
		if err != nil {
			b.log.Error("get shortener config", "error", err)
			return
		}
		cfg.Slots = append(cfg.Slots, storage.ShortenerSlot{API: key, Domain: domain})
		if err := b.storage.SaveShortenerConfig(cfg); err != nil {
			b.log.Error("save shortener config", "error", err)
			return
		}
		b.log.Info("shortener slot added", "domain", domain, "slots", len(cfg.Slots))
		b.sendMessage(ctx, chatID,
			fmt.Sprintf("✅ Shortener <code>%s</code> added (%d configured).", domain, len(cfg.Slots)), nil)

	case StateWaitShortenerHours:
		hours, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || hours <= 0 {
			b.sendMessage(ctx, chatID, "❌ Send a positive number of hours.", nil)
			return
		}
		b.states.Clear(userID)
		cfg, err := b.storage.GetShortenerConfig()
		if err != nil {
			b.log.Error("get shortener config", "error", err)
			return
		}
		cfg.ValidityHours = hours
		if err := b.storage.SaveShortenerConfig(cfg); err != nil {
			b.log.Error("save shortener config", "error", err)
			return
		}
		b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Verification now lasts %dh.", hours), nil)

	case StateWaitShortenerTutorial:
		link := strings.TrimSpace(text)
		if !strings.HasPrefix(link, "http") {
			b.sendMessage(ctx, chatID, "❌ Send a full URL starting with http(s).", nil)
			return
		}
		b.states.Clear(userID)
		cfg, err := b.storage.GetShortenerConfig()
		if err != nil {
			b.log.Error("get shortener config", "error", err)
			return
		}
		cfg.TutorialURL = link
		if err := b.storage.SaveShortenerConfig(cfg); err != nil {
			b.log.Error("save shortener config", "error", err)
			return
		}
		b.sendMessage(ctx, chatID, "✅ Tutorial link updated.", nil)
	}
}

func (b *Bot) finishRedeemCreate(ctx context.Context, chatID int64, state *UserState, hours int) {
	name := state.Data.RedeemName
	credits := state.Data.RedeemCredits
	bonus := state.Data.RedeemBonus

	rc, err := b.redeem.CreateCode(name, credits, bonus, time.Duration(hours)*time.Hour)
	if err == storage.ErrAlreadyExists {
		b.sendMessage(ctx, chatID, "❌ A live code with this name already exists.", RedeemMenuKeyboard())
		return
	}
	if err != nil {
		b.log.Error("create redeem code", "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong, please try again.", RedeemMenuKeyboard())
		return
	}

	text := fmt.Sprintf(
		"✅ <b>Code created!</b>\n\n<code>%s</code> — %.0f credits",
		rc.Code, rc.Credits,
	)
	if rc.BonusPercent > 0 {
		text += fmt.Sprintf(", +%.0f%% top-up bonus", rc.BonusPercent)
	}
	text += fmt.Sprintf("\nExpires: %s", rc.ExpiresAt.Format("02 Jan 2006 15:04"))
	b.sendMessage(ctx, chatID, text, RedeemMenuKeyboard())
}
