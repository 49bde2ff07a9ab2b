package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/sahilkl/filegate/internal/gate"
	"github.com/sahilkl/filegate/internal/payments"
	"github.com/sahilkl/filegate/internal/redeem"
	"github.com/sahilkl/filegate/internal/storage"
	"github.com/sahilkl/filegate/internal/verify"
)

const bypassPrefix = "sl_"

// --- /start ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if err := b.storage.EnsureAccount(userID); err != nil {
		b.log.Error("ensure account", "error", err)
	}
	if b.storage.IsBanned(userID) {
		return
	}

	payload := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/start"))

	switch {
	case payload == "":
		b.sendMessage(ctx, chatID, b.homeText(update.Message.From), HomeKeyboard())
	case strings.HasPrefix(payload, verify.TokenPrefix):
		b.handleVerifyToken(ctx, chatID, userID, payload)
	case strings.HasPrefix(payload, bypassPrefix):
		b.openBatch(ctx, chatID, userID, strings.TrimPrefix(payload, bypassPrefix), true)
	default:
		b.openBatch(ctx, chatID, userID, payload, false)
	}
}

func (b *Bot) homeText(from *models.User) string {
	name := from.FirstName
	if name == "" {
		name = from.Username
	}
	if name == "" {
		name = "friend"
	}

	return fmt.Sprintf(
		"<a href='tg://user?id=%d'>%s</a>, welcome! 👋\n\n"+
			"Open a content link to get started, or manage your account below 👇",
		from.ID, name,
	)
}

func (b *Bot) handleVerifyToken(ctx context.Context, chatID, userID int64, token string) {
	result, hours, err := b.verify.Redeem(token, userID)
	if err != nil {
		b.log.Error("verify redeem", "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong, please try again.", nil)
		return
	}

	switch result {
	case verify.ResultOK:
		b.sendMessage(ctx, chatID,
			fmt.Sprintf("✅ <b>Verified!</b>\n\nYou have open access for <b>%d hours</b>.\nNow open your content link again.", hours),
			nil,
		)
	case verify.ResultMismatch:
		b.sendMessage(ctx, chatID,
			"❌ This verification link belongs to a different account.\nOpen the content link from your own account to get yours.",
			nil,
		)
	default:
		b.sendMessage(ctx, chatID,
			"❌ This verification link is invalid or expired.\nOpen your content link again to get a fresh one.",
			nil,
		)
	}
}

// openBatch runs one access attempt through the gate and renders the verdict
func (b *Bot) openBatch(ctx context.Context, chatID, userID int64, code string, bypass bool) {
	d, err := b.gate.Decide(ctx, userID, code, bypass)
	if err == storage.ErrNotFound {
		b.sendMessage(ctx, chatID, "❌ This link is invalid or no longer exists.", nil)
		return
	}
	if err != nil {
		b.log.Error("gate decide", "error", err, "code", code)
		b.sendMessage(ctx, chatID, "❌ Something went wrong, please try again.", nil)
		return
	}

	switch d.Kind {
	case gate.Granted:
		if err := b.delivery.SendBatch(ctx, chatID, d.Batch); err != nil {
			b.log.Error("send batch", "error", err, "code", code)
		}

	case gate.NeedsPremium:
		b.sendMessage(ctx, chatID,
			"👑 This content is for <b>premium members</b> only.\nPick a plan to unlock everything.",
			b.plansKeyboard(),
		)

	case gate.NeedsVerification:
		text := fmt.Sprintf(
			"🔒 <b>Verification needed</b>\n\n"+
				"Complete one quick step to unlock <b>%d hours</b> of open access:\n\n"+
				"1️⃣ Tap <b>Verify Now</b> and follow the link\n"+
				"2️⃣ Come back and tap <b>Try Again</b>",
			d.ValidityHours,
		)
		b.sendMessage(ctx, chatID, text, VerificationKeyboard(d.VerifyURL, d.RetryURL, d.TutorialURL))

	case gate.NeedsPayment:
		b.showPaywall(ctx, chatID, userID, code, d)
	}
}

func (b *Bot) showPaywall(ctx context.Context, chatID, userID int64, code string, d *gate.Decision) {
	if !d.Manual {
		balance, _ := b.storage.Balance(userID)
		text := fmt.Sprintf(
			"💸 <b>Paid content</b>\n\nPrice: <b>₹%.2f</b>\nYour balance: <b>₹%.2f</b>",
			d.Price, balance,
		)
		b.sendMessage(ctx, chatID, text, ConfirmSaleKeyboard(code))
		return
	}

	if err := b.storage.SetPurchaseSession(userID, storage.SessionKindProof, storage.PhaseViewing, code); err != nil {
		b.log.Error("set proof session", "error", err)
	}

	payTo := "the seller"
	if d.OwnerUPI != "" {
		payTo = fmt.Sprintf("<code>%s</code>", d.OwnerUPI)
	}
	text := fmt.Sprintf(
		"💸 <b>Paid content</b>\n\nPrice: <b>₹%.2f</b>\nPay to: %s\n\n"+
			"After paying, send your payment <b>screenshot</b> here.\nThe seller will review it and release the content.",
		d.Price, payTo,
	)
	b.sendMessage(ctx, chatID, text, nil)
}

// confirmSale settles an operator sale from the buyer's balance
func (b *Bot) confirmSale(ctx context.Context, cb *models.CallbackQuery, code string) {
	userID := cb.From.ID

	ok, batch, err := b.gate.Purchase(userID, code)
	if err == storage.ErrNotFound {
		b.editMessage(ctx, cb.Message, "❌ This content no longer exists.", nil)
		return
	}
	if err != nil {
		b.log.Error("purchase", "error", err, "code", code)
		return
	}
	if !ok {
		balance, _ := b.storage.Balance(userID)
		b.editMessage(ctx, cb.Message,
			fmt.Sprintf("❌ <b>Not enough credits.</b>\n\nPrice: ₹%.2f, your balance: ₹%.2f.\nTop up and try again.",
				batch.Price, balance),
			HomeKeyboard(),
		)
		return
	}

	b.editMessage(ctx, cb.Message, fmt.Sprintf("✅ Purchased for <b>₹%.2f</b>. Enjoy!", batch.Price), nil)
	if cb.Message.Message != nil {
		if err := b.delivery.SendBatch(ctx, cb.Message.Message.Chat.ID, batch); err != nil {
			b.log.Error("send batch", "error", err, "code", code)
		}
	}
}

// --- /redeem ---

func (b *Bot) redeemHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	if b.storage.IsBanned(userID) {
		return
	}

	code := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/redeem"))
	if code == "" {
		b.sendMessage(ctx, chatID, "Usage: <code>/redeem CODE</code>", nil)
		return
	}

	b.storage.EnsureAccount(userID)
	result, granted, err := b.redeem.Redeem(userID, code)
	if err != nil {
		b.log.Error("redeem", "error", err, "code", code)
		b.sendMessage(ctx, chatID, "❌ Something went wrong, please try again.", nil)
		return
	}

	switch result {
	case redeem.ResultOK:
		value, _ := b.storage.CreditValue()
		b.sendMessage(ctx, chatID,
			fmt.Sprintf("🎉 Code accepted! <b>%.2f credits</b> added to your wallet.", granted/value),
			HomeKeyboard(),
		)
	case redeem.ResultAlreadyUsed:
		b.sendMessage(ctx, chatID, "❌ You already used this code.", nil)
	default:
		b.sendMessage(ctx, chatID, "❌ Invalid or expired code.", nil)
	}
}

// --- Default handler: wizards, email intake, proof screenshots ---

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	msg := update.Message
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	if b.storage.IsBanned(userID) {
		return
	}

	if state := b.states.Get(userID); state != nil {
		switch state.State {
		case StateWaitPrice:
			b.handleWaitPrice(ctx, msg, text, state)
		case StateCollectFiles:
			b.handleCollectFile(ctx, msg, state)
		default:
			if b.isAdmin(userID) {
				b.handleAdminState(ctx, msg, text, state)
			}
		}
		return
	}

	if text != "" && b.reconciler.AwaitingEmail(userID) {
		b.handleEmailClaim(ctx, msg.Chat.ID, userID, text)
		return
	}

	if len(msg.Photo) > 0 {
		b.handleProofPhoto(ctx, msg)
	}
}

func (b *Bot) handleEmailClaim(ctx context.Context, chatID, userID int64, email string) {
	outcome, credited, err := b.reconciler.HandleClaim(userID, email)
	if err != nil {
		b.log.Error("handle claim", "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong, please try again.", nil)
		return
	}

	switch outcome {
	case payments.ClaimInvalidEmail:
		b.sendMessage(ctx, chatID, "❌ That doesn't look like an email. Send the exact email you paid with.", EmailKeyboard())
	case payments.ClaimCredited:
		value, _ := b.storage.CreditValue()
		b.sendMessage(ctx, chatID,
			fmt.Sprintf("✅ Payment found! <b>%.2f credits</b> added to your wallet.", credited/value),
			HomeKeyboard(),
		)
	default:
		b.sendMessage(ctx, chatID,
			"📝 Got it! Your credits will arrive automatically as soon as the payment reaches us.\n"+
				"Claims stay active for <b>48 hours</b>.",
			HomeKeyboard(),
		)
	}
}

func (b *Bot) handleProofPhoto(ctx context.Context, msg *models.Message) {
	userID := msg.From.ID

	sess, err := b.storage.GetPurchaseSession(userID)
	if err != nil || sess.Kind != storage.SessionKindProof || sess.BatchCode == "" {
		return
	}

	batch, err := b.storage.GetBatch(sess.BatchCode)
	if err != nil {
		b.storage.ClearPurchaseSession(userID)
		b.sendMessage(ctx, msg.Chat.ID, "❌ This content no longer exists.", nil)
		return
	}

	photoID := msg.Photo[len(msg.Photo)-1].FileID
	if _, err := b.storage.CreateProof(batch.OwnerID, userID, batch.Code, batch.Price, photoID); err != nil {
		b.log.Error("create proof", "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Something went wrong, please try again.", nil)
		return
	}
	b.storage.ClearPurchaseSession(userID)

	b.sendMessage(ctx, msg.Chat.ID,
		"📨 Screenshot sent to the seller for review.\nYou'll get the content as soon as it's approved.",
		nil,
	)
	b.delivery.Notify(ctx, batch.OwnerID,
		fmt.Sprintf("📬 New payment proof for <code>%s</code> (₹%.2f).\nUse /proof to review it.", batch.Code, batch.Price),
	)
}

// --- Batch creation wizard ---

func (b *Bot) newBatchHandler(policy string) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		userID := update.Message.From.ID
		chatID := update.Message.Chat.ID

		if policy != storage.PolicySpecial && !b.isAdmin(userID) {
			return
		}
		if b.storage.IsBanned(userID) {
			return
		}

		if policy == storage.PolicySpecial && !b.isAdmin(userID) {
			upi, _ := b.storage.UPI(userID)
			if upi == "" {
				b.sendMessage(ctx, chatID,
					"❌ Set your payout address first: <code>/setupi your@upi</code>",
					nil,
				)
				return
			}
		}

		data := WizardData{Policy: policy}

		if policy == storage.PolicySale || policy == storage.PolicySpecial {
			b.states.Set(userID, StateWaitPrice, data)
			b.sendMessage(ctx, chatID, "💰 Send the price in ₹ for this batch:", nil)
			return
		}

		b.states.Set(userID, StateCollectFiles, data)
		b.sendMessage(ctx, chatID,
			"📦 Send the files for this batch (photos, videos, documents or text).\nTap <b>Save Batch</b> when done.",
			BatchWizardKeyboard(),
		)
	}
}

func (b *Bot) handleWaitPrice(ctx context.Context, msg *models.Message, text string, state *UserState) {
	price, ok := parsePositiveFloat(text)
	if !ok {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Send a positive number, like <code>49</code> or <code>99.50</code>.", nil)
		return
	}

	state.Data.Price = price
	b.states.Set(msg.From.ID, StateCollectFiles, state.Data)

	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("Price set to <b>₹%.2f</b>.\n\n📦 Now send the files. Tap <b>Save Batch</b> when done.", price),
		BatchWizardKeyboard(),
	)
}

func (b *Bot) handleCollectFile(ctx context.Context, msg *models.Message, state *UserState) {
	file, ok := fileFromMessage(msg)
	if !ok {
		b.sendMessage(ctx, msg.Chat.ID, "❌ I can't store that message type. Send a photo, video, audio, document or text.", nil)
		return
	}

	state.Data.Files = append(state.Data.Files, file)
	b.states.Set(msg.From.ID, StateCollectFiles, state.Data)

	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ Added (<b>%d</b> so far). Send more or save.", len(state.Data.Files)),
		BatchWizardKeyboard(),
	)
}

func (b *Bot) saveBatch(ctx context.Context, cb *models.CallbackQuery, _ string) {
	userID := cb.From.ID

	state := b.states.Get(userID)
	if state == nil || state.State != StateCollectFiles {
		return
	}

	files := state.Data.Files
	if len(files) == 0 {
		b.editMessage(ctx, cb.Message, "❌ The batch is empty. Send at least one file first.", BatchWizardKeyboard())
		return
	}

	policy := state.Data.Policy
	price := state.Data.Price

	var (
		code    string
		created bool
	)
	for attempt := 0; attempt < 5 && !created; attempt++ {
		code = verify.RandomCode(6)
		switch err := b.storage.CreateBatch(code, policy, price, userID, files); err {
		case nil:
			created = true
		case storage.ErrAlreadyExists:
		default:
			b.log.Error("create batch", "error", err)
			b.editMessage(ctx, cb.Message, "❌ Something went wrong, please try again.", nil)
			return
		}
	}
	if !created {
		b.editMessage(ctx, cb.Message, "❌ Something went wrong, please try again.", nil)
		return
	}
	b.states.Clear(userID)

	link := b.deepLink(code)
	text := fmt.Sprintf(
		"✅ <b>Batch saved!</b>\n\nCode: <code>%s</code>\nItems: <b>%d</b>\nLink: %s",
		code, len(files), link,
	)
	if policy == storage.PolicyPublic && b.isAdmin(userID) {
		text += fmt.Sprintf("\nNo-verification link: %s", b.deepLink(bypassPrefix+code))
	}

	b.editMessage(ctx, cb.Message, text, BatchLinkKeyboard(link))
	b.log.Info("batch created", "owner_id", userID, "code", code, "policy", policy, "items", len(files))
}

func (b *Bot) cancelWizard(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.states.Clear(cb.From.ID)
	b.storage.ClearPurchaseSession(cb.From.ID)
	b.editMessage(ctx, cb.Message, "Cancelled.", HomeKeyboard())
}

func (b *Bot) cancelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.states.Clear(update.Message.From.ID)
	b.storage.ClearPurchaseSession(update.Message.From.ID)
	b.sendMessage(ctx, update.Message.Chat.ID, "Cancelled.", HomeKeyboard())
}

// --- Proof review ---

func (b *Bot) proofListHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	proofs, err := b.storage.ListProofs(userID)
	if err != nil {
		b.log.Error("list proofs", "error", err)
		return
	}
	if len(proofs) == 0 {
		b.sendMessage(ctx, chatID, "No pending payment proofs.", nil)
		return
	}

	for _, p := range proofs {
		caption := fmt.Sprintf(
			"Batch <code>%s</code> — ₹%.2f\nBuyer: <a href='tg://user?id=%d'>%d</a>",
			p.BatchCode, p.Price, p.BuyerID, p.BuyerID,
		)
		_, err := b.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:      chatID,
			Photo:       &models.InputFileString{Data: p.PhotoID},
			Caption:     caption,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: ProofReviewKeyboard(p.ID),
		})
		if err != nil {
			b.log.Error("send proof", "error", err, "proof_id", p.ID)
		}
	}
}

func (b *Bot) acceptProof(ctx context.Context, cb *models.CallbackQuery, proofID string) {
	proof, err := b.storage.ConsumeProof(proofID)
	if err == storage.ErrNotFound {
		b.editCaption(ctx, cb.Message, "Already handled by another review.")
		return
	}
	if err != nil {
		b.log.Error("consume proof", "error", err)
		return
	}
	if proof.OwnerID != cb.From.ID {
		return
	}

	b.editCaption(ctx, cb.Message, fmt.Sprintf("✅ Accepted — content sent to buyer %d.", proof.BuyerID))

	batch, err := b.storage.GetBatch(proof.BatchCode)
	if err != nil {
		b.delivery.Notify(ctx, proof.BuyerID, "❌ Your payment was accepted but the content no longer exists. Contact the seller.")
		return
	}
	b.delivery.Notify(ctx, proof.BuyerID, "✅ Your payment was accepted! Here is your content:")
	if err := b.delivery.SendBatch(ctx, proof.BuyerID, batch); err != nil {
		b.log.Error("send batch after proof", "error", err, "buyer_id", proof.BuyerID)
	}
}

func (b *Bot) rejectProof(ctx context.Context, cb *models.CallbackQuery, proofID string) {
	proof, err := b.storage.ConsumeProof(proofID)
	if err == storage.ErrNotFound {
		b.editCaption(ctx, cb.Message, "Already handled by another review.")
		return
	}
	if err != nil {
		b.log.Error("consume proof", "error", err)
		return
	}
	if proof.OwnerID != cb.From.ID {
		return
	}

	b.editCaption(ctx, cb.Message, "❌ Rejected.")
	b.delivery.Notify(ctx, proof.BuyerID,
		fmt.Sprintf("❌ Your payment proof for <code>%s</code> was rejected by the seller.", proof.BatchCode),
	)
}

func (b *Bot) editCaption(ctx context.Context, msg models.MaybeInaccessibleMessage, caption string) {
	if msg.Message == nil {
		return
	}
	_, err := b.bot.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Caption:   caption,
	})
	if err != nil {
		b.log.Error("edit caption", "error", err)
	}
}

// --- /setupi ---

func (b *Bot) setUPIHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	upi := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/setupi"))
	if upi == "" {
		b.sendMessage(ctx, chatID, "Usage: <code>/setupi your@upi</code>", nil)
		return
	}

	b.storage.EnsureAccount(userID)
	if err := b.storage.SetUPI(userID, upi); err != nil {
		b.log.Error("set upi", "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong, please try again.", nil)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Payout address set to <code>%s</code>.", upi), nil)
}

// --- Menu callbacks ---

func (b *Bot) showHome(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.storage.ClearPurchaseSession(cb.From.ID)
	b.editMessage(ctx, cb.Message, b.homeText(&cb.From), HomeKeyboard())
}

func (b *Bot) showCredits(ctx context.Context, cb *models.CallbackQuery, _ string) {
	userID := cb.From.ID
	balance, err := b.storage.Balance(userID)
	if err != nil {
		b.log.Error("balance", "error", err)
		return
	}
	value, _ := b.storage.CreditValue()

	text := fmt.Sprintf(
		"💰 <b>Your wallet</b>\n\nBalance: <b>%.2f credits</b> (₹%.2f)",
		balance/value, balance,
	)
	b.editMessage(ctx, cb.Message, text, HomeKeyboard())
}

func (b *Bot) showInvoice(ctx context.Context, cb *models.CallbackQuery, _ string) {
	userID := cb.From.ID
	if err := b.reconciler.BeginInvoice(userID); err != nil {
		b.log.Error("begin invoice", "error", err)
		return
	}

	link, _ := b.storage.PaymentLink()
	text := "🛒 <b>Buy credits</b>\n\n" +
		"1️⃣ Open the payment page and pay any amount\n" +
		"2️⃣ Tap <b>I Have Paid</b>\n" +
		"3️⃣ Send the email you paid with\n\n" +
		"Credits are added automatically."
	b.editMessage(ctx, cb.Message, text, InvoiceKeyboard(link))
}

func (b *Bot) handlePaid(ctx context.Context, cb *models.CallbackQuery, _ string) {
	userID := cb.From.ID

	ok, err := b.reconciler.MarkPaid(userID)
	if err != nil {
		b.log.Error("mark paid", "error", err)
		return
	}
	if !ok {
		// Stale button; reopen the invoice flow and mark it paid
		b.reconciler.BeginInvoice(userID)
		b.reconciler.MarkPaid(userID)
	}

	b.editMessage(ctx, cb.Message,
		"📧 Send the <b>email</b> you used on the payment page.",
		EmailKeyboard(),
	)
}

func (b *Bot) showPlans(ctx context.Context, cb *models.CallbackQuery, _ string) {
	b.editMessage(ctx, cb.Message,
		"⭐ <b>Premium plans</b>\n\nPremium unlocks all premium content and skips verification.\nPlans are paid from your credit balance.",
		b.plansKeyboard(),
	)
}

func (b *Bot) plansKeyboard() *models.InlineKeyboardMarkup {
	plans, err := b.storage.GetPlans()
	if err != nil {
		b.log.Error("get plans", "error", err)
		plans = map[string]float64{}
	}
	return PlansKeyboard(plans)
}

func (b *Bot) showPlanInfo(ctx context.Context, cb *models.CallbackQuery, plan string) {
	plans, err := b.storage.GetPlans()
	if err != nil {
		return
	}
	price, ok := plans[plan]
	if !ok {
		b.editMessage(ctx, cb.Message, "❌ This plan is no longer available.", b.plansKeyboard())
		return
	}

	balance, _ := b.storage.Balance(cb.From.ID)
	text := fmt.Sprintf(
		"⭐ <b>%s premium</b>\n\nPrice: <b>₹%.2f</b>\nYour balance: <b>₹%.2f</b>",
		planLabel(plan), price, balance,
	)
	b.editMessage(ctx, cb.Message, text, ConfirmPlanKeyboard(plan))
}

func (b *Bot) confirmPlan(ctx context.Context, cb *models.CallbackQuery, plan string) {
	userID := cb.From.ID

	plans, err := b.storage.GetPlans()
	if err != nil {
		return
	}
	price, ok := plans[plan]
	if !ok {
		b.editMessage(ctx, cb.Message, "❌ This plan is no longer available.", b.plansKeyboard())
		return
	}

	paid, err := b.storage.DebitIfAtLeast(userID, price)
	if err != nil {
		b.log.Error("plan debit", "error", err)
		return
	}
	if !paid {
		balance, _ := b.storage.Balance(userID)
		b.editMessage(ctx, cb.Message,
			fmt.Sprintf("❌ <b>Not enough credits.</b>\n\nPrice: ₹%.2f, your balance: ₹%.2f.", price, balance),
			InvoiceKeyboard(""),
		)
		return
	}

	days := planDays(plan)
	if err := b.storage.SetPremium(userID, days); err != nil {
		b.log.Error("set premium", "error", err)
		return
	}

	until := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("👑 <b>Premium active!</b>\n\nValid until <b>%s</b>.", until.Format("02 Jan 2006")),
		HomeKeyboard(),
	)
	b.log.Info("premium purchased", "user_id", userID, "plan", plan, "price", price)
}

func (b *Bot) showPremiumStatus(ctx context.Context, cb *models.CallbackQuery, _ string) {
	until, ok := b.storage.PremiumUntil(cb.From.ID)
	if !ok || time.Now().After(until) {
		b.editMessage(ctx, cb.Message,
			"You don't have premium yet.\nPick a plan to unlock everything 👇",
			b.plansKeyboard(),
		)
		return
	}
	b.editMessage(ctx, cb.Message,
		fmt.Sprintf("👑 <b>Premium active</b> until <b>%s</b>.", until.Format("02 Jan 2006 15:04")),
		HomeKeyboard(),
	)
}

// --- Helpers ---

func (b *Bot) deepLink(payload string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.cfg.BotUsername, payload)
}

func fileFromMessage(msg *models.Message) (storage.BatchFile, bool) {
	switch {
	case len(msg.Photo) > 0:
		return storage.BatchFile{Kind: "photo", FileID: msg.Photo[len(msg.Photo)-1].FileID}, true
	case msg.Video != nil:
		return storage.BatchFile{Kind: "video", FileID: msg.Video.FileID}, true
	case msg.Audio != nil:
		return storage.BatchFile{Kind: "audio", FileID: msg.Audio.FileID}, true
	case msg.Document != nil:
		return storage.BatchFile{Kind: "document", FileID: msg.Document.FileID}, true
	case strings.TrimSpace(msg.Text) != "":
		return storage.BatchFile{Kind: "text", FileID: msg.Text}, true
	}
	return storage.BatchFile{}, false
}

func parsePositiveFloat(s string) (float64, bool) {
	f := payments.SanitizeAmount(strings.Replace(s, ",", ".", 1))
	return f, f > 0
}
