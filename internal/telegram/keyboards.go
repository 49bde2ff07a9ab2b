package telegram

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// HomeKeyboard returns the main menu keyboard
func HomeKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💰 My Credits", CallbackData: "credits"},
				{Text: "🛒 Buy Credits", CallbackData: "buy"},
			},
			{
				{Text: "⭐ Premium Plans", CallbackData: "plans"},
				{Text: "👑 My Premium", CallbackData: "premium"},
			},
		},
	}
}

// BackKeyboard returns a single back-to-menu button
func BackKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⬅️ Back", CallbackData: "home"},
			},
		},
	}
}

// InvoiceKeyboard is shown with the payment page link
func InvoiceKeyboard(paymentLink string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	if paymentLink != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "💳 Open Payment Page", URL: paymentLink},
		})
	}
	rows = append(rows,
		[]models.InlineKeyboardButton{
			{Text: "✅ I Have Paid", CallbackData: "paid"},
		},
		[]models.InlineKeyboardButton{
			{Text: "⬅️ Back", CallbackData: "home"},
		},
	)
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// EmailKeyboard is shown while waiting for the payment email
func EmailKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "⬅️ Back", CallbackData: "invoice"},
			},
		},
	}
}

// PlansKeyboard lists premium plans, one button per plan
func PlansKeyboard(plans map[string]float64) *models.InlineKeyboardMarkup {
	names := make([]string, 0, len(plans))
	for name := range plans {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return planDays(names[i]) < planDays(names[j])
	})

	var rows [][]models.InlineKeyboardButton
	for _, name := range names {
		rows = append(rows, []models.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("%s — ₹%.0f", planLabel(name), plans[name]),
				CallbackData: fmt.Sprintf("plan:%s", name),
			},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: "home"},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ConfirmPlanKeyboard asks the user to confirm a plan purchase
func ConfirmPlanKeyboard(plan string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Confirm", CallbackData: fmt.Sprintf("plan_ok:%s", plan)},
				{Text: "❌ Cancel", CallbackData: "plans"},
			},
		},
	}
}

// ConfirmSaleKeyboard asks the buyer to confirm a credit purchase
func ConfirmSaleKeyboard(code string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Buy Now", CallbackData: fmt.Sprintf("sale_ok:%s", code)},
				{Text: "❌ Cancel", CallbackData: "home"},
			},
		},
	}
}

// VerificationKeyboard shows the ad link plus retry and tutorial
func VerificationKeyboard(verifyURL, retryURL, tutorialURL string) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{
			{Text: "🔓 Verify Now", URL: verifyURL},
		},
		{
			{Text: "🔄 Try Again", URL: retryURL},
		},
	}
	if tutorialURL != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "❓ How To Verify", URL: tutorialURL},
		})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// BatchWizardKeyboard is shown while collecting batch files
func BatchWizardKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💾 Save Batch", CallbackData: "batch_save"},
				{Text: "❌ Cancel", CallbackData: "cancel"},
			},
		},
	}
}

// ProofReviewKeyboard is attached to each pending proof screenshot
func ProofReviewKeyboard(proofID string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Accept", CallbackData: fmt.Sprintf("proof_ok:%s", proofID)},
				{Text: "❌ Reject", CallbackData: fmt.Sprintf("proof_no:%s", proofID)},
			},
		},
	}
}

// AdminKeyboard returns the operator panel keyboard
func AdminKeyboard(verificationActive bool) *models.InlineKeyboardMarkup {
	toggle := "🔴 Verification: OFF"
	if verificationActive {
		toggle = "🟢 Verification: ON"
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🎟 Redeem Codes", CallbackData: "rd_menu"},
			},
			{
				{Text: "➕ Grant Credits", CallbackData: "cr_grant"},
				{Text: "💱 Credit Value", CallbackData: "cr_value"},
			},
			{
				{Text: "🚫 Ban", CallbackData: "ban"},
				{Text: "♻️ Unban", CallbackData: "unban"},
			},
			{
				{Text: toggle, CallbackData: "vf_toggle"},
				{Text: "⏱ Delete Delay", CallbackData: "del_delay"},
			},
			{
				{Text: "➕ Shortener", CallbackData: "sh_add"},
				{Text: "🧹 Clear Shorteners", CallbackData: "sh_clear"},
			},
			{
				{Text: "🕐 Validity Hours", CallbackData: "sh_hours"},
				{Text: "🎬 Tutorial Link", CallbackData: "sh_tut"},
			},
			{
				{Text: "🔗 Payment Link", CallbackData: "pay_link"},
			},
		},
	}
}

// RedeemMenuKeyboard returns the redeem code management keyboard
func RedeemMenuKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "➕ Create", CallbackData: "rd_new"},
				{Text: "🗑 Delete", CallbackData: "rd_del"},
			},
			{
				{Text: "📋 List", CallbackData: "rd_list"},
			},
			{
				{Text: "⬅️ Back", CallbackData: "admin"},
			},
		},
	}
}

// BatchLinkKeyboard links straight to a freshly created batch
func BatchLinkKeyboard(url string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔗 Open Link", URL: url},
			},
		},
	}
}

// planDays converts a plan name to its duration: "7" and "15" are days,
// "1M" and "6M" are months.
func planDays(name string) int {
	if n, ok := strings.CutSuffix(name, "M"); ok {
		months, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return months * 30
	}
	days, err := strconv.Atoi(name)
	if err != nil {
		return 0
	}
	return days
}

func planLabel(name string) string {
	if n, ok := strings.CutSuffix(name, "M"); ok {
		if n == "1" {
			return "1 month"
		}
		return n + " months"
	}
	return name + " days"
}
