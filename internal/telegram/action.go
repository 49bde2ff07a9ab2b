package telegram

import "strings"

// ActionKind enumerates every inline-button action the bot understands.
// Callback data is "<name>" or "<name>:<arg>"; parsing resolves the
// name to a kind once, and dispatch goes through a handler table keyed
// by kind instead of string matching at each call site.
type ActionKind int

const (
	ActionUnknown ActionKind = iota

	ActionHome
	ActionCredits
	ActionBuyCredits
	ActionPaid
	ActionInvoice
	ActionPlans
	ActionPlanInfo
	ActionPlanConfirm
	ActionPremiumStatus
	ActionSaleConfirm
	ActionBatchSave
	ActionCancel
	ActionProofAccept
	ActionProofReject

	ActionAdminPanel
	ActionRedeemMenu
	ActionRedeemCreate
	ActionRedeemDelete
	ActionRedeemList
	ActionCreditValue
	ActionGrantCredits
	ActionBan
	ActionUnban
	ActionVerifyToggle
	ActionShortenerAdd
	ActionShortenerClear
	ActionShortenerHours
	ActionShortenerTutorial
	ActionDeleteDelay
	ActionPaymentLink
)

// Action is one parsed callback
type Action struct {
	Kind ActionKind
	Arg  string
}

var actionNames = map[string]ActionKind{
	"home":       ActionHome,
	"credits":    ActionCredits,
	"buy":        ActionBuyCredits,
	"paid":       ActionPaid,
	"invoice":    ActionInvoice,
	"plans":      ActionPlans,
	"plan":       ActionPlanInfo,
	"plan_ok":    ActionPlanConfirm,
	"premium":    ActionPremiumStatus,
	"sale_ok":    ActionSaleConfirm,
	"batch_save": ActionBatchSave,
	"cancel":     ActionCancel,
	"proof_ok":   ActionProofAccept,
	"proof_no":   ActionProofReject,

	"admin":     ActionAdminPanel,
	"rd_menu":   ActionRedeemMenu,
	"rd_new":    ActionRedeemCreate,
	"rd_del":    ActionRedeemDelete,
	"rd_list":   ActionRedeemList,
	"cr_value":  ActionCreditValue,
	"cr_grant":  ActionGrantCredits,
	"ban":       ActionBan,
	"unban":     ActionUnban,
	"vf_toggle": ActionVerifyToggle,
	"sh_add":    ActionShortenerAdd,
	"sh_clear":  ActionShortenerClear,
	"sh_hours":  ActionShortenerHours,
	"sh_tut":    ActionShortenerTutorial,
	"del_delay": ActionDeleteDelay,
	"pay_link":  ActionPaymentLink,
}

// adminActions are dispatched only for the operator
var adminActions = map[ActionKind]bool{
	ActionAdminPanel:        true,
	ActionRedeemMenu:        true,
	ActionRedeemCreate:      true,
	ActionRedeemDelete:      true,
	ActionRedeemList:        true,
	ActionCreditValue:       true,
	ActionGrantCredits:      true,
	ActionBan:               true,
	ActionUnban:             true,
	ActionVerifyToggle:      true,
	ActionShortenerAdd:      true,
	ActionShortenerClear:    true,
	ActionShortenerHours:    true,
	ActionShortenerTutorial: true,
	ActionDeleteDelay:       true,
	ActionPaymentLink:       true,
}

func parseAction(data string) Action {
	name, arg, _ := strings.Cut(data, ":")
	return Action{Kind: actionNames[name], Arg: arg}
}
