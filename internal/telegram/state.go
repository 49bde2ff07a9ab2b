package telegram

import (
	"sync"

	"github.com/sahilkl/filegate/internal/storage"
)

// WizardData carries the values a multi-step wizard has collected so
// far. Each wizard reads and writes only its own fields.
type WizardData struct {
	// batch creation
	Policy string
	Price  float64
	Files  []storage.BatchFile

	// redeem code creation
	RedeemName    string
	RedeemCredits float64
	RedeemBonus   float64

	// credit grant
	GrantUser int64

	// shortener slot
	ShortenerDomain string
}

// UserState is one user's position in a wizard
type UserState struct {
	State string
	Data  WizardData
}

// StateManager tracks in-flight wizards per user
type StateManager struct {
	mu     sync.RWMutex
	states map[int64]*UserState
}

// NewStateManager creates a new state manager
func NewStateManager() *StateManager {
	return &StateManager{
		states: make(map[int64]*UserState),
	}
}

// Set sets a user's state
func (sm *StateManager) Set(userID int64, state string, data WizardData) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[userID] = &UserState{
		State: state,
		Data:  data,
	}
}

// Get returns a user's current state
func (sm *StateManager) Get(userID int64) *UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.states[userID]
}

// Clear removes a user's state
func (sm *StateManager) Clear(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.states, userID)
}

// State constants
const (
	// Batch creation wizard
	StateWaitPrice    = "wait_price"
	StateCollectFiles = "collect_files"

	// Admin redeem code wizard
	StateWaitRedeemName    = "wait_redeem_name"
	StateWaitRedeemCredits = "wait_redeem_credits"
	StateWaitRedeemBonus   = "wait_redeem_bonus"
	StateWaitRedeemHours   = "wait_redeem_hours"
	StateWaitRedeemDelete  = "wait_redeem_delete"

	// Admin account tools
	StateWaitGrantUser   = "wait_grant_user"
	StateWaitGrantAmount = "wait_grant_amount"
	StateWaitBanID       = "wait_ban_id"
	StateWaitUnbanID     = "wait_unban_id"

	// Admin settings
	StateWaitCreditValue       = "wait_credit_value"
	StateWaitDeleteDelay       = "wait_delete_delay"
	StateWaitPaymentLink       = "wait_payment_link"
	StateWaitShortenerDomain   = "wait_shortener_domain"
	StateWaitShortenerAPI      = "wait_shortener_api"
	StateWaitShortenerHours    = "wait_shortener_hours"
	StateWaitShortenerTutorial = "wait_shortener_tutorial"
)
