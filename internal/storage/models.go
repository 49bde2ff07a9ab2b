package storage

import "time"

// Batch access policies
const (
	PolicyPremium = "premium"
	PolicyPublic  = "public"
	PolicySale    = "sale"
	PolicySpecial = "special"
)

// Purchase session kinds and phases. The session is the persisted
// replacement for in-memory "what is this user in the middle of" state.
const (
	SessionKindCredit = "credit"
	SessionKindProof  = "proof"

	PhaseViewing = "viewing"
	PhasePending = "pending"
)

// Account is a bot user with balance and entitlements
type Account struct {
	UserID            int64
	JoinedAt          time.Time
	Banned            bool
	Credits           float64
	PremiumUntil      *time.Time
	VerificationUntil *time.Time
	BonusPercent      float64
	BonusUntil        *time.Time
	ShortenerIndex    int
	UPIID             string
}

// Batch is an owner-tagged bundle of content items behind one access policy
type Batch struct {
	Code      string
	Policy    string
	Price     float64
	OwnerID   int64
	Files     []BatchFile
	CreatedAt time.Time
}

// BatchFile is one content item; the payload is an opaque file id or text
type BatchFile struct {
	Kind   string // text, photo, video, audio, document
	FileID string
}

// RedeemCode is an admin-issued one-time-per-account code
type RedeemCode struct {
	Code         string
	Credits      float64
	BonusPercent float64
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// PendingClaim is a user-asserted payment email awaiting the webhook
type PendingClaim struct {
	Email     string
	UserID    int64
	CreatedAt time.Time
}

// UnclaimedPayment is a webhook-reported payment awaiting a user claim
type UnclaimedPayment struct {
	ID         string
	Email      string
	Amount     float64
	ReceivedAt time.Time
}

// PaymentProof is a buyer's screenshot awaiting the batch owner's review
type PaymentProof struct {
	ID        string
	OwnerID   int64
	BuyerID   int64
	BatchCode string
	Price     float64
	PhotoID   string
	CreatedAt time.Time
}

// PurchaseSession tracks where a user is in the credit-purchase or
// proof-upload flow
type PurchaseSession struct {
	UserID    int64
	Kind      string
	Phase     string
	BatchCode string
	CreatedAt time.Time
}

// ScheduledDeletion is one delivered message queued for auto-deletion
type ScheduledDeletion struct {
	ID        int64
	ChatID    int64
	MessageID int
	DeleteAt  time.Time
}

// ShortenerSlot is one configured ad-shortener service
type ShortenerSlot struct {
	API    string `json:"api"`
	Domain string `json:"domain"`
}

// ShortenerConfig is the ad-verification configuration
type ShortenerConfig struct {
	Slots         []ShortenerSlot `json:"slots"`
	ValidityHours int             `json:"validity"`
	Active        bool            `json:"active"`
	TutorialURL   string          `json:"tutorial"`
}
