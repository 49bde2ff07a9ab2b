package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// TTLs enforced by read-side freshness checks plus the sweep. SQLite has
// no native document expiry, so both sides use the same cutoffs.
const (
	TokenTTL     = 20 * time.Minute
	ClaimTTL     = 48 * time.Hour
	UnclaimedTTL = 30 * 24 * time.Hour
)

// Storage handles all database operations
type Storage struct {
	db *sql.DB
}

// New creates a new Storage instance and initializes the database
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			user_id INTEGER PRIMARY KEY,
			joined_at INTEGER NOT NULL,
			banned INTEGER NOT NULL DEFAULT 0,
			credits REAL NOT NULL DEFAULT 0,
			premium_until INTEGER,
			verification_until INTEGER,
			bonus_percent REAL NOT NULL DEFAULT 0,
			bonus_until INTEGER,
			shortener_index INTEGER NOT NULL DEFAULT -1,
			upi_id TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS used_redeems (
			user_id INTEGER NOT NULL,
			code TEXT NOT NULL,
			PRIMARY KEY (user_id, code)
		)`,

		`CREATE TABLE IF NOT EXISTS batches (
			code TEXT PRIMARY KEY,
			policy TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			owner_id INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS batch_files (
			batch_code TEXT NOT NULL,
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			file_id TEXT NOT NULL,
			PRIMARY KEY (batch_code, position)
		)`,

		`CREATE TABLE IF NOT EXISTS verification_tokens (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS redeem_codes (
			code TEXT PRIMARY KEY,
			credits REAL NOT NULL DEFAULT 0,
			bonus_percent REAL NOT NULL DEFAULT 0,
			expires_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS pending_claims (
			email TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS unclaimed_payments (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			amount REAL NOT NULL,
			received_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unclaimed_email ON unclaimed_payments(email)`,

		`CREATE TABLE IF NOT EXISTS payment_proofs (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			buyer_id INTEGER NOT NULL,
			batch_code TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0,
			photo_id TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_proofs_owner ON payment_proofs(owner_id)`,

		`CREATE TABLE IF NOT EXISTS purchase_sessions (
			user_id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			phase TEXT NOT NULL,
			batch_code TEXT,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS scheduled_deletions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			delete_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deletions_due ON scheduled_deletions(delete_at)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// --- Settings ---

func (s *Storage) getSetting(key string, out interface{}) (bool, error) {
	var raw string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(raw), out)
}

func (s *Storage) saveSetting(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw),
	)
	return err
}

// GetShortenerConfig returns the ad-shortener configuration
func (s *Storage) GetShortenerConfig() (ShortenerConfig, error) {
	cfg := ShortenerConfig{ValidityHours: 12}
	_, err := s.getSetting("shortener", &cfg)
	return cfg, err
}

// SaveShortenerConfig persists the ad-shortener configuration
func (s *Storage) SaveShortenerConfig(cfg ShortenerConfig) error {
	return s.saveSetting("shortener", cfg)
}

// GetPlans returns premium plan prices in currency units, keyed by plan name
func (s *Storage) GetPlans() (map[string]float64, error) {
	plans := map[string]float64{}
	ok, err := s.getSetting("plans", &plans)
	if err != nil {
		return nil, err
	}
	if !ok {
		plans = map[string]float64{"7": 50, "15": 80, "1M": 120, "6M": 500}
	}
	return plans, nil
}

// SavePlans persists premium plan prices
func (s *Storage) SavePlans(plans map[string]float64) error {
	return s.saveSetting("plans", plans)
}

// CreditValue returns the currency value of one credit
func (s *Storage) CreditValue() (float64, error) {
	v := struct {
		Value float64 `json:"value"`
	}{Value: 1.0}
	_, err := s.getSetting("credit", &v)
	if err != nil {
		return 1.0, err
	}
	if v.Value <= 0 {
		v.Value = 1.0
	}
	return v.Value, nil
}

// SetCreditValue sets the currency value of one credit
func (s *Storage) SetCreditValue(value float64) error {
	return s.saveSetting("credit", struct {
		Value float64 `json:"value"`
	}{Value: value})
}

// DeleteDelay returns how long delivered content stays before auto-deletion
func (s *Storage) DeleteDelay() (time.Duration, error) {
	v := struct {
		Minutes int `json:"minutes"`
	}{Minutes: 30}
	_, err := s.getSetting("delete", &v)
	return time.Duration(v.Minutes) * time.Minute, err
}

// SetDeleteDelay sets the auto-deletion delay in minutes
func (s *Storage) SetDeleteDelay(minutes int) error {
	return s.saveSetting("delete", struct {
		Minutes int `json:"minutes"`
	}{Minutes: minutes})
}

// PaymentLink returns the external payment page URL
func (s *Storage) PaymentLink() (string, error) {
	link := ""
	_, err := s.getSetting("payment_link", &link)
	return link, err
}

// SetPaymentLink sets the external payment page URL
func (s *Storage) SetPaymentLink(link string) error {
	return s.saveSetting("payment_link", link)
}
