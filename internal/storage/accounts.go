package storage

import (
	"database/sql"
	"time"
)

// EnsureAccount creates an account row on first interaction
func (s *Storage) EnsureAccount(userID int64) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO accounts (user_id, joined_at) VALUES (?, ?)",
		userID, time.Now().Unix(),
	)
	return err
}

// GetAccount returns an account by id
func (s *Storage) GetAccount(userID int64) (*Account, error) {
	var (
		a                                     Account
		joinedAt                              int64
		banned                                int
		premiumUntil, verifyUntil, bonusUntil sql.NullInt64
		upi                                   sql.NullString
	)
	err := s.db.QueryRow(
		`SELECT user_id, joined_at, banned, credits, premium_until, verification_until,
		        bonus_percent, bonus_until, shortener_index, upi_id
		 FROM accounts WHERE user_id = ?`,
		userID,
	).Scan(&a.UserID, &joinedAt, &banned, &a.Credits, &premiumUntil, &verifyUntil,
		&a.BonusPercent, &bonusUntil, &a.ShortenerIndex, &upi)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.JoinedAt = time.Unix(joinedAt, 0)
	a.Banned = banned != 0
	if premiumUntil.Valid {
		t := time.Unix(premiumUntil.Int64, 0)
		a.PremiumUntil = &t
	}
	if verifyUntil.Valid {
		t := time.Unix(verifyUntil.Int64, 0)
		a.VerificationUntil = &t
	}
	if bonusUntil.Valid {
		t := time.Unix(bonusUntil.Int64, 0)
		a.BonusUntil = &t
	}
	if upi.Valid {
		a.UPIID = upi.String
	}
	return &a, nil
}

// CountAccounts returns the total number of accounts
func (s *Storage) CountAccounts() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count)
	return count, err
}

// AllAccountIDs returns every known account id
func (s *Storage) AllAccountIDs() ([]int64, error) {
	rows, err := s.db.Query("SELECT user_id FROM accounts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsBanned reports whether a user is banned
func (s *Storage) IsBanned(userID int64) bool {
	var banned int
	err := s.db.QueryRow("SELECT banned FROM accounts WHERE user_id = ?", userID).Scan(&banned)
	return err == nil && banned != 0
}

// SetBanned bans or unbans a user
func (s *Storage) SetBanned(userID int64, banned bool) error {
	b := 0
	if banned {
		b = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, joined_at, banned) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET banned = excluded.banned`,
		userID, time.Now().Unix(), b,
	)
	return err
}

// --- Ledger ---

// Balance returns the credit balance in currency units; 0 for unknown accounts
func (s *Storage) Balance(userID int64) (float64, error) {
	var credits float64
	err := s.db.QueryRow("SELECT credits FROM accounts WHERE user_id = ?", userID).Scan(&credits)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return credits, err
}

// AddCredits adds delta (may be negative) to a user's balance. The
// increment is a single statement so concurrent writers cannot lose
// updates; overdraft prevention is the caller's job.
func (s *Storage) AddCredits(userID int64, delta float64) error {
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, joined_at, credits) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET credits = credits + excluded.credits`,
		userID, time.Now().Unix(), delta,
	)
	return err
}

// DebitIfAtLeast debits amount only if the balance covers it, in one
// atomic statement. Returns false when the balance was insufficient.
func (s *Storage) DebitIfAtLeast(userID int64, amount float64) (bool, error) {
	result, err := s.db.Exec(
		"UPDATE accounts SET credits = credits - ? WHERE user_id = ? AND credits >= ?",
		amount, userID, amount,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// --- Entitlements ---

// IsPremium reports whether premium is currently active. An expired
// value is cleared lazily on read.
func (s *Storage) IsPremium(userID int64) bool {
	var until sql.NullInt64
	err := s.db.QueryRow("SELECT premium_until FROM accounts WHERE user_id = ?", userID).Scan(&until)
	if err != nil || !until.Valid {
		return false
	}
	if time.Now().Unix() >= until.Int64 {
		s.db.Exec("UPDATE accounts SET premium_until = NULL WHERE user_id = ? AND premium_until = ?",
			userID, until.Int64)
		return false
	}
	return true
}

// PremiumUntil returns the premium expiry, if any
func (s *Storage) PremiumUntil(userID int64) (time.Time, bool) {
	var until sql.NullInt64
	err := s.db.QueryRow("SELECT premium_until FROM accounts WHERE user_id = ?", userID).Scan(&until)
	if err != nil || !until.Valid {
		return time.Time{}, false
	}
	return time.Unix(until.Int64, 0), true
}

// SetPremium sets premium for the given number of days, overwriting any
// prior expiry (no stacking).
func (s *Storage) SetPremium(userID int64, days int) error {
	until := time.Now().Add(time.Duration(days) * 24 * time.Hour).Unix()
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, joined_at, premium_until) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET premium_until = excluded.premium_until`,
		userID, time.Now().Unix(), until,
	)
	return err
}

// HasVerification reports whether the ad-verification window is open.
// Premium and the global toggle are layered on top by the gate.
func (s *Storage) HasVerification(userID int64) bool {
	var until sql.NullInt64
	err := s.db.QueryRow("SELECT verification_until FROM accounts WHERE user_id = ?", userID).Scan(&until)
	if err != nil || !until.Valid {
		return false
	}
	return time.Now().Unix() < until.Int64
}

// SetVerified opens the ad-verification window for the given hours
func (s *Storage) SetVerified(userID int64, hours int) error {
	until := time.Now().Add(time.Duration(hours) * time.Hour).Unix()
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, joined_at, verification_until) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET verification_until = excluded.verification_until`,
		userID, time.Now().Unix(), until,
	)
	return err
}

// BonusPercent returns the currently effective bonus percentage, 0 once
// the bonus window has passed.
func (s *Storage) BonusPercent(userID int64) (float64, error) {
	var (
		percent float64
		until   sql.NullInt64
	)
	err := s.db.QueryRow(
		"SELECT bonus_percent, bonus_until FROM accounts WHERE user_id = ?", userID,
	).Scan(&percent, &until)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !until.Valid || time.Now().Unix() >= until.Int64 {
		return 0, nil
	}
	return percent, nil
}

// SetBonus sets the purchase bonus percentage until the given time
func (s *Storage) SetBonus(userID int64, percent float64, until time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, joined_at, bonus_percent, bonus_until) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			bonus_percent = excluded.bonus_percent,
			bonus_until = excluded.bonus_until`,
		userID, time.Now().Unix(), percent, until.Unix(),
	)
	return err
}

// NextShortenerIndex rotates the account's shortener slot index modulo
// slots and returns the selected index. The rotation is one statement so
// concurrent gating events still distribute evenly.
func (s *Storage) NextShortenerIndex(userID int64, slots int) (int, error) {
	if slots <= 0 {
		return 0, nil
	}
	var idx int
	err := s.db.QueryRow(
		`INSERT INTO accounts (user_id, joined_at, shortener_index) VALUES (?, ?, 0)
		 ON CONFLICT(user_id) DO UPDATE SET shortener_index = (shortener_index + 1) % ?
		 RETURNING shortener_index`,
		userID, time.Now().Unix(), slots,
	).Scan(&idx)
	return idx, err
}

// UPI returns the user's payout address, empty if unset
func (s *Storage) UPI(userID int64) (string, error) {
	var upi sql.NullString
	err := s.db.QueryRow("SELECT upi_id FROM accounts WHERE user_id = ?", userID).Scan(&upi)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return upi.String, nil
}

// SetUPI sets or clears the user's payout address
func (s *Storage) SetUPI(userID int64, upi string) error {
	var val interface{}
	if upi != "" {
		val = upi
	}
	_, err := s.db.Exec(
		`INSERT INTO accounts (user_id, joined_at, upi_id) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET upi_id = excluded.upi_id`,
		userID, time.Now().Unix(), val,
	)
	return err
}

// --- Consumed redeem codes ---

// MarkRedeemUsed records that a user consumed a code, returns true if it
// was not already in the set.
func (s *Storage) MarkRedeemUsed(userID int64, code string) (bool, error) {
	result, err := s.db.Exec(
		"INSERT OR IGNORE INTO used_redeems (user_id, code) VALUES (?, ?)",
		userID, code,
	)
	if err != nil {
		return false, err
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// HasUsedRedeem reports whether a user already consumed a code
func (s *Storage) HasUsedRedeem(userID int64, code string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM used_redeems WHERE user_id = ? AND code = ?",
		userID, code,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
