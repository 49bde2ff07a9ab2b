package storage

import (
	"database/sql"
	"time"
)

// CreateRedeemCode allocates a code. Collision is checked against live
// codes only: an expired row with the same name is evicted first so the
// name can be reissued.
func (s *Storage) CreateRedeemCode(code string, credits, bonusPercent float64, expiresAt time.Time) error {
	now := time.Now().Unix()
	if _, err := s.db.Exec(
		"DELETE FROM redeem_codes WHERE code = ? AND expires_at <= ?", code, now,
	); err != nil {
		return err
	}

	result, err := s.db.Exec(
		`INSERT OR IGNORE INTO redeem_codes (code, credits, bonus_percent, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		code, credits, bonusPercent, expiresAt.Unix(), now,
	)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetRedeemCode returns a code regardless of expiry; the caller decides
// how to surface an expired one.
func (s *Storage) GetRedeemCode(code string) (*RedeemCode, error) {
	var (
		r                    RedeemCode
		expiresAt, createdAt int64
	)
	err := s.db.QueryRow(
		"SELECT code, credits, bonus_percent, expires_at, created_at FROM redeem_codes WHERE code = ?",
		code,
	).Scan(&r.Code, &r.Credits, &r.BonusPercent, &expiresAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.ExpiresAt = time.Unix(expiresAt, 0)
	r.CreatedAt = time.Unix(createdAt, 0)
	return &r, nil
}

// DeleteRedeemCode removes a code, reporting whether it existed
func (s *Storage) DeleteRedeemCode(code string) (bool, error) {
	result, err := s.db.Exec("DELETE FROM redeem_codes WHERE code = ?", code)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListRedeemCodes returns all live codes, newest first
func (s *Storage) ListRedeemCodes() ([]RedeemCode, error) {
	rows, err := s.db.Query(
		`SELECT code, credits, bonus_percent, expires_at, created_at
		 FROM redeem_codes WHERE expires_at > ? ORDER BY created_at DESC`,
		time.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []RedeemCode
	for rows.Next() {
		var (
			r                    RedeemCode
			expiresAt, createdAt int64
		)
		if err := rows.Scan(&r.Code, &r.Credits, &r.BonusPercent, &expiresAt, &createdAt); err != nil {
			return nil, err
		}
		r.ExpiresAt = time.Unix(expiresAt, 0)
		r.CreatedAt = time.Unix(createdAt, 0)
		codes = append(codes, r)
	}
	return codes, rows.Err()
}

// DeleteExpiredRedeemCodes drops codes past their expiry
func (s *Storage) DeleteExpiredRedeemCodes() (int64, error) {
	result, err := s.db.Exec("DELETE FROM redeem_codes WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PruneUsedRedeems removes consumed-code entries whose code is no longer
// live, so the per-account set does not grow without bound.
func (s *Storage) PruneUsedRedeems() (int64, error) {
	result, err := s.db.Exec(
		"DELETE FROM used_redeems WHERE code NOT IN (SELECT code FROM redeem_codes)",
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ClearExpiredBonuses zeroes bonus fields whose window has passed
func (s *Storage) ClearExpiredBonuses() (int64, error) {
	result, err := s.db.Exec(
		"UPDATE accounts SET bonus_percent = 0, bonus_until = NULL WHERE bonus_until IS NOT NULL AND bonus_until <= ?",
		time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
