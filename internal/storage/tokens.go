package storage

import (
	"database/sql"
	"time"
)

// CreateVerificationToken persists a one-time token bound to a user
func (s *Storage) CreateVerificationToken(token string, userID int64) error {
	_, err := s.db.Exec(
		"INSERT INTO verification_tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().Unix(),
	)
	return err
}

// ConsumeVerificationToken deletes the token if it is bound to userID
// and still fresh, returning true only for the one caller that actually
// consumed it. Two concurrent redemptions cannot both succeed.
func (s *Storage) ConsumeVerificationToken(token string, userID int64) (bool, error) {
	cutoff := time.Now().Add(-TokenTTL).Unix()
	result, err := s.db.Exec(
		"DELETE FROM verification_tokens WHERE token = ? AND user_id = ? AND created_at > ?",
		token, userID, cutoff,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// VerificationTokenOwner returns the account a fresh token is bound to
func (s *Storage) VerificationTokenOwner(token string) (int64, error) {
	cutoff := time.Now().Add(-TokenTTL).Unix()
	var userID int64
	err := s.db.QueryRow(
		"SELECT user_id FROM verification_tokens WHERE token = ? AND created_at > ?",
		token, cutoff,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return userID, err
}

// DeleteExpiredTokens removes tokens older than the TTL
func (s *Storage) DeleteExpiredTokens() (int64, error) {
	cutoff := time.Now().Add(-TokenTTL).Unix()
	result, err := s.db.Exec("DELETE FROM verification_tokens WHERE created_at <= ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
