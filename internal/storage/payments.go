package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// --- Pending claims ---

// CreatePendingClaim records that a user says they paid with this email.
// A second claim for the same email replaces the first.
func (s *Storage) CreatePendingClaim(email string, userID int64) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO pending_claims (email, user_id, created_at) VALUES (?, ?, ?)",
		email, userID, time.Now().Unix(),
	)
	return err
}

// ConsumePendingClaim atomically deletes a fresh claim for the email and
// returns its owner. A redelivered webhook finds nothing here and falls
// through to the unclaimed store.
func (s *Storage) ConsumePendingClaim(email string) (int64, error) {
	cutoff := time.Now().Add(-ClaimTTL).Unix()
	var userID int64
	err := s.db.QueryRow(
		"DELETE FROM pending_claims WHERE email = ? AND created_at > ? RETURNING user_id",
		email, cutoff,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return userID, err
}

// DeleteExpiredClaims removes claims older than the TTL
func (s *Storage) DeleteExpiredClaims() (int64, error) {
	cutoff := time.Now().Add(-ClaimTTL).Unix()
	result, err := s.db.Exec("DELETE FROM pending_claims WHERE created_at <= ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// --- Unclaimed payments ---

// AddUnclaimedPayment stores money that arrived before anyone claimed it.
// Multiple payments for the same email coexist.
func (s *Storage) AddUnclaimedPayment(email string, amount float64) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO unclaimed_payments (id, email, amount, received_at) VALUES (?, ?, ?, ?)",
		id, email, amount, time.Now().Unix(),
	)
	return id, err
}

// ConsumeUnclaimedPayment atomically deletes the oldest unclaimed payment
// for the email and returns its amount.
func (s *Storage) ConsumeUnclaimedPayment(email string) (float64, error) {
	var amount float64
	err := s.db.QueryRow(
		`DELETE FROM unclaimed_payments WHERE id = (
			SELECT id FROM unclaimed_payments WHERE email = ? ORDER BY received_at, id LIMIT 1
		 ) RETURNING amount`,
		email,
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return amount, err
}

// DeleteExpiredUnclaimed removes unclaimed payments older than the TTL
func (s *Storage) DeleteExpiredUnclaimed() (int64, error) {
	cutoff := time.Now().Add(-UnclaimedTTL).Unix()
	result, err := s.db.Exec("DELETE FROM unclaimed_payments WHERE received_at <= ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// --- Payment proofs ---

// CreateProof stores a buyer's screenshot for the batch owner to review
func (s *Storage) CreateProof(ownerID, buyerID int64, batchCode string, price float64, photoID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO payment_proofs (id, owner_id, buyer_id, batch_code, price, photo_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, buyerID, batchCode, price, photoID, time.Now().Unix(),
	)
	return id, err
}

// ListProofs returns pending proofs owned by a seller, oldest first
func (s *Storage) ListProofs(ownerID int64) ([]PaymentProof, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, buyer_id, batch_code, price, photo_id, created_at
		 FROM payment_proofs WHERE owner_id = ? ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []PaymentProof
	for rows.Next() {
		var (
			p         PaymentProof
			photo     sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.BuyerID, &p.BatchCode, &p.Price, &photo, &createdAt); err != nil {
			return nil, err
		}
		p.PhotoID = photo.String
		p.CreatedAt = time.Unix(createdAt, 0)
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

// ConsumeProof atomically deletes a proof and returns it. ErrNotFound
// means another reviewer resolved it first; callers treat that as a
// no-op, not a failure.
func (s *Storage) ConsumeProof(id string) (*PaymentProof, error) {
	var (
		p         PaymentProof
		photo     sql.NullString
		createdAt int64
	)
	err := s.db.QueryRow(
		`DELETE FROM payment_proofs WHERE id = ?
		 RETURNING id, owner_id, buyer_id, batch_code, price, photo_id, created_at`,
		id,
	).Scan(&p.ID, &p.OwnerID, &p.BuyerID, &p.BatchCode, &p.Price, &photo, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.PhotoID = photo.String
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}

// --- Purchase sessions ---

// SetPurchaseSession upserts the user's flow position
func (s *Storage) SetPurchaseSession(userID int64, kind, phase, batchCode string) error {
	var code interface{}
	if batchCode != "" {
		code = batchCode
	}
	_, err := s.db.Exec(
		`INSERT INTO purchase_sessions (user_id, kind, phase, batch_code, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			kind = excluded.kind,
			phase = excluded.phase,
			batch_code = excluded.batch_code,
			created_at = excluded.created_at`,
		userID, kind, phase, code, time.Now().Unix(),
	)
	return err
}

// GetPurchaseSession returns the user's flow position, if any
func (s *Storage) GetPurchaseSession(userID int64) (*PurchaseSession, error) {
	var (
		sess      PurchaseSession
		code      sql.NullString
		createdAt int64
	)
	err := s.db.QueryRow(
		"SELECT user_id, kind, phase, batch_code, created_at FROM purchase_sessions WHERE user_id = ?",
		userID,
	).Scan(&sess.UserID, &sess.Kind, &sess.Phase, &code, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sess.BatchCode = code.String
	sess.CreatedAt = time.Unix(createdAt, 0)
	return &sess, nil
}

// SetSessionPhase moves an existing session to a new phase
func (s *Storage) SetSessionPhase(userID int64, phase string) error {
	_, err := s.db.Exec(
		"UPDATE purchase_sessions SET phase = ? WHERE user_id = ?",
		phase, userID,
	)
	return err
}

// ClearPurchaseSession removes the user's flow position
func (s *Storage) ClearPurchaseSession(userID int64) error {
	_, err := s.db.Exec("DELETE FROM purchase_sessions WHERE user_id = ?", userID)
	return err
}
