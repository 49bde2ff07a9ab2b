package storage

import (
	"database/sql"
	"time"
)

// CreateBatch stores a batch and its ordered content items
func (s *Storage) CreateBatch(code, policy string, price float64, ownerID int64, files []BatchFile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT OR IGNORE INTO batches (code, policy, price, owner_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		code, policy, price, ownerID, time.Now().Unix(),
	)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrAlreadyExists
	}

	for i, f := range files {
		_, err := tx.Exec(
			"INSERT INTO batch_files (batch_code, position, kind, file_id) VALUES (?, ?, ?, ?)",
			code, i, f.Kind, f.FileID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetBatch returns a batch with its content items
func (s *Storage) GetBatch(code string) (*Batch, error) {
	var (
		b         Batch
		createdAt int64
	)
	err := s.db.QueryRow(
		"SELECT code, policy, price, owner_id, created_at FROM batches WHERE code = ?",
		code,
	).Scan(&b.Code, &b.Policy, &b.Price, &b.OwnerID, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt = time.Unix(createdAt, 0)

	rows, err := s.db.Query(
		"SELECT kind, file_id FROM batch_files WHERE batch_code = ? ORDER BY position",
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f BatchFile
		if err := rows.Scan(&f.Kind, &f.FileID); err != nil {
			return nil, err
		}
		b.Files = append(b.Files, f)
	}
	return &b, rows.Err()
}

// BatchExists reports whether a batch code is taken
func (s *Storage) BatchExists(code string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM batches WHERE code = ?", code).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
