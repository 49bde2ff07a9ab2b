package storage

import "time"

// ScheduleDeletion queues delivered messages for auto-deletion
func (s *Storage) ScheduleDeletion(chatID int64, messageIDs []int, deleteAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, mid := range messageIDs {
		_, err := tx.Exec(
			"INSERT INTO scheduled_deletions (chat_id, message_id, delete_at) VALUES (?, ?, ?)",
			chatID, mid, deleteAt.Unix(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DueDeletions returns every queued deletion whose time has passed
func (s *Storage) DueDeletions() ([]ScheduledDeletion, error) {
	rows, err := s.db.Query(
		"SELECT id, chat_id, message_id, delete_at FROM scheduled_deletions WHERE delete_at <= ?",
		time.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []ScheduledDeletion
	for rows.Next() {
		var (
			d        ScheduledDeletion
			deleteAt int64
		)
		if err := rows.Scan(&d.ID, &d.ChatID, &d.MessageID, &deleteAt); err != nil {
			return nil, err
		}
		d.DeleteAt = time.Unix(deleteAt, 0)
		due = append(due, d)
	}
	return due, rows.Err()
}

// RemoveDeletion drops a processed queue entry
func (s *Storage) RemoveDeletion(id int64) error {
	_, err := s.db.Exec("DELETE FROM scheduled_deletions WHERE id = ?", id)
	return err
}
