package store

import (
	"context"
	"fmt"
	"time"
)

// AuditEntry is one row of the record-change audit trail appended by the
// worker from consumed change events.
type AuditEntry struct {
	ID         int64
	RecordType string
	RecordID   string
	UserID     string
	Action     string
	OccurredAt time.Time
}

// AppendAudit inserts an audit entry.
func (s *Store) AppendAudit(ctx context.Context, e AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO audit_log (record_type, record_id, user_id, action, occurred_at) VALUES (?, ?, ?, ?, ?)",
		e.RecordType, e.RecordID, e.UserID, e.Action, e.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListAudit returns the most recent audit entries, newest first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, record_type, record_id, user_id, action, occurred_at FROM audit_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.RecordType, &e.RecordID, &e.UserID, &e.Action, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
