package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"carlog/internal/core"
)

// ListMaintenance returns the caller's maintenance records ordered by date
// descending. The maintenance view carries no period filter, so from is
// optional for symmetry with ListFuel.
func (s *Store) ListMaintenance(ctx context.Context, userID string, from *core.Date) ([]core.MaintenanceRecord, error) {
	query := "SELECT id, user_id, problem, service_at, amount_cents, date FROM maintenance_records WHERE user_id = ?"
	args := []any{userID}
	if from != nil {
		query += " AND date >= ?"
		args = append(args, from.String())
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list maintenance records: %w", err)
	}
	defer rows.Close()

	var records []core.MaintenanceRecord
	for rows.Next() {
		var (
			r       core.MaintenanceRecord
			dateStr string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Problem, &r.ServiceAt, &r.Amount.Cents, &dateStr); err != nil {
			return nil, fmt.Errorf("scan maintenance record: %w", err)
		}
		if r.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("parse maintenance record date %q: %w", dateStr, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertMaintenance stores a new maintenance record stamped with the given owner.
func (s *Store) InsertMaintenance(ctx context.Context, r core.MaintenanceRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO maintenance_records (id, user_id, problem, service_at, amount_cents, date) VALUES (?, ?, ?, ?, ?, ?)",
		id, r.UserID, r.Problem, r.ServiceAt, r.Amount.Cents, r.Date.String(),
	)
	if err != nil {
		return "", fmt.Errorf("insert maintenance record: %w", err)
	}

	slog.InfoContext(ctx, "maintenance record saved",
		"id", id, "user_id", r.UserID, "problem", r.Problem, "amount_cents", r.Amount.Cents)
	return id, nil
}

// UpdateMaintenance rewrites the mutable fields of an existing record.
func (s *Store) UpdateMaintenance(ctx context.Context, userID, id string, problem, serviceAt string, amount core.Money, date core.Date) error {
	probe := core.MaintenanceRecord{
		UserID: userID, Problem: problem, ServiceAt: serviceAt, Amount: amount, Date: date,
	}
	if err := probe.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE maintenance_records SET problem = ?, service_at = ?, amount_cents = ?, date = ? WHERE id = ? AND user_id = ?",
		problem, serviceAt, amount.Cents, date.String(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("update maintenance record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update maintenance record result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMaintenance removes a record by id, reporting ErrNotFound for an
// id that is not present.
func (s *Store) DeleteMaintenance(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM maintenance_records WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete maintenance record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete maintenance record result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
