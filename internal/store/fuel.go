package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"carlog/internal/core"
)

// ListFuel returns the caller's fuel records ordered by date descending.
// A non-nil from applies a lower bound on the record date, so period
// filters never pull unbounded history.
func (s *Store) ListFuel(ctx context.Context, userID string, from *core.Date) ([]core.FuelRecord, error) {
	query := "SELECT id, user_id, amount_cents, date FROM fuel_records WHERE user_id = ?"
	args := []any{userID}
	if from != nil {
		query += " AND date >= ?"
		args = append(args, from.String())
	}
	query += " ORDER BY date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fuel records: %w", err)
	}
	defer rows.Close()

	var records []core.FuelRecord
	for rows.Next() {
		var (
			r       core.FuelRecord
			dateStr string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount.Cents, &dateStr); err != nil {
			return nil, fmt.Errorf("scan fuel record: %w", err)
		}
		if r.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("parse fuel record date %q: %w", dateStr, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertFuel stores a new fuel record stamped with the given owner.
func (s *Store) InsertFuel(ctx context.Context, r core.FuelRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO fuel_records (id, user_id, amount_cents, date) VALUES (?, ?, ?, ?)",
		id, r.UserID, r.Amount.Cents, r.Date.String(),
	)
	if err != nil {
		return "", fmt.Errorf("insert fuel record: %w", err)
	}

	slog.InfoContext(ctx, "fuel record saved",
		"id", id, "user_id", r.UserID, "amount_cents", r.Amount.Cents, "date", r.Date.String())
	return id, nil
}

// UpdateFuel rewrites the mutable fields of an existing record. Rows owned
// by other users are invisible here and report ErrNotFound.
func (s *Store) UpdateFuel(ctx context.Context, userID, id string, amount core.Money, date core.Date) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := date.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE fuel_records SET amount_cents = ?, date = ? WHERE id = ? AND user_id = ?",
		amount.Cents, date.String(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("update fuel record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update fuel record result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFuel removes a record by id. Deleting an id that is already gone
// is reported as ErrNotFound, never a silent success.
func (s *Store) DeleteFuel(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM fuel_records WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete fuel record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fuel record result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
