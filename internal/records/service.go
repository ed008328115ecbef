// Package records is the store adapter used by the UI: every mutation
// goes to SQLite first and then announces itself on the event channel.
// A publish failure never fails the user's action; the record is already
// durable locally.
package records

import (
	"context"
	"log/slog"

	"carlog/internal/core"
	"carlog/internal/events"
	"carlog/internal/store"
)

// Publisher is the outbound change channel. events.Client satisfies it;
// a nil client publishes nothing.
type Publisher interface {
	PublishRecordChange(ctx context.Context, m events.RecordChange) error
}

// Service exposes the list/insert/update/delete contract for both record
// types, scoped to the acting user on every call.
type Service struct {
	store     *store.Store
	publisher Publisher
}

func NewService(st *store.Store, publisher Publisher) *Service {
	return &Service{store: st, publisher: publisher}
}

// ListFuel returns the user's fuel records, optionally bounded below by
// from, ordered by date descending.
func (s *Service) ListFuel(ctx context.Context, userID string, from *core.Date) ([]core.FuelRecord, error) {
	return s.store.ListFuel(ctx, userID, from)
}

// InsertFuel stores a new fuel record and announces the change.
func (s *Service) InsertFuel(ctx context.Context, r core.FuelRecord) error {
	id, err := s.store.InsertFuel(ctx, r)
	if err != nil {
		return err
	}
	s.announce(ctx, events.NewRecordChange(events.TypeFuel, id, r.UserID, events.ActionInsert))
	return nil
}

// UpdateFuel rewrites a fuel record's mutable fields.
func (s *Service) UpdateFuel(ctx context.Context, userID, id string, amount core.Money, date core.Date) error {
	if err := s.store.UpdateFuel(ctx, userID, id, amount, date); err != nil {
		return err
	}
	s.announce(ctx, events.NewRecordChange(events.TypeFuel, id, userID, events.ActionUpdate))
	return nil
}

// DeleteFuel removes a fuel record; a missing id is a reported error.
func (s *Service) DeleteFuel(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteFuel(ctx, userID, id); err != nil {
		return err
	}
	s.announce(ctx, events.NewRecordChange(events.TypeFuel, id, userID, events.ActionDelete))
	return nil
}

// ListMaintenance returns the user's maintenance records.
func (s *Service) ListMaintenance(ctx context.Context, userID string, from *core.Date) ([]core.MaintenanceRecord, error) {
	return s.store.ListMaintenance(ctx, userID, from)
}

// InsertMaintenance stores a new maintenance record and announces it.
func (s *Service) InsertMaintenance(ctx context.Context, r core.MaintenanceRecord) error {
	id, err := s.store.InsertMaintenance(ctx, r)
	if err != nil {
		return err
	}
	s.announce(ctx, events.NewRecordChange(events.TypeMaintenance, id, r.UserID, events.ActionInsert))
	return nil
}

// UpdateMaintenance rewrites a maintenance record's mutable fields.
func (s *Service) UpdateMaintenance(ctx context.Context, userID, id, problem, serviceAt string, amount core.Money, date core.Date) error {
	if err := s.store.UpdateMaintenance(ctx, userID, id, problem, serviceAt, amount, date); err != nil {
		return err
	}
	s.announce(ctx, events.NewRecordChange(events.TypeMaintenance, id, userID, events.ActionUpdate))
	return nil
}

// DeleteMaintenance removes a maintenance record.
func (s *Service) DeleteMaintenance(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteMaintenance(ctx, userID, id); err != nil {
		return err
	}
	s.announce(ctx, events.NewRecordChange(events.TypeMaintenance, id, userID, events.ActionDelete))
	return nil
}

func (s *Service) announce(ctx context.Context, m events.RecordChange) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordChange(ctx, m); err != nil {
		slog.ErrorContext(ctx, "record change publish failed",
			"record_type", m.RecordType, "record_id", m.RecordID, "action", m.Action, "error", err)
	}
}
