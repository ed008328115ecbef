// Package editor holds the form state machines of the record UI: the
// per-row inline editor, the standalone create form, and the two-phase
// delete confirmation. All remote work goes through injected callbacks;
// the machines only own staging state and transition rules.
package editor

import (
	"context"
	"errors"
)

var (
	// ErrBusy is returned when a submit lands while a mutation on the
	// same form is still in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrNotEditing is returned for a save without an active edit.
	ErrNotEditing = errors.New("no edit in progress")
	// ErrNotConfirmed is returned for a delete that was never armed by
	// the confirmation step.
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// Phase is the lifecycle of the row editor.
type Phase int

const (
	Viewing Phase = iota
	Editing
	Saving
)

// Editor is the inline edit machine for one row at a time. F carries the
// staging copies of the row's mutable fields.
type Editor[F any] struct {
	validate func(F) error

	phase   Phase
	rowID   string
	staging F
	saveErr string
}

// New builds an editor; validate is the required-field check run before
// any save reaches the store.
func New[F any](validate func(F) error) *Editor[F] {
	return &Editor[F]{validate: validate}
}

// BeginEdit snapshots the row's mutable fields into staging state. A new
// BeginEdit while another row is open simply switches rows, discarding
// the previous staging copy.
func (e *Editor[F]) BeginEdit(rowID string, fields F) {
	if e.phase == Saving {
		return
	}
	e.phase = Editing
	e.rowID = rowID
	e.staging = fields
	e.saveErr = ""
}

// CancelEdit discards the staging fields with no network call.
func (e *Editor[F]) CancelEdit() {
	if e.phase == Saving {
		return
	}
	var zero F
	e.phase = Viewing
	e.rowID = ""
	e.staging = zero
	e.saveErr = ""
}

// SetStaging replaces the staging fields while editing.
func (e *Editor[F]) SetStaging(fields F) {
	if e.phase == Editing {
		e.staging = fields
	}
}

// Save validates the staging fields and runs the update. On success the
// editor returns to Viewing; on failure it stays in Editing with the
// error recorded so the user can retry or cancel.
func (e *Editor[F]) Save(ctx context.Context, update func(ctx context.Context, rowID string, fields F) error) error {
	switch e.phase {
	case Saving:
		return ErrBusy
	case Viewing:
		return ErrNotEditing
	}

	if err := e.validate(e.staging); err != nil {
		e.saveErr = err.Error()
		return err
	}

	e.phase = Saving
	err := update(ctx, e.rowID, e.staging)
	if err != nil {
		e.phase = Editing
		e.saveErr = err.Error()
		return err
	}

	var zero F
	e.phase = Viewing
	e.rowID = ""
	e.staging = zero
	e.saveErr = ""
	return nil
}

// Phase returns the machine state.
func (e *Editor[F]) Phase() Phase { return e.phase }

// EditingRow returns the id of the row being edited, empty when viewing.
func (e *Editor[F]) EditingRow() string { return e.rowID }

// Staging returns the staged field values.
func (e *Editor[F]) Staging() F { return e.staging }

// SaveError returns the last save failure, empty after success or cancel.
func (e *Editor[F]) SaveError() string { return e.saveErr }
