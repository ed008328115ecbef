package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fields struct {
	Amount string
	Date   string
}

func requireAll(f fields) error {
	if f.Amount == "" || f.Date == "" {
		return errors.New("all fields are required")
	}
	return nil
}

func TestBeginEditSnapshotsFields(t *testing.T) {
	e := New(requireAll)
	e.BeginEdit("row-1", fields{Amount: "50.00", Date: "2024-03-01"})

	assert.Equal(t, Editing, e.Phase())
	assert.Equal(t, "row-1", e.EditingRow())
	assert.Equal(t, "50.00", e.Staging().Amount)
}

func TestCancelEditMakesNoCall(t *testing.T) {
	e := New(requireAll)
	e.BeginEdit("row-1", fields{Amount: "50.00", Date: "2024-03-01"})
	e.SetStaging(fields{Amount: "999.99", Date: "2024-03-02"})
	e.CancelEdit()

	assert.Equal(t, Viewing, e.Phase())
	assert.Empty(t, e.EditingRow())
	assert.Empty(t, e.Staging().Amount, "staging must be discarded")

	// A save after cancel is rejected before any network use.
	called := false
	err := e.Save(context.Background(), func(ctx context.Context, id string, f fields) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.False(t, called)
}

func TestSaveSuccessReturnsToViewing(t *testing.T) {
	e := New(requireAll)
	e.BeginEdit("row-1", fields{Amount: "50.00", Date: "2024-03-01"})

	var gotID string
	err := e.Save(context.Background(), func(ctx context.Context, id string, f fields) error {
		gotID = id
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "row-1", gotID)
	assert.Equal(t, Viewing, e.Phase())
	assert.Empty(t, e.SaveError())
}

func TestSaveFailureStaysEditing(t *testing.T) {
	e := New(requireAll)
	e.BeginEdit("row-1", fields{Amount: "50.00", Date: "2024-03-01"})

	err := e.Save(context.Background(), func(ctx context.Context, id string, f fields) error {
		return errors.New("store unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, Editing, e.Phase(), "editor keeps the edit open for retry")
	assert.Equal(t, "row-1", e.EditingRow())
	assert.Equal(t, "50.00", e.Staging().Amount, "staging survives a failed save")
	assert.Equal(t, "store unavailable", e.SaveError())

	// Retry can then succeed.
	require.NoError(t, e.Save(context.Background(), func(ctx context.Context, id string, f fields) error {
		return nil
	}))
	assert.Equal(t, Viewing, e.Phase())
}

func TestSaveValidatesRequiredFields(t *testing.T) {
	e := New(requireAll)
	e.BeginEdit("row-1", fields{Amount: "", Date: "2024-03-01"})

	called := false
	err := e.Save(context.Background(), func(ctx context.Context, id string, f fields) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called, "validation failures never reach the store")
	assert.Equal(t, Editing, e.Phase())
}

func TestFormSubmitClearsFieldsOnSuccessAndFailure(t *testing.T) {
	f := NewForm(requireAll)

	f.Set(fields{Amount: "50.00", Date: "2024-03-01"})
	require.NoError(t, f.Submit(context.Background(), func(ctx context.Context, v fields) error {
		return nil
	}))
	assert.Empty(t, f.Fields().Amount, "fields clear on success")

	f.Set(fields{Amount: "60.00", Date: "2024-03-02"})
	err := f.Submit(context.Background(), func(ctx context.Context, v fields) error {
		return errors.New("constraint violation")
	})
	require.Error(t, err)
	assert.Empty(t, f.Fields().Amount, "fields clear on failure too")
	assert.Equal(t, "constraint violation", f.SubmitError())
}

func TestFormSubmitKeepsFieldsOnValidationError(t *testing.T) {
	f := NewForm(requireAll)
	f.Set(fields{Amount: "50.00"})

	called := false
	err := f.Submit(context.Background(), func(ctx context.Context, v fields) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, "50.00", f.Fields().Amount, "incomplete input stays for completion")
}

func TestFormRejectsOverlappingSubmit(t *testing.T) {
	f := NewForm(requireAll)
	f.Set(fields{Amount: "50.00", Date: "2024-03-01"})

	err := f.Submit(context.Background(), func(ctx context.Context, v fields) error {
		// Reentrant submit while the first is in flight.
		return f.Submit(ctx, func(context.Context, fields) error { return nil })
	})
	assert.ErrorIs(t, err, ErrBusy)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	var c Confirm

	called := false
	err := c.Delete(context.Background(), "row-1", func(ctx context.Context, id string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.False(t, called)

	c.Arm("row-1")
	assert.Equal(t, "row-1", c.Armed())

	// Arming row-1 does not confirm row-2.
	err = c.Delete(context.Background(), "row-2", func(ctx context.Context, id string) error { return nil })
	assert.ErrorIs(t, err, ErrNotConfirmed)

	require.NoError(t, c.Delete(context.Background(), "row-1", func(ctx context.Context, id string) error {
		return nil
	}))
	assert.Empty(t, c.Armed(), "guard disarms after the delete")
}

func TestDeleteDisarmsAfterFailureToo(t *testing.T) {
	var c Confirm
	c.Arm("row-1")

	err := c.Delete(context.Background(), "row-1", func(ctx context.Context, id string) error {
		return errors.New("not found")
	})
	require.Error(t, err)
	assert.Empty(t, c.Armed())
}

func TestDisarmCancelsPendingDelete(t *testing.T) {
	var c Confirm
	c.Arm("row-1")
	c.Disarm()

	err := c.Delete(context.Background(), "row-1", func(ctx context.Context, id string) error { return nil })
	assert.ErrorIs(t, err, ErrNotConfirmed)
}
