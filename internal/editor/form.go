package editor

import "context"

// Form is the standalone create form. Unlike the row editor it clears
// its fields after every submit, failed ones included; a failed create
// is re-notified, not retained for retry.
type Form[F any] struct {
	validate func(F) error

	fields F
	busy   bool
	subErr string
}

// NewForm builds a create form with its required-field check.
func NewForm[F any](validate func(F) error) *Form[F] {
	return &Form[F]{validate: validate}
}

// Set replaces the candidate field values.
func (f *Form[F]) Set(fields F) {
	if !f.busy {
		f.fields = fields
	}
}

// Fields returns the candidate field values.
func (f *Form[F]) Fields() F { return f.fields }

// Busy reports whether a submit is in flight.
func (f *Form[F]) Busy() bool { return f.busy }

// SubmitError returns the last failed submit's message.
func (f *Form[F]) SubmitError() string { return f.subErr }

// Submit validates and runs the insert. The fields are cleared whether
// the insert succeeds or fails. Validation failures keep the fields so
// the user can fill in what is missing.
func (f *Form[F]) Submit(ctx context.Context, insert func(ctx context.Context, fields F) error) error {
	if f.busy {
		return ErrBusy
	}
	if err := f.validate(f.fields); err != nil {
		f.subErr = err.Error()
		return err
	}

	f.busy = true
	err := insert(ctx, f.fields)
	var zero F
	f.fields = zero
	f.busy = false
	if err != nil {
		f.subErr = err.Error()
		return err
	}
	f.subErr = ""
	return nil
}

// Confirm is the two-phase delete guard: a delete must be armed for a
// specific row before it runs.
type Confirm struct {
	armedID string
	busy    bool
}

// Arm marks rowID as pending deletion, replacing any earlier candidate.
func (c *Confirm) Arm(rowID string) {
	if !c.busy {
		c.armedID = rowID
	}
}

// Disarm cancels the pending deletion.
func (c *Confirm) Disarm() {
	if !c.busy {
		c.armedID = ""
	}
}

// Armed returns the row pending deletion, empty when none.
func (c *Confirm) Armed() string { return c.armedID }

// Delete runs del for rowID if that exact row was armed. The guard is
// disarmed afterwards, success or not.
func (c *Confirm) Delete(ctx context.Context, rowID string, del func(ctx context.Context, rowID string) error) error {
	if c.busy {
		return ErrBusy
	}
	if c.armedID == "" || c.armedID != rowID {
		return ErrNotConfirmed
	}
	c.busy = true
	err := del(ctx, rowID)
	c.busy = false
	c.armedID = ""
	return err
}
