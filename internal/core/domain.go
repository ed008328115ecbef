package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date with no time component. All record dates are
	// stored and compared at day granularity, in UTC.
	Date struct {
		time.Time
	}

	// Money is a non-negative currency amount in cents.
	Money struct {
		Cents int64
	}

	// FuelRecord is a single fuel purchase owned by one user.
	FuelRecord struct {
		ID     string
		UserID string
		Amount Money
		Date   Date
	}

	// MaintenanceRecord is a single service visit owned by one user.
	MaintenanceRecord struct {
		ID        string
		UserID    string
		Problem   string
		ServiceAt string
		Amount    Money
		Date      Date
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyProblem   = errors.New("empty problem description")
	ErrEmptyServiceAt = errors.New("empty service location")
	ErrMissingOwner   = errors.New("missing record owner")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls on an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r FuelRecord) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingOwner
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	return r.Amount.Validate()
}

func (r MaintenanceRecord) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrMissingOwner
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(r.Problem)) == 0 {
		return ErrEmptyProblem
	}
	if len(strings.TrimSpace(r.ServiceAt)) == 0 {
		return ErrEmptyServiceAt
	}
	return r.Amount.Validate()
}
