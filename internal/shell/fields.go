package shell

import (
	"errors"
	"fmt"
	"strings"

	"carlog/internal/core"
)

var errFieldsRequired = errors.New("all fields are required")

// FuelFields is the string-typed staging copy of a fuel record, as it
// comes off the form before parsing.
type FuelFields struct {
	Amount string
	Date   string
}

func (f FuelFields) validate() error {
	if strings.TrimSpace(f.Amount) == "" || strings.TrimSpace(f.Date) == "" {
		return errFieldsRequired
	}
	return nil
}

func (f FuelFields) parse() (core.Money, core.Date, error) {
	cents, err := core.ParseDecimalToCents(f.Amount)
	if err != nil {
		return core.Money{}, core.Date{}, err
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Money{}, core.Date{}, err
	}
	return core.Money{Cents: cents}, date, nil
}

func fuelFieldsOf(r core.FuelRecord) FuelFields {
	return FuelFields{Amount: decimalString(r.Amount), Date: r.Date.String()}
}

// MaintenanceFields is the staging copy of a maintenance record.
type MaintenanceFields struct {
	Problem   string
	ServiceAt string
	Amount    string
	Date      string
}

func (f MaintenanceFields) validate() error {
	if strings.TrimSpace(f.Problem) == "" || strings.TrimSpace(f.ServiceAt) == "" ||
		strings.TrimSpace(f.Amount) == "" || strings.TrimSpace(f.Date) == "" {
		return errFieldsRequired
	}
	return nil
}

func (f MaintenanceFields) parse() (core.Money, core.Date, error) {
	cents, err := core.ParseDecimalToCents(f.Amount)
	if err != nil {
		return core.Money{}, core.Date{}, err
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Money{}, core.Date{}, err
	}
	return core.Money{Cents: cents}, date, nil
}

func maintenanceFieldsOf(r core.MaintenanceRecord) MaintenanceFields {
	return MaintenanceFields{
		Problem:   r.Problem,
		ServiceAt: r.ServiceAt,
		Amount:    decimalString(r.Amount),
		Date:      r.Date.String(),
	}
}

// decimalString renders money as a bare decimal for form prefills,
// without the currency prefix FormatRM adds.
func decimalString(m core.Money) string {
	return fmt.Sprintf("%d.%02d", m.Cents/100, m.Cents%100)
}
