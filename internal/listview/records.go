package listview

import (
	"strings"

	"carlog/internal/core"
)

// Sort keys shared by the record tables.
const (
	SortDate      = "date"
	SortAmount    = "amount"
	SortProblem   = "problem"
	SortServiceAt = "service_at"
)

// NewFuel builds the controller for the fuel table: sortable by date and
// amount, rolling date filter enabled.
func NewFuel(fetch Fetcher[core.FuelRecord]) *Controller[core.FuelRecord] {
	compare := map[string]Compare[core.FuelRecord]{
		SortDate: func(a, b core.FuelRecord) bool {
			return a.Date.Time.Before(b.Date.Time)
		},
		SortAmount: func(a, b core.FuelRecord) bool {
			return a.Amount.Cents < b.Amount.Cents
		},
	}
	amount := func(r core.FuelRecord) int64 { return r.Amount.Cents }
	return New(fetch, compare, amount, SortDate, true)
}

// NewMaintenance builds the controller for the maintenance table: all
// columns sortable, no date filter.
func NewMaintenance(fetch Fetcher[core.MaintenanceRecord]) *Controller[core.MaintenanceRecord] {
	compare := map[string]Compare[core.MaintenanceRecord]{
		SortDate: func(a, b core.MaintenanceRecord) bool {
			return a.Date.Time.Before(b.Date.Time)
		},
		SortAmount: func(a, b core.MaintenanceRecord) bool {
			return a.Amount.Cents < b.Amount.Cents
		},
		SortProblem: func(a, b core.MaintenanceRecord) bool {
			return strings.ToLower(a.Problem) < strings.ToLower(b.Problem)
		},
		SortServiceAt: func(a, b core.MaintenanceRecord) bool {
			return strings.ToLower(a.ServiceAt) < strings.ToLower(b.ServiceAt)
		},
	}
	amount := func(r core.MaintenanceRecord) int64 { return r.Amount.Cents }
	return New(fetch, compare, amount, SortDate, false)
}
