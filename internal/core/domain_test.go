package core

import "testing"

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if d.String() != "2024-03-01" {
		t.Errorf("round trip = %q, want 2024-03-01", d.String())
	}

	if _, err := ParseDate("not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := ParseDate("2024-02-30"); err == nil {
		t.Error("expected error for impossible calendar date")
	}
}

func TestFuelRecordValidate(t *testing.T) {
	valid := FuelRecord{
		UserID: "u1",
		Amount: Money{Cents: 5000},
		Date:   NewDate(2024, 3, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*FuelRecord)
		want   error
	}{
		{"missing owner", func(r *FuelRecord) { r.UserID = " " }, ErrMissingOwner},
		{"zero date", func(r *FuelRecord) { r.Date = Date{} }, ErrInvalidDate},
		{"negative amount", func(r *FuelRecord) { r.Amount = Money{Cents: -1} }, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := r.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	// Zero amount is a legal fuel record.
	r := valid
	r.Amount = Money{Cents: 0}
	if err := r.Validate(); err != nil {
		t.Errorf("zero amount rejected: %v", err)
	}
}

func TestMaintenanceRecordValidate(t *testing.T) {
	valid := MaintenanceRecord{
		UserID:    "u1",
		Problem:   "brake pads",
		ServiceAt: "City Motors",
		Amount:    Money{Cents: 12000},
		Date:      NewDate(2024, 3, 1),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*MaintenanceRecord)
		want   error
	}{
		{"empty problem", func(r *MaintenanceRecord) { r.Problem = "  " }, ErrEmptyProblem},
		{"empty service location", func(r *MaintenanceRecord) { r.ServiceAt = "" }, ErrEmptyServiceAt},
		{"missing owner", func(r *MaintenanceRecord) { r.UserID = "" }, ErrMissingOwner},
		{"negative amount", func(r *MaintenanceRecord) { r.Amount = Money{Cents: -50} }, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := r.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
