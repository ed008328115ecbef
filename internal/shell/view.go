// Package shell holds the per-session UI state of the tracker: which
// view is open, the list controllers, the create forms, the row editors
// and the notification hub, plus the registry that creates and tears
// down that state on auth transitions.
package shell

// View names a navigable page of the app.
type View string

const (
	ViewHome        View = "home"
	ViewFuel        View = "fuel"
	ViewMaintenance View = "maintenance"
	ViewProfile     View = "profile"
)

// ParseView maps a path segment to a view, defaulting to home.
func ParseView(s string) View {
	switch View(s) {
	case ViewFuel, ViewMaintenance, ViewProfile:
		return View(s)
	default:
		return ViewHome
	}
}

// ShowsFuel reports whether the view renders the fuel table.
func (v View) ShowsFuel() bool {
	return v == ViewHome || v == ViewFuel
}

// ShowsMaintenance reports whether the view renders the maintenance table.
func (v View) ShowsMaintenance() bool {
	return v == ViewHome || v == ViewMaintenance
}
