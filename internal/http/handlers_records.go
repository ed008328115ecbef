package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"carlog/internal/listview"
	"carlog/internal/notify"
	"carlog/internal/shell"
)

type pageData struct {
	Email         string
	View          shell.View
	Fuel          *shell.FuelTable
	Maintenance   *shell.MaintenanceTable
	Notifications []notify.Message
}

func (s *Server) renderAppPage(w http.ResponseWriter, r *http.Request, app *shell.App) {
	v := app.View()
	data := pageData{
		Email:         app.Session().User.Email,
		View:          v,
		Notifications: app.Notifications(),
	}
	if v.ShowsFuel() {
		t := app.FuelTable()
		data.Fuel = &t
	}
	if v.ShowsMaintenance() {
		t := app.MaintenanceTable()
		data.Maintenance = &t
	}
	s.render(w, r, "app.html", data)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.OpenView(r.Context(), shell.ViewHome)
	s.renderAppPage(w, r, app)
}

func (s *Server) handleFuelView(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.OpenView(r.Context(), shell.ViewFuel)
	s.renderAppPage(w, r, app)
}

func (s *Server) handleMaintenanceView(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.OpenView(r.Context(), shell.ViewMaintenance)
	s.renderAppPage(w, r, app)
}

func (s *Server) handleProfileView(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.OpenView(r.Context(), shell.ViewProfile)
	s.renderAppPage(w, r, app)
}

func (s *Server) renderFuelTable(w http.ResponseWriter, r *http.Request, app *shell.App) {
	s.render(w, r, "fuel_table", app.FuelTable())
}

func (s *Server) renderMaintenanceTable(w http.ResponseWriter, r *http.Request, app *shell.App) {
	s.render(w, r, "maintenance_table", app.MaintenanceTable())
}

func fuelFieldsFromForm(r *http.Request) shell.FuelFields {
	return shell.FuelFields{
		Amount: strings.TrimSpace(r.Form.Get("amount")),
		Date:   strings.TrimSpace(r.Form.Get("date")),
	}
}

func maintenanceFieldsFromForm(r *http.Request) shell.MaintenanceFields {
	return shell.MaintenanceFields{
		Problem:   strings.TrimSpace(r.Form.Get("problem")),
		ServiceAt: strings.TrimSpace(r.Form.Get("service_at")),
		Amount:    strings.TrimSpace(r.Form.Get("amount")),
		Date:      strings.TrimSpace(r.Form.Get("date")),
	}
}

func (s *Server) handleFuelAdd(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.AddFuel(r.Context(), fuelFieldsFromForm(r))
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelFilter(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.SetFuelFilter(r.Context(), listview.DateFilter(r.Form.Get("period")))
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelSort(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.SetFuelSort(r.Form.Get("key"))
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelSetPage(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if n, err := strconv.Atoi(r.Form.Get("page")); err == nil {
		app.SetFuelPage(n)
	}
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelSetPageSize(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if n, err := strconv.Atoi(r.Form.Get("size")); err == nil {
		app.SetFuelPageSize(n)
	}
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelEdit(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.EditFuel(chi.URLParam(r, "id"))
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelCancel(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.CancelFuelEdit()
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelSave(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.SetFuelStaging(fuelFieldsFromForm(r))
	app.SaveFuel(r.Context())
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelArm(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.ArmFuelDelete(chi.URLParam(r, "id"))
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelDisarm(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.DisarmFuelDelete()
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleFuelDelete(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.DeleteFuel(r.Context(), chi.URLParam(r, "id"))
	s.renderFuelTable(w, r, app)
}

func (s *Server) handleMaintenanceAdd(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.AddMaintenance(r.Context(), maintenanceFieldsFromForm(r))
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceSort(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.SetMaintenanceSort(r.Form.Get("key"))
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceSetPage(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if n, err := strconv.Atoi(r.Form.Get("page")); err == nil {
		app.SetMaintenancePage(n)
	}
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceSetPageSize(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if n, err := strconv.Atoi(r.Form.Get("size")); err == nil {
		app.SetMaintenancePageSize(n)
	}
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceEdit(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.EditMaintenance(chi.URLParam(r, "id"))
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceCancel(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.CancelMaintenanceEdit()
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceSave(w http.ResponseWriter, r *http.Request, app *shell.App) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	app.SetMaintenanceStaging(maintenanceFieldsFromForm(r))
	app.SaveMaintenance(r.Context())
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceArm(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.ArmMaintenanceDelete(chi.URLParam(r, "id"))
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceDisarm(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.DisarmMaintenanceDelete()
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleMaintenanceDelete(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.DeleteMaintenance(r.Context(), chi.URLParam(r, "id"))
	s.renderMaintenanceTable(w, r, app)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request, app *shell.App) {
	s.render(w, r, "notifications", app.Notifications())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request, app *shell.App) {
	app.DismissNotification(chi.URLParam(r, "id"))
	s.render(w, r, "notifications", app.Notifications())
}
