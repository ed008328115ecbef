package shell

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carlog/internal/auth"
	"carlog/internal/core"
	"carlog/internal/editor"
	"carlog/internal/listview"
	"carlog/internal/notify"
	"carlog/internal/records"
)

// App is the UI state of one authenticated session. A mutex serializes
// all access; the list controllers and editors themselves are not
// concurrency-safe.
type App struct {
	mu sync.Mutex

	session *auth.Session
	svc     *records.Service
	hub     *notify.Hub

	view View

	fuel        *listview.Controller[core.FuelRecord]
	fuelForm    *editor.Form[FuelFields]
	fuelEditor  *editor.Editor[FuelFields]
	fuelConfirm editor.Confirm

	maintenance        *listview.Controller[core.MaintenanceRecord]
	maintenanceForm    *editor.Form[MaintenanceFields]
	maintenanceEditor  *editor.Editor[MaintenanceFields]
	maintenanceConfirm editor.Confirm
}

// NewApp wires the session's controllers to the record service, scoped to
// the session user. notificationTTL of zero keeps the notify default.
func NewApp(sess *auth.Session, svc *records.Service, notificationTTL time.Duration) *App {
	a := &App{
		session: sess,
		svc:     svc,
		hub:     notify.NewHub(notificationTTL),
		view:    ViewHome,
	}
	userID := sess.User.ID
	a.fuel = listview.NewFuel(func(ctx context.Context, from *core.Date) ([]core.FuelRecord, error) {
		return svc.ListFuel(ctx, userID, from)
	})
	a.maintenance = listview.NewMaintenance(func(ctx context.Context, from *core.Date) ([]core.MaintenanceRecord, error) {
		return svc.ListMaintenance(ctx, userID, from)
	})
	a.fuelForm = editor.NewForm(FuelFields.validate)
	a.fuelEditor = editor.New(FuelFields.validate)
	a.maintenanceForm = editor.NewForm(MaintenanceFields.validate)
	a.maintenanceEditor = editor.New(MaintenanceFields.validate)
	return a
}

// Session returns the session this state belongs to.
func (a *App) Session() *auth.Session { return a.session }

// Notifications returns the active transient messages in publish order.
func (a *App) Notifications() []notify.Message { return a.hub.Active() }

// DismissNotification removes one message ahead of its timer.
func (a *App) DismissNotification(id string) { a.hub.Dismiss(id) }

// Notify publishes a transient message onto this session's hub.
func (a *App) Notify(text string, severity notify.Severity) { a.hub.Publish(text, severity) }

// Close tears the session state down: pending notification timers are
// stopped and the controllers return to their mount state.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hub.Close()
	a.fuel.Reset()
	a.maintenance.Reset()
}

// OpenView navigates to v. Tables shown by the new view mount fresh:
// filter, sort and pagination return to their defaults and the rows are
// refetched. Tables the view hides are reset so a later mount starts
// clean.
func (a *App) OpenView(ctx context.Context, v View) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = v

	a.fuel.Reset()
	a.maintenance.Reset()
	if v.ShowsFuel() {
		a.fuel.Refresh(ctx)
	}
	if v.ShowsMaintenance() {
		a.maintenance.Refresh(ctx)
	}
}

// View returns the open view.
func (a *App) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// TableMeta is the rendering snapshot of one list controller.
type TableMeta struct {
	Phase      listview.Phase
	LoadError  string
	SortKey    string
	SortDir    listview.SortDirection
	Page       int
	PageCount  int
	PageSize   int
	Filter     listview.DateFilter
	Filterable bool
	EmptyRows  int
	Total      core.Money
}

func meta[T any](c *listview.Controller[T]) TableMeta {
	key, dir := c.Sort()
	return TableMeta{
		Phase:      c.Phase(),
		LoadError:  c.LoadError(),
		SortKey:    key,
		SortDir:    dir,
		Page:       c.Page(),
		PageCount:  c.PageCount(),
		PageSize:   c.PageSize(),
		Filter:     c.Filter(),
		Filterable: c.Filterable(),
		EmptyRows:  c.EmptyRows(),
		Total:      c.Total(),
	}
}

// FuelTable is the full rendering snapshot of the fuel section.
type FuelTable struct {
	Meta       TableMeta
	Rows       []core.FuelRecord
	Form       FuelFields
	FormError  string
	EditingRow string
	Staging    FuelFields
	EditError  string
	Armed      string
}

// MaintenanceTable is the full rendering snapshot of the maintenance
// section.
type MaintenanceTable struct {
	Meta       TableMeta
	Rows       []core.MaintenanceRecord
	Form       MaintenanceFields
	FormError  string
	EditingRow string
	Staging    MaintenanceFields
	EditError  string
	Armed      string
}

// FuelTable snapshots the fuel section for rendering.
func (a *App) FuelTable() FuelTable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return FuelTable{
		Meta:       meta(a.fuel),
		Rows:       a.fuel.VisibleRows(),
		Form:       a.fuelForm.Fields(),
		FormError:  a.fuelForm.SubmitError(),
		EditingRow: a.fuelEditor.EditingRow(),
		Staging:    a.fuelEditor.Staging(),
		EditError:  a.fuelEditor.SaveError(),
		Armed:      a.fuelConfirm.Armed(),
	}
}

// MaintenanceTable snapshots the maintenance section for rendering.
func (a *App) MaintenanceTable() MaintenanceTable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return MaintenanceTable{
		Meta:       meta(a.maintenance),
		Rows:       a.maintenance.VisibleRows(),
		Form:       a.maintenanceForm.Fields(),
		FormError:  a.maintenanceForm.SubmitError(),
		EditingRow: a.maintenanceEditor.EditingRow(),
		Staging:    a.maintenanceEditor.Staging(),
		EditError:  a.maintenanceEditor.SaveError(),
		Armed:      a.maintenanceConfirm.Armed(),
	}
}

// AddFuel submits the create form. On a stored insert, success or not,
// the form clears; only a required-field failure keeps the input.
func (a *App) AddFuel(ctx context.Context, f FuelFields) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuelForm.Set(f)
	err := a.fuelForm.Submit(ctx, func(ctx context.Context, f FuelFields) error {
		amount, date, err := f.parse()
		if err != nil {
			return err
		}
		return a.svc.InsertFuel(ctx, core.FuelRecord{
			UserID: a.session.User.ID,
			Amount: amount,
			Date:   date,
		})
	})
	if err != nil {
		a.hub.Publish(fmt.Sprintf("Could not add fuel record: %v", err), notify.Error)
		return
	}
	a.hub.Publish("Fuel record added", notify.Success)
	a.fuel.Refresh(ctx)
}

// EditFuel opens the inline editor on the given row, prefilled from the
// fetched copy. Unknown rows are ignored.
func (a *App) EditFuel(rowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.fuel.Rows() {
		if r.ID == rowID {
			a.fuelEditor.BeginEdit(rowID, fuelFieldsOf(r))
			return
		}
	}
}

// SetFuelStaging replaces the editor's staged values.
func (a *App) SetFuelStaging(f FuelFields) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuelEditor.SetStaging(f)
}

// CancelFuelEdit discards the open edit without a store call.
func (a *App) CancelFuelEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuelEditor.CancelEdit()
}

// SaveFuel validates and persists the open edit, then refetches.
func (a *App) SaveFuel(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.fuelEditor.Save(ctx, func(ctx context.Context, rowID string, f FuelFields) error {
		amount, date, err := f.parse()
		if err != nil {
			return err
		}
		return a.svc.UpdateFuel(ctx, a.session.User.ID, rowID, amount, date)
	})
	if err != nil {
		a.hub.Publish(fmt.Sprintf("Could not update fuel record: %v", err), notify.Error)
		return
	}
	a.hub.Publish("Fuel record updated", notify.Success)
	a.fuel.Refresh(ctx)
}

// ArmFuelDelete marks a row for deletion pending confirmation.
func (a *App) ArmFuelDelete(rowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuelConfirm.Arm(rowID)
}

// DisarmFuelDelete cancels the pending deletion.
func (a *App) DisarmFuelDelete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuelConfirm.Disarm()
}

// DeleteFuel runs the confirmed deletion and refetches.
func (a *App) DeleteFuel(ctx context.Context, rowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.fuelConfirm.Delete(ctx, rowID, func(ctx context.Context, rowID string) error {
		return a.svc.DeleteFuel(ctx, a.session.User.ID, rowID)
	})
	if err != nil {
		a.hub.Publish(fmt.Sprintf("Could not delete fuel record: %v", err), notify.Error)
		return
	}
	a.hub.Publish("Fuel record deleted", notify.Success)
	a.fuel.Refresh(ctx)
}

// SetFuelSort re-sorts the fuel table locally.
func (a *App) SetFuelSort(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuel.SetSort(key)
}

// SetFuelPage moves the fuel pagination window.
func (a *App) SetFuelPage(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuel.SetPage(n)
}

// SetFuelPageSize switches the fuel rows-per-page setting.
func (a *App) SetFuelPageSize(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fuel.SetPageSize(n)
}

// SetFuelFilter switches the rolling period and refetches when the
// period actually changed.
func (a *App) SetFuelFilter(ctx context.Context, f listview.DateFilter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fuel.SetFilter(f) {
		a.fuel.Refresh(ctx)
	}
}

// AddMaintenance submits the maintenance create form.
func (a *App) AddMaintenance(ctx context.Context, f MaintenanceFields) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenanceForm.Set(f)
	err := a.maintenanceForm.Submit(ctx, func(ctx context.Context, f MaintenanceFields) error {
		amount, date, err := f.parse()
		if err != nil {
			return err
		}
		return a.svc.InsertMaintenance(ctx, core.MaintenanceRecord{
			UserID:    a.session.User.ID,
			Problem:   f.Problem,
			ServiceAt: f.ServiceAt,
			Amount:    amount,
			Date:      date,
		})
	})
	if err != nil {
		a.hub.Publish(fmt.Sprintf("Could not add maintenance record: %v", err), notify.Error)
		return
	}
	a.hub.Publish("Maintenance record added", notify.Success)
	a.maintenance.Refresh(ctx)
}

// EditMaintenance opens the inline editor on the given row.
func (a *App) EditMaintenance(rowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.maintenance.Rows() {
		if r.ID == rowID {
			a.maintenanceEditor.BeginEdit(rowID, maintenanceFieldsOf(r))
			return
		}
	}
}

// SetMaintenanceStaging replaces the editor's staged values.
func (a *App) SetMaintenanceStaging(f MaintenanceFields) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenanceEditor.SetStaging(f)
}

// CancelMaintenanceEdit discards the open edit.
func (a *App) CancelMaintenanceEdit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenanceEditor.CancelEdit()
}

// SaveMaintenance validates and persists the open edit, then refetches.
func (a *App) SaveMaintenance(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.maintenanceEditor.Save(ctx, func(ctx context.Context, rowID string, f MaintenanceFields) error {
		amount, date, err := f.parse()
		if err != nil {
			return err
		}
		return a.svc.UpdateMaintenance(ctx, a.session.User.ID, rowID, f.Problem, f.ServiceAt, amount, date)
	})
	if err != nil {
		a.hub.Publish(fmt.Sprintf("Could not update maintenance record: %v", err), notify.Error)
		return
	}
	a.hub.Publish("Maintenance record updated", notify.Success)
	a.maintenance.Refresh(ctx)
}

// ArmMaintenanceDelete marks a row for deletion pending confirmation.
func (a *App) ArmMaintenanceDelete(rowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenanceConfirm.Arm(rowID)
}

// DisarmMaintenanceDelete cancels the pending deletion.
func (a *App) DisarmMaintenanceDelete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenanceConfirm.Disarm()
}

// DeleteMaintenance runs the confirmed deletion and refetches.
func (a *App) DeleteMaintenance(ctx context.Context, rowID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.maintenanceConfirm.Delete(ctx, rowID, func(ctx context.Context, rowID string) error {
		return a.svc.DeleteMaintenance(ctx, a.session.User.ID, rowID)
	})
	if err != nil {
		a.hub.Publish(fmt.Sprintf("Could not delete maintenance record: %v", err), notify.Error)
		return
	}
	a.hub.Publish("Maintenance record deleted", notify.Success)
	a.maintenance.Refresh(ctx)
}

// SetMaintenanceSort re-sorts the maintenance table locally.
func (a *App) SetMaintenanceSort(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenance.SetSort(key)
}

// SetMaintenancePage moves the maintenance pagination window.
func (a *App) SetMaintenancePage(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenance.SetPage(n)
}

// SetMaintenancePageSize switches the maintenance rows-per-page setting.
func (a *App) SetMaintenancePageSize(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.maintenance.SetPageSize(n)
}
