package shell

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carlog/internal/auth"
	"carlog/internal/core"
	"carlog/internal/listview"
	"carlog/internal/notify"
	"carlog/internal/records"
	"carlog/internal/store"
)

// Long TTL so notices do not expire while a test inspects them.
const testNotificationTTL = time.Minute

type fixture struct {
	provider *auth.Provider
	registry *Registry
	svc      *records.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "shell_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	provider := auth.NewProvider(st, auth.NewBroker(), time.Hour, time.Hour, false)
	svc := records.NewService(st, nil)
	registry := NewRegistry(provider, svc, testNotificationTTL)
	t.Cleanup(registry.Close)
	return &fixture{provider: provider, registry: registry, svc: svc}
}

func (f *fixture) signUp(t *testing.T, email string) *auth.Session {
	t.Helper()
	res, err := f.provider.SignUp(context.Background(), email, "secret123")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	return res.Session
}

func texts(msgs []notify.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestSignInCreatesStateWithLoginNotice(t *testing.T) {
	f := newFixture(t)
	sess := f.signUp(t, "driver@example.com")

	app, err := f.registry.Lookup(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Contains(t, texts(app.Notifications()), "Login successful")
	assert.Equal(t, sess.User.ID, app.Session().User.ID)
}

func TestSignOutTearsDownStateAndNotifiesAnonymously(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")

	_, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, f.provider.SignOut(ctx, sess.Token))

	_, err = f.registry.Lookup(ctx, sess.Token)
	assert.ErrorIs(t, err, auth.ErrNoSession)
	active := f.registry.Anonymous().Active()
	require.Contains(t, texts(active), "Logged out")
	for _, m := range active {
		if m.Text == "Logged out" {
			assert.Equal(t, notify.Success, m.Severity)
		}
	}
}

func TestLookupProbesSessionsIssuedBeforeTheGate(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "shell_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	provider := auth.NewProvider(st, auth.NewBroker(), time.Hour, time.Hour, false)
	res, err := provider.SignUp(context.Background(), "early@example.com", "secret123")
	require.NoError(t, err)

	// The gate comes up after the session exists, as after a restart.
	registry := NewRegistry(provider, records.NewService(st, nil), testNotificationTTL)
	t.Cleanup(registry.Close)

	app, err := registry.Lookup(context.Background(), res.Session.Token)
	require.NoError(t, err)
	assert.Empty(t, app.Notifications(), "a restored session gets no login notice")

	_, err = registry.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrNoSession)
	_, err = registry.Lookup(context.Background(), "bogus-token")
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestAddFuelNotifiesAndRefetches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewFuel)
	today := core.DateOf(time.Now()).String()
	app.AddFuel(ctx, FuelFields{Amount: "52.30", Date: today})

	table := app.FuelTable()
	require.Len(t, table.Rows, 1)
	assert.Equal(t, int64(5230), table.Rows[0].Amount.Cents)
	assert.Empty(t, table.Form.Amount, "form clears after a successful add")
	assert.Contains(t, texts(app.Notifications()), "Fuel record added")
}

func TestAddFuelWithBadAmountNotifiesErrorAndClears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewFuel)
	app.AddFuel(ctx, FuelFields{Amount: "-5", Date: "2024-03-01"})

	table := app.FuelTable()
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Form.Amount, "a rejected insert still clears the form")

	var sawError bool
	for _, m := range app.Notifications() {
		if m.Severity == notify.Error {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestAddFuelKeepsIncompleteInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewFuel)
	app.AddFuel(ctx, FuelFields{Amount: "52.30"})

	table := app.FuelTable()
	assert.Equal(t, "52.30", table.Form.Amount, "required-field failures keep the input")
}

func TestEditFuelRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewFuel)
	today := core.DateOf(time.Now()).String()
	app.AddFuel(ctx, FuelFields{Amount: "52.30", Date: today})
	rowID := app.FuelTable().Rows[0].ID

	app.EditFuel(rowID)
	table := app.FuelTable()
	assert.Equal(t, rowID, table.EditingRow)
	assert.Equal(t, "52.30", table.Staging.Amount, "editor prefills from the fetched copy")

	app.SetFuelStaging(FuelFields{Amount: "60.00", Date: today})
	app.SaveFuel(ctx)

	table = app.FuelTable()
	assert.Empty(t, table.EditingRow)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, int64(6000), table.Rows[0].Amount.Cents)
	assert.Contains(t, texts(app.Notifications()), "Fuel record updated")
}

func TestDeleteFuelNeedsArming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewFuel)
	today := core.DateOf(time.Now()).String()
	app.AddFuel(ctx, FuelFields{Amount: "52.30", Date: today})
	rowID := app.FuelTable().Rows[0].ID

	// Unarmed delete is refused and the row survives.
	app.DeleteFuel(ctx, rowID)
	assert.Len(t, app.FuelTable().Rows, 1)

	app.ArmFuelDelete(rowID)
	assert.Equal(t, rowID, app.FuelTable().Armed)
	app.DeleteFuel(ctx, rowID)

	table := app.FuelTable()
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Armed)
	assert.Contains(t, texts(app.Notifications()), "Fuel record deleted")
}

func TestFuelFilterHidesOldRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	old := core.DateOf(time.Now().AddDate(0, -6, 0))
	require.NoError(t, f.svc.InsertFuel(ctx, core.FuelRecord{
		UserID: sess.User.ID, Amount: core.Money{Cents: 1000}, Date: old,
	}))

	app.OpenView(ctx, ViewFuel)
	assert.Empty(t, app.FuelTable().Rows, "default one-month filter hides a six-month-old record")

	app.SetFuelFilter(ctx, listview.FilterAll)
	assert.Len(t, app.FuelTable().Rows, 1)
}

func TestOpenViewRemountsTables(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewFuel)
	app.SetFuelFilter(ctx, listview.FilterAll)
	app.SetFuelSort(listview.SortAmount)

	app.OpenView(ctx, ViewHome)
	table := app.FuelTable()
	assert.Equal(t, listview.FilterMonth, table.Meta.Filter, "navigation remounts with default filter")
	assert.Equal(t, listview.SortDate, table.Meta.SortKey)
	assert.Equal(t, listview.Ready, table.Meta.Phase)
	assert.Equal(t, listview.Ready, app.MaintenanceTable().Meta.Phase, "home mounts both tables")

	app.OpenView(ctx, ViewProfile)
	assert.Equal(t, listview.Idle, app.FuelTable().Meta.Phase, "hidden tables return to idle")
}

func TestMaintenanceAddAndSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.signUp(t, "driver@example.com")
	app, err := f.registry.Lookup(ctx, sess.Token)
	require.NoError(t, err)

	app.OpenView(ctx, ViewMaintenance)
	app.AddMaintenance(ctx, MaintenanceFields{
		Problem:   "brake pads",
		ServiceAt: "City Motors",
		Amount:    "120.00",
		Date:      "2024-04-05",
	})

	table := app.MaintenanceTable()
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "brake pads", table.Rows[0].Problem)
	assert.False(t, table.Meta.Filterable, "maintenance carries no date filter")
	assert.Equal(t, int64(12000), table.Meta.Total.Cents)
}

func TestParseViewDefaultsToHome(t *testing.T) {
	assert.Equal(t, ViewHome, ParseView(""))
	assert.Equal(t, ViewHome, ParseView("nope"))
	assert.Equal(t, ViewFuel, ParseView("fuel"))
	assert.Equal(t, ViewMaintenance, ParseView("maintenance"))
	assert.Equal(t, ViewProfile, ParseView("profile"))
}
