package records

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carlog/internal/core"
	"carlog/internal/events"
	"carlog/internal/store"
)

type capturePublisher struct {
	changes []events.RecordChange
	fail    bool
}

func (p *capturePublisher) PublishRecordChange(_ context.Context, m events.RecordChange) error {
	if p.fail {
		return errors.New("broker unreachable")
	}
	p.changes = append(p.changes, m)
	return nil
}

func newTestService(t *testing.T, pub Publisher) (*Service, string) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "records_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	user, err := st.CreateUser(context.Background(), "driver@example.com", "hash", true)
	require.NoError(t, err)
	return NewService(st, pub), user.ID
}

func TestFuelMutationsAnnounceChanges(t *testing.T) {
	pub := &capturePublisher{}
	svc, userID := newTestService(t, pub)
	ctx := context.Background()

	require.NoError(t, svc.InsertFuel(ctx, core.FuelRecord{
		UserID: userID, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 3, 1),
	}))

	rows, err := svc.ListFuel(ctx, userID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	id := rows[0].ID

	require.NoError(t, svc.UpdateFuel(ctx, userID, id, core.Money{Cents: 6000}, core.NewDate(2024, 3, 2)))
	require.NoError(t, svc.DeleteFuel(ctx, userID, id))

	require.Len(t, pub.changes, 3)
	assert.Equal(t, events.ActionInsert, pub.changes[0].Action)
	assert.Equal(t, events.ActionUpdate, pub.changes[1].Action)
	assert.Equal(t, events.ActionDelete, pub.changes[2].Action)
	for _, m := range pub.changes {
		assert.Equal(t, events.TypeFuel, m.RecordType)
		assert.Equal(t, id, m.RecordID)
		assert.Equal(t, userID, m.UserID)
	}
}

func TestMaintenanceMutationsAnnounceChanges(t *testing.T) {
	pub := &capturePublisher{}
	svc, userID := newTestService(t, pub)
	ctx := context.Background()

	require.NoError(t, svc.InsertMaintenance(ctx, core.MaintenanceRecord{
		UserID:    userID,
		Problem:   "brake pads",
		ServiceAt: "City Motors",
		Amount:    core.Money{Cents: 12000},
		Date:      core.NewDate(2024, 4, 5),
	}))

	rows, err := svc.ListMaintenance(ctx, userID, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, svc.DeleteMaintenance(ctx, userID, rows[0].ID))
	require.Len(t, pub.changes, 2)
	assert.Equal(t, events.TypeMaintenance, pub.changes[0].RecordType)
}

func TestFailedMutationPublishesNothing(t *testing.T) {
	pub := &capturePublisher{}
	svc, userID := newTestService(t, pub)
	ctx := context.Background()

	err := svc.UpdateFuel(ctx, userID, "no-such-row", core.Money{Cents: 100}, core.NewDate(2024, 1, 1))
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, pub.changes)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &capturePublisher{fail: true}
	svc, userID := newTestService(t, pub)
	ctx := context.Background()

	require.NoError(t, svc.InsertFuel(ctx, core.FuelRecord{
		UserID: userID, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 3, 1),
	}))
	rows, err := svc.ListFuel(ctx, userID, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "record is durable even when the announcement fails")
}

func TestNilPublisherIsAccepted(t *testing.T) {
	svc, userID := newTestService(t, nil)
	require.NoError(t, svc.InsertFuel(context.Background(), core.FuelRecord{
		UserID: userID, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2024, 3, 1),
	}))
}
