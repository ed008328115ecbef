package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"carlog/internal/core"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	owner string
	other string
}

func (s *StoreTestSuite) SetupTest() {
	st, err := New(filepath.Join(s.T().TempDir(), "carlog_test.db"))
	require.NoError(s.T(), err, "failed to create test database")
	s.store = st
	s.ctx = context.Background()

	u1, err := st.CreateUser(s.ctx, "owner@example.com", "hash1", true)
	require.NoError(s.T(), err)
	u2, err := st.CreateUser(s.ctx, "other@example.com", "hash2", true)
	require.NoError(s.T(), err)
	s.owner = u1.ID
	s.other = u2.ID
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreTestSuite) fuel(cents int64, date core.Date) core.FuelRecord {
	return core.FuelRecord{UserID: s.owner, Amount: core.Money{Cents: cents}, Date: date}
}

func (s *StoreTestSuite) TestInsertFuelThenListYieldsRow() {
	id, err := s.store.InsertFuel(s.ctx, s.fuel(5000, core.NewDate(2024, 3, 1)))
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), id)

	from := core.NewDate(2024, 2, 15)
	records, err := s.store.ListFuel(s.ctx, s.owner, &from)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), id, records[0].ID)
	assert.Equal(s.T(), s.owner, records[0].UserID)
	assert.Equal(s.T(), int64(5000), records[0].Amount.Cents)
	assert.Equal(s.T(), "2024-03-01", records[0].Date.String())
}

func (s *StoreTestSuite) TestListFuelLowerBoundExcludesOlderRows() {
	_, err := s.store.InsertFuel(s.ctx, s.fuel(1000, core.NewDate(2024, 1, 10)))
	require.NoError(s.T(), err)
	_, err = s.store.InsertFuel(s.ctx, s.fuel(2000, core.NewDate(2024, 3, 1)))
	require.NoError(s.T(), err)

	from := core.NewDate(2024, 2, 15)
	records, err := s.store.ListFuel(s.ctx, s.owner, &from)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), int64(2000), records[0].Amount.Cents)

	// Boundary date is included (date >= cutoff).
	from = core.NewDate(2024, 3, 1)
	records, err = s.store.ListFuel(s.ctx, s.owner, &from)
	require.NoError(s.T(), err)
	assert.Len(s.T(), records, 1)
}

func (s *StoreTestSuite) TestListFuelOrderedByDateDescending() {
	dates := []core.Date{
		core.NewDate(2024, 1, 5),
		core.NewDate(2024, 3, 9),
		core.NewDate(2024, 2, 20),
	}
	for i, d := range dates {
		_, err := s.store.InsertFuel(s.ctx, s.fuel(int64(i+1)*100, d))
		require.NoError(s.T(), err)
	}

	records, err := s.store.ListFuel(s.ctx, s.owner, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 3)
	assert.Equal(s.T(), "2024-03-09", records[0].Date.String())
	assert.Equal(s.T(), "2024-02-20", records[1].Date.String())
	assert.Equal(s.T(), "2024-01-05", records[2].Date.String())
}

func (s *StoreTestSuite) TestFuelOwnershipScoping() {
	_, err := s.store.InsertFuel(s.ctx, s.fuel(5000, core.NewDate(2024, 3, 1)))
	require.NoError(s.T(), err)

	records, err := s.store.ListFuel(s.ctx, s.other, nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records, "records must never leak across users")
}

func (s *StoreTestSuite) TestUpdateFuel() {
	id, err := s.store.InsertFuel(s.ctx, s.fuel(5000, core.NewDate(2024, 3, 1)))
	require.NoError(s.T(), err)

	err = s.store.UpdateFuel(s.ctx, s.owner, id, core.Money{Cents: 7500}, core.NewDate(2024, 3, 2))
	require.NoError(s.T(), err)

	records, err := s.store.ListFuel(s.ctx, s.owner, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), int64(7500), records[0].Amount.Cents)
	assert.Equal(s.T(), "2024-03-02", records[0].Date.String())

	// Another user's id is invisible.
	err = s.store.UpdateFuel(s.ctx, s.other, id, core.Money{Cents: 1}, core.NewDate(2024, 3, 2))
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestDeleteFuelMissingIDReportsNotFound() {
	err := s.store.DeleteFuel(s.ctx, s.owner, "no-such-id")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	id, err := s.store.InsertFuel(s.ctx, s.fuel(5000, core.NewDate(2024, 3, 1)))
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.store.DeleteFuel(s.ctx, s.owner, id))

	// Second delete of the same id is an error, not a silent no-op.
	err = s.store.DeleteFuel(s.ctx, s.owner, id)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestMaintenanceCRUD() {
	rec := core.MaintenanceRecord{
		UserID:    s.owner,
		Problem:   "brake pads",
		ServiceAt: "City Motors",
		Amount:    core.Money{Cents: 12000},
		Date:      core.NewDate(2024, 3, 1),
	}
	id, err := s.store.InsertMaintenance(s.ctx, rec)
	require.NoError(s.T(), err)

	records, err := s.store.ListMaintenance(s.ctx, s.owner, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "brake pads", records[0].Problem)
	assert.Equal(s.T(), "City Motors", records[0].ServiceAt)

	err = s.store.UpdateMaintenance(s.ctx, s.owner, id, "brake discs", "Highway Garage",
		core.Money{Cents: 30000}, core.NewDate(2024, 3, 5))
	require.NoError(s.T(), err)

	records, err = s.store.ListMaintenance(s.ctx, s.owner, nil)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 1)
	assert.Equal(s.T(), "brake discs", records[0].Problem)
	assert.Equal(s.T(), int64(30000), records[0].Amount.Cents)

	require.NoError(s.T(), s.store.DeleteMaintenance(s.ctx, s.owner, id))
	err = s.store.DeleteMaintenance(s.ctx, s.owner, id)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestInsertMaintenanceRejectsEmptyFields() {
	_, err := s.store.InsertMaintenance(s.ctx, core.MaintenanceRecord{
		UserID: s.owner, Problem: " ", ServiceAt: "x",
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 1),
	})
	assert.ErrorIs(s.T(), err, core.ErrEmptyProblem)
}

func (s *StoreTestSuite) TestDuplicateEmailReportsEmailTaken() {
	_, err := s.store.CreateUser(s.ctx, "owner@example.com", "hash", true)
	assert.ErrorIs(s.T(), err, ErrEmailTaken)
}

func (s *StoreTestSuite) TestSessionLifecycle() {
	err := s.store.CreateSession(s.ctx, "tok-1", s.owner, time.Now().Add(time.Hour))
	require.NoError(s.T(), err)

	sess, user, err := s.store.GetSession(s.ctx, "tok-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.owner, sess.UserID)
	assert.Equal(s.T(), "owner@example.com", user.Email)

	require.NoError(s.T(), s.store.DeleteSession(s.ctx, "tok-1"))
	_, _, err = s.store.GetSession(s.ctx, "tok-1")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestExpiredSessionsInvisibleAndPruned() {
	require.NoError(s.T(), s.store.CreateSession(s.ctx, "stale", s.owner, time.Now().Add(-time.Minute)))
	require.NoError(s.T(), s.store.CreateSession(s.ctx, "fresh", s.owner, time.Now().Add(time.Hour)))

	_, _, err := s.store.GetSession(s.ctx, "stale")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	tokens, err := s.store.DeleteExpiredSessions(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), []string{"stale"}, tokens)

	_, _, err = s.store.GetSession(s.ctx, "fresh")
	assert.NoError(s.T(), err)
}

func (s *StoreTestSuite) TestResetTokenConsumedOnce() {
	err := s.store.CreateResetToken(s.ctx, "rt-1", s.owner, "http://localhost/", time.Now().Add(time.Hour))
	require.NoError(s.T(), err)

	userID, redirect, err := s.store.ConsumeResetToken(s.ctx, "rt-1")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.owner, userID)
	assert.Equal(s.T(), "http://localhost/", redirect)

	_, _, err = s.store.ConsumeResetToken(s.ctx, "rt-1")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestAuditAppendAndList() {
	e := AuditEntry{
		RecordType: "fuel", RecordID: "r1", UserID: s.owner,
		Action: "insert", OccurredAt: time.Now(),
	}
	require.NoError(s.T(), s.store.AppendAudit(s.ctx, e))
	e.Action = "delete"
	require.NoError(s.T(), s.store.AppendAudit(s.ctx, e))

	entries, err := s.store.ListAudit(s.ctx, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 2)
	assert.Equal(s.T(), "delete", entries[0].Action, "newest first")
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
