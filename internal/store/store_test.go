package store

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-gate-backend/internal/db"
	"parking-gate-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// newSqliteDB opens a migrated in-memory database for behavioral tests.
func newSqliteDB(t *testing.T) *gorm.DB {
	gormDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// A second pooled connection would see a fresh empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gormDB))
	return gormDB
}

func TestGormStore_MarkGateOpened(t *testing.T) {
	updateSQL := regexp.QuoteMeta(`UPDATE "reservations" SET "gate_opened"=$1,"updated_at"=$2 WHERE id = $3 AND gate_opened = $4`)
	countSQL := regexp.QuoteMeta(`SELECT count(*) FROM "reservations" WHERE id = $1`)

	testCases := []struct {
		name             string
		mockExpectations func(mock sqlmock.Sqlmock)
		expectedErr      error
	}{
		{
			name: "First confirmation flips the flag",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(updateSQL).
					WithArgs(true, Any{}, "r1", false).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedErr: nil,
		},
		{
			name: "Second confirmation loses the compare-and-set",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(updateSQL).
					WithArgs(true, Any{}, "r1", false).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
				mock.ExpectQuery(countSQL).
					WithArgs("r1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expectedErr: ErrAlreadyOpened,
		},
		{
			name: "Unknown reservation",
			mockExpectations: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(updateSQL).
					WithArgs(true, Any{}, "r1", false).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
				mock.ExpectQuery(countSQL).
					WithArgs("r1").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			s := NewGormStore(gormDB)

			tc.mockExpectations(mock)

			err := s.MarkGateOpened(context.Background(), "r1")
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormStore_AvailableSlots(t *testing.T) {
	gormDB := newSqliteDB(t)
	s := NewGormStore(gormDB)
	ctx := context.Background()

	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateSlot(ctx, &model.Slot{SlotName: "A-1"}))
	require.NoError(t, s.CreateSlot(ctx, &model.Slot{SlotName: "A-2"}))
	require.NoError(t, s.CreateSlot(ctx, &model.Slot{SlotName: "A-3"}))

	// A-1 is held 10:00-12:00, A-2 is held 14:00-16:00.
	require.NoError(t, s.AddReservationToSlot(ctx, "A-1", model.SlotReservation{
		UserID: "u1", StartTime: base, EndTime: base.Add(2 * time.Hour),
	}))
	require.NoError(t, s.AddReservationToSlot(ctx, "A-2", model.SlotReservation{
		UserID: "u2", StartTime: base.Add(4 * time.Hour), EndTime: base.Add(6 * time.Hour),
	}))

	testCases := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected []string
	}{
		{
			name:     "Window overlapping A-1 only",
			start:    base.Add(1 * time.Hour),
			end:      base.Add(3 * time.Hour),
			expected: []string{"A-2", "A-3"},
		},
		{
			name:     "Window overlapping both holds",
			start:    base.Add(1 * time.Hour),
			end:      base.Add(5 * time.Hour),
			expected: []string{"A-3"},
		},
		{
			name:     "Window between the holds",
			start:    base.Add(2 * time.Hour),
			end:      base.Add(4 * time.Hour),
			expected: []string{"A-1", "A-2", "A-3"},
		},
		{
			name:     "Back-to-back window starting at A-1's end is not an overlap",
			start:    base.Add(2 * time.Hour),
			end:      base.Add(3 * time.Hour),
			expected: []string{"A-1", "A-2", "A-3"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			names, err := s.AvailableSlots(ctx, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestGormStore_AddReservationToSlot_UnknownSlot(t *testing.T) {
	s := NewGormStore(newSqliteDB(t))

	err := s.AddReservationToSlot(context.Background(), "nope", model.SlotReservation{
		UserID:    "u1",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_UpdateSlotStatus(t *testing.T) {
	s := NewGormStore(newSqliteDB(t))
	ctx := context.Background()

	require.NoError(t, s.CreateSlot(ctx, &model.Slot{SlotName: "B-1"}))

	require.NoError(t, s.UpdateSlotStatus(ctx, "B-1", model.SlotOccupied))
	slot, err := s.SlotByName(ctx, "B-1")
	require.NoError(t, err)
	assert.Equal(t, model.SlotOccupied, slot.SlotStatus)

	assert.ErrorIs(t, s.UpdateSlotStatus(ctx, "B-9", model.SlotOccupied), ErrNotFound)
}

func TestGormStore_DeleteExpiredSlotReservations(t *testing.T) {
	s := NewGormStore(newSqliteDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSlot(ctx, &model.Slot{SlotName: "C-1"}))
	require.NoError(t, s.AddReservationToSlot(ctx, "C-1", model.SlotReservation{
		UserID: "u1", StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-1 * time.Hour),
	}))
	require.NoError(t, s.AddReservationToSlot(ctx, "C-1", model.SlotReservation{
		UserID: "u2", StartTime: now.Add(-1 * time.Hour), EndTime: now.Add(1 * time.Hour),
	}))

	deleted, err := s.DeleteExpiredSlotReservations(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	slot, err := s.SlotByName(ctx, "C-1")
	require.NoError(t, err)
	require.Len(t, slot.Reservations, 1)
	assert.Equal(t, "u2", slot.Reservations[0].UserID)
}

func TestGormStore_UpsertSubscription(t *testing.T) {
	s := NewGormStore(newSqliteDB(t))
	ctx := context.Background()

	sub := &model.PushSubscription{
		Endpoint: "https://push.example.com/ep-1",
		UserID:   "u1",
		P256DH:   "key-a",
		Auth:     "auth-a",
	}
	require.NoError(t, s.UpsertSubscription(ctx, sub))

	// Re-registering the same endpoint replaces the keys instead of failing.
	sub2 := &model.PushSubscription{
		Endpoint: "https://push.example.com/ep-1",
		UserID:   "u1",
		P256DH:   "key-b",
		Auth:     "auth-b",
	}
	require.NoError(t, s.UpsertSubscription(ctx, sub2))

	subs, err := s.SubscriptionsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key-b", subs[0].P256DH)

	require.NoError(t, s.DeleteSubscription(ctx, "https://push.example.com/ep-1"))
	subs, err = s.SubscriptionsByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	// Deleting an endpoint that no longer exists is reported, not silent.
	assert.ErrorIs(t, s.DeleteSubscription(ctx, "https://push.example.com/ep-1"), ErrNotFound)
}

func TestGormStore_CreateReservationAssignsID(t *testing.T) {
	s := NewGormStore(newSqliteDB(t))
	ctx := context.Background()

	res := &model.Reservation{
		UserID:    "u1",
		Name:      "Tester",
		CarNumber: "KA-01-1234",
		Slot:      "A-1",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(2 * time.Hour),
		Amount:    120,
	}
	require.NoError(t, s.CreateReservation(ctx, res))
	require.NotEmpty(t, res.ID)

	loaded, err := s.Reservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "KA-01-1234", loaded.CarNumber)
	assert.False(t, loaded.GateOpened)

	_, err = s.Reservation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Any is a helper for sqlmock to match any argument.
type Any struct{}

// Match satisfies the sqlmock.Argument interface
func (a Any) Match(v driver.Value) bool {
	return true
}
