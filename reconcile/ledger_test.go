package reconcile_test

import (
	"context"
	"society_tickets/database/dbtest"
	"society_tickets/model"
	"society_tickets/reconcile"
	"society_tickets/repository"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRemaining(t *testing.T) {
	db := dbtest.Open(t)
	event := seedEvent(t, db, 3)
	ledger := reconcile.NewLedger(repository.NewAttendeeRepository(db))
	ctx := context.Background()

	remaining, err := ledger.Remaining(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&model.Attendee{
			Name: "Guest", Email: "g@example.com", Code: "SS-TEST000" + string(rune('A'+i)),
			EventID: event.ID, PurchaseID: uuid.NewString(), Quantity: 1,
		}).Error)
	}

	stats, err := ledger.Snapshot(ctx, event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.AttendeeCount)
	assert.Equal(t, 1, stats.Remaining)
	assert.False(t, stats.IsFull)
}

func TestLedgerFloorsAtZero(t *testing.T) {
	db := dbtest.Open(t)
	event := seedEvent(t, db, 2)
	for i := 0; i < 2; i++ {
		require.NoError(t, db.Create(&model.Attendee{
			Name: "Guest", Email: "g@example.com", Code: "SS-FULL000" + string(rune('A'+i)),
			EventID: event.ID, PurchaseID: uuid.NewString(), Quantity: 1,
		}).Error)
	}
	// An admin shrank capacity below the head count directly in the database.
	require.NoError(t, db.Model(&model.Event{}).Where("id = ?", event.ID).Update("capacity", 1).Error)

	stats, err := reconcile.NewLedger(repository.NewAttendeeRepository(db)).Snapshot(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Remaining)
	assert.True(t, stats.IsFull)
}

func TestLedgerIgnoresDeletedAttendees(t *testing.T) {
	db := dbtest.Open(t)
	event := seedEvent(t, db, 1)
	a := model.Attendee{
		Name: "Guest", Email: "g@example.com", Code: "SS-GONE000A",
		EventID: event.ID, PurchaseID: uuid.NewString(), Quantity: 1,
	}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Delete(&a).Error)

	remaining, err := reconcile.NewLedger(repository.NewAttendeeRepository(db)).Remaining(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
}

func TestLedgerUnknownEvent(t *testing.T) {
	db := dbtest.Open(t)
	_, err := reconcile.NewLedger(repository.NewAttendeeRepository(db)).Remaining(context.Background(), 42)
	require.ErrorIs(t, err, model.ErrNotFound)
}
