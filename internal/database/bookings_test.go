package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"slotdesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(ref, start, end string) *models.Booking {
	return &models.Booking{
		Reference:     ref,
		ProviderID:    1,
		Date:          "2024-05-06",
		StartTime:     start,
		EndTime:       end,
		CustomerName:  "Ivan",
		CustomerPhone: "+79990001122",
		Vehicle:       "Lada Vesta",
		ServiceType:   "oil change",
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newBooking("ref-1", "10:00", "11:00")
	require.NoError(t, db.CreateBookingWithLock(ctx, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, int64(1), b.Version)
	assert.Equal(t, models.StatusPending, b.Status)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", got.Reference)
	assert.Equal(t, "10:00", got.StartTime)
	assert.Equal(t, "Lada Vesta", got.Vehicle)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = db.GetBooking(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingOverlap(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("a", "10:00", "11:00")))

	assert.ErrorIs(t, db.CreateBookingWithLock(ctx, newBooking("b", "10:00", "11:00")), ErrSlotTaken)
	assert.ErrorIs(t, db.CreateBookingWithLock(ctx, newBooking("c", "10:30", "11:30")), ErrSlotTaken)

	// Touching ranges do not overlap.
	assert.NoError(t, db.CreateBookingWithLock(ctx, newBooking("d", "11:00", "12:00")))

	other := newBooking("e", "10:00", "11:00")
	other.ProviderID = 2
	assert.NoError(t, db.CreateBookingWithLock(ctx, other))
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := newBooking("ref", "10:00", "11:00")
	require.NoError(t, db.CreateBookingWithLock(ctx, b))

	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusCancelled))
	assert.ErrorIs(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusConfirmed), ErrConcurrentModification)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, int64(2), got.Version)

	// A cancelled booking frees its range.
	assert.NoError(t, db.CreateBookingWithLock(ctx, newBooking("again", "10:00", "11:00")))
}

func TestListBookingsForDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("late", "15:00", "16:00")))
	require.NoError(t, db.CreateBookingWithLock(ctx, newBooking("early", "09:00", "10:00")))
	next := newBooking("next-day", "09:00", "10:00")
	next.Date = "2024-05-07"
	require.NoError(t, db.CreateBookingWithLock(ctx, next))

	list, err := db.ListBookingsForDate(ctx, 1, "2024-05-06")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "early", list[0].Reference)
	assert.Equal(t, "late", list[1].Reference)

	empty, err := db.ListBookingsForDate(ctx, 3, "2024-05-06")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestConcurrentBooking(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	const numGoroutines = 10
	var wg sync.WaitGroup
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results <- db.CreateBookingWithLock(ctx, newBooking(fmt.Sprintf("ref-%d", id), "12:00", "13:00"))
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}

	// Only one booking may hold the range
	assert.Equal(t, 1, successCount)

	list, err := db.ListBookingsForDate(ctx, 1, "2024-05-06")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
