package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"slotdesk/internal/database"
	"slotdesk/internal/events"
	"slotdesk/internal/models"
	"slotdesk/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func statuses(b *models.Board) map[string]models.SlotStatus {
	out := make(map[string]models.SlotStatus, len(b.Slots))
	for _, s := range b.Slots {
		out[s.StartTime] = s.Status
	}
	return out
}

func TestBoardService_GetBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	board, err := f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)

	// Default Monday: 09:00-18:00 with a 13:00-14:00 break, 60 minute slots.
	require.Len(t, board.Slots, 8)
	assert.Equal(t, "2024-05-06", board.Date)
	assert.Equal(t, models.SlotStats{TotalSlots: 8, AvailableSlots: 6, BlockedSlots: 2}, slots.ComputeStats(board.Slots))
	assert.NotContains(t, statuses(board), "13:00")

	var payload events.BoardEventPayload
	f.events.last(t, events.EventSlotsGenerated, &payload)
	assert.Equal(t, "miss", payload.Reason)
	assert.Equal(t, 8, payload.Total)

	again, err := f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)
	assert.Equal(t, board.GeneratedAt, again.GeneratedAt)
	assert.Equal(t, 1, f.events.count(events.EventSlotsGenerated))
}

func TestBoardService_ClosedAndBlockedDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sunday := monday.AddDate(0, 0, -1)
	board, err := f.board.GetBoard(ctx, 1, sunday)
	require.NoError(t, err)
	assert.Empty(t, board.Slots)
	assert.NotNil(t, board.Slots)

	require.NoError(t, f.schedule.BlockDate(ctx, 1, monday, "inventory"))
	board, err = f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)
	assert.Empty(t, board.Slots)

	require.NoError(t, f.schedule.UnblockDate(ctx, 1, monday))
	board, err = f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)
	assert.Len(t, board.Slots, 8)
}

func TestBoardService_ConfigChangeDiscardsEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.board.ToggleSlot(ctx, 1, monday, "2024-05-06T15:00")
	require.NoError(t, err)

	require.NoError(t, f.schedule.UpdateSlotSettings(ctx, 1, models.SlotSettings{DefaultDuration: 30}))

	board, err := f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)
	assert.Len(t, board.Slots, 16)
	assert.Equal(t, models.SlotAvailable, statuses(board)["15:00"])

	var payload events.BoardEventPayload
	f.events.last(t, events.EventSlotsGenerated, &payload)
	assert.Equal(t, "stale", payload.Reason)
}

func TestBoardService_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slot, err := f.board.ToggleSlot(ctx, 1, monday, "2024-05-06T11:00")
	require.NoError(t, err)
	assert.Equal(t, models.SlotBlocked, slot.Status)
	assert.Equal(t, 1, f.events.count(events.EventSlotBlocked))

	slot, err = f.board.ToggleSlot(ctx, 1, monday, "2024-05-06T11:00")
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, slot.Status)
	assert.Equal(t, 1, f.events.count(events.EventSlotUnblocked))

	_, err = f.board.ToggleSlot(ctx, 1, monday, "2024-05-06T13:00")
	assert.ErrorIs(t, err, slots.ErrSlotNotFound)
}

func TestBoardService_BulkBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ids := []string{"2024-05-06T14:00", "2024-05-06T15:00", "2024-05-06T99:00"}
	res, err := f.board.BlockSlots(ctx, 1, monday, ids)
	require.NoError(t, err)
	assert.Equal(t, ids[:2], res.Changed)
	assert.Equal(t, ids[2:], res.Missing)

	stats, err := f.board.Stats(ctx, 1, monday)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.BlockedSlots)

	var payload events.SlotEventPayload
	f.events.last(t, events.EventSlotBlocked, &payload)
	assert.Equal(t, ids[:2], payload.SlotIDs)

	res, err = f.board.UnblockSlots(ctx, 1, monday, ids[:1])
	require.NoError(t, err)
	assert.Equal(t, ids[:1], res.Changed)

	// Nothing changes, nothing is published.
	res, err = f.board.UnblockSlots(ctx, 1, monday, ids[:1])
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Equal(t, 1, f.events.count(events.EventSlotUnblocked))
}

func TestBoardService_BookAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := models.BookingRequest{CustomerName: " Olga ", CustomerPhone: "+7 900", Vehicle: "Kia Rio", ServiceType: "tyres"}

	_, err := f.board.BookSlot(ctx, 1, monday, "2024-05-06T11:00", models.BookingRequest{})
	assert.ErrorIs(t, err, ErrInvalidBooking)

	booking, err := f.board.BookSlot(ctx, 1, monday, "2024-05-06T11:00", req)
	require.NoError(t, err)
	assert.Equal(t, "Olga", booking.CustomerName)
	assert.Equal(t, "11:00", booking.StartTime)
	assert.Equal(t, "12:00", booking.EndTime)
	_, err = uuid.Parse(booking.Reference)
	assert.NoError(t, err)

	board, err := f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)
	slot := board.Slots[slots.IndexOf(board.Slots, "2024-05-06T11:00")]
	assert.Equal(t, models.SlotBooked, slot.Status)
	assert.Equal(t, booking.ID, slot.BookingID)
	assert.Equal(t, "Olga, +7 900, Kia Rio", slot.CustomerInfo)
	assert.Equal(t, "tyres", slot.ServiceType)

	t.Run("BookedSlotRejectsCommands", func(t *testing.T) {
		_, err := f.board.BookSlot(ctx, 1, monday, "2024-05-06T11:00", req)
		assert.ErrorIs(t, err, slots.ErrSlotNotAvailable)

		_, err = f.board.ToggleSlot(ctx, 1, monday, "2024-05-06T11:00")
		assert.ErrorIs(t, err, slots.ErrSlotBooked)
	})

	t.Run("PastSlotIsNotBookable", func(t *testing.T) {
		_, err := f.board.BookSlot(ctx, 1, monday, "2024-05-06T09:00", req)
		assert.ErrorIs(t, err, slots.ErrSlotNotAvailable)
	})

	t.Run("RegenerateKeepsBookings", func(t *testing.T) {
		_, err := f.board.BlockSlots(ctx, 1, monday, []string{"2024-05-06T16:00"})
		require.NoError(t, err)

		board, err := f.board.Regenerate(ctx, 1, monday)
		require.NoError(t, err)
		st := statuses(board)
		assert.Equal(t, models.SlotBooked, st["11:00"])
		assert.Equal(t, models.SlotAvailable, st["16:00"])
	})

	t.Run("CancelWrongProvider", func(t *testing.T) {
		_, err := f.board.CancelBooking(ctx, 2, booking.ID, booking.Version)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("CancelStaleVersion", func(t *testing.T) {
		_, err := f.board.CancelBooking(ctx, 1, booking.ID, booking.Version+5)
		assert.ErrorIs(t, err, database.ErrConcurrentModification)
	})

	t.Run("Cancel", func(t *testing.T) {
		cancelled, err := f.board.CancelBooking(ctx, 1, booking.ID, booking.Version)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		assert.Equal(t, booking.Version+1, cancelled.Version)

		board, err := f.board.GetBoard(ctx, 1, monday)
		require.NoError(t, err)
		assert.Equal(t, models.SlotAvailable, statuses(board)["11:00"])

		var payload events.BookingEventPayload
		f.events.last(t, events.EventBookingCancelled, &payload)
		assert.Equal(t, []string{"2024-05-06T11:00"}, payload.SlotIDs)

		_, err = f.board.CancelBooking(ctx, 1, booking.ID, cancelled.Version)
		assert.ErrorIs(t, err, ErrBookingCancelled)
	})
}

func TestBoardService_CachedBoardExpiresPastSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)

	f.now = time.Date(2024, 5, 6, 14, 5, 0, 0, time.UTC)
	board, err := f.board.GetBoard(ctx, 1, monday)
	require.NoError(t, err)

	st := statuses(board)
	for _, start := range []string{"09:00", "10:00", "11:00", "12:00", "14:00"} {
		assert.Equal(t, models.SlotBlocked, st[start], start)
	}
	assert.Equal(t, models.SlotAvailable, st["15:00"])
	assert.Equal(t, 1, f.events.count(events.EventSlotsGenerated))
}

func TestBoardService_Timezone(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("UTC+3", 3*60*60)
	logger := zerolog.New(io.Discard)
	svc := NewBoardService(f.schedule, f.db, f.boards, nil, loc, &logger)
	// 07:30 UTC is 10:30 in the provider's zone.
	svc.SetClock(func() time.Time { return time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC) })

	board, err := svc.GetBoard(context.Background(), 9, monday)
	require.NoError(t, err)
	st := statuses(board)
	assert.Equal(t, models.SlotBlocked, st["10:00"])
	assert.Equal(t, models.SlotAvailable, st["11:00"])
	assert.Equal(t, loc, svc.Location())
}

func TestBoardService_Warmup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ready, err := f.board.Warmup(ctx, 1, monday, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, ready)
	assert.Equal(t, 7, f.events.count(events.EventSlotsGenerated))

	cached, err := f.boards.GetBoard(ctx, 1, "2024-05-12")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Empty(t, cached.Slots, "sunday is closed")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	ready, err = f.board.Warmup(cancelled, 1, monday, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ready)
}

type mockBoards struct {
	mock.Mock
}

func (m *mockBoards) GetBoard(ctx context.Context, providerID int64, date string) (*models.Board, error) {
	args := m.Called(ctx, providerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *mockBoards) SaveBoard(ctx context.Context, board *models.Board) error {
	return m.Called(ctx, board).Error(0)
}

func (m *mockBoards) DeleteBoard(ctx context.Context, providerID int64, date string) error {
	return m.Called(ctx, providerID, date).Error(0)
}

func TestBoardService_CacheFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	boards := new(mockBoards)
	boards.On("GetBoard", ctx, int64(1), "2024-05-06").Return(nil, errors.New("redis down"))
	boards.On("SaveBoard", ctx, mock.Anything).Return(errors.New("redis down"))

	svc := NewBoardService(f.schedule, f.db, boards, nil, time.UTC, &logger)
	svc.SetClock(func() time.Time { return mondayNow })

	board, err := svc.GetBoard(ctx, 1, monday)
	require.NoError(t, err, "reads survive a broken cache")
	assert.Len(t, board.Slots, 8)

	_, err = svc.ToggleSlot(ctx, 1, monday, "2024-05-06T11:00")
	assert.Error(t, err, "commands that cannot be stored fail")
	boards.AssertExpectations(t)
}
