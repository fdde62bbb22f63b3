package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"slotdesk/internal/database"
	"slotdesk/internal/domain"
	"slotdesk/internal/events"
	"slotdesk/internal/metrics"
	"slotdesk/internal/models"
	"slotdesk/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	reasonMiss   = "miss"
	reasonStale  = "stale"
	reasonManual = "manual"
)

// BoardService owns the slot boards: it generates them from the provider's
// schedule, caches them in the board repository and applies status commands
// and bookings to the cached lists.
type BoardService struct {
	schedule *ScheduleService
	bookings domain.BookingRepository
	boards   domain.BoardRepository
	eventBus domain.EventPublisher
	loc      *time.Location
	now      func() time.Time
	logger   *zerolog.Logger

	// mu serializes read-modify-write cycles on cached boards.
	mu sync.Mutex
}

func NewBoardService(
	schedule *ScheduleService,
	bookings domain.BookingRepository,
	boards domain.BoardRepository,
	eventBus domain.EventPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *BoardService {
	if loc == nil {
		loc = time.UTC
	}
	return &BoardService{
		schedule: schedule,
		bookings: bookings,
		boards:   boards,
		eventBus: eventBus,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source used to decide which slots are past.
func (s *BoardService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *BoardService) Location() *time.Location {
	return s.loc
}

// day pins a calendar date to midnight in the service location.
func (s *BoardService) day(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
}

type boardInputs struct {
	weekly      models.WeeklySchedule
	settings    models.SlotSettings
	blocked     bool
	fingerprint string
}

func (s *BoardService) inputs(ctx context.Context, providerID int64, day time.Time) (boardInputs, error) {
	var in boardInputs
	var err error

	if in.weekly, err = s.schedule.GetWeeklySchedule(ctx, providerID); err != nil {
		return in, err
	}
	if in.settings, err = s.schedule.GetSlotSettings(ctx, providerID); err != nil {
		return in, err
	}
	if in.blocked, err = s.schedule.IsDateBlocked(ctx, providerID, day); err != nil {
		return in, err
	}

	workingDay := in.weekly.Day(models.WeekdayOf(day.Weekday()))
	in.fingerprint = slots.Fingerprint(workingDay, in.settings, in.blocked)
	return in, nil
}

// load returns the current board of a date, regenerating it when it is not
// cached or was generated from different inputs. Callers hold s.mu.
func (s *BoardService) load(ctx context.Context, providerID int64, day time.Time) (*models.Board, error) {
	in, err := s.inputs(ctx, providerID, day)
	if err != nil {
		return nil, err
	}

	date := day.Format(models.DateLayout)
	cached, err := s.boards.GetBoard(ctx, providerID, date)
	if err != nil {
		s.logger.Warn().Err(err).Int64("provider_id", providerID).Str("date", date).Msg("Board cache read failed")
		cached = nil
	}

	switch {
	case cached == nil:
		return s.build(ctx, providerID, day, in, reasonMiss)
	case cached.Fingerprint != in.fingerprint:
		return s.build(ctx, providerID, day, in, reasonStale)
	}

	if n := slots.ExpirePast(cached.Slots, day, s.now()); n > 0 {
		s.save(ctx, cached)
	}
	return cached, nil
}

// build generates a fresh board, reconciles it with the active bookings of
// the date and stores it. Local status edits of a previous board are lost.
func (s *BoardService) build(ctx context.Context, providerID int64, day time.Time, in boardInputs, reason string) (*models.Board, error) {
	date := day.Format(models.DateLayout)

	list := []models.TimeSlot{}
	if !in.blocked {
		generated, err := slots.Generate(day, in.weekly, in.settings, s.now())
		if err != nil {
			return nil, err
		}
		list = generated

		bookings, err := s.bookings.ListBookingsForDate(ctx, providerID, date)
		if err != nil {
			return nil, err
		}
		slots.ApplyBookings(list, bookings)
	}

	board := &models.Board{
		ProviderID:  providerID,
		Date:        date,
		Fingerprint: in.fingerprint,
		GeneratedAt: s.now().UTC(),
		Slots:       list,
	}
	s.save(ctx, board)

	stats := slots.ComputeStats(list)
	metrics.AddSlotsGenerated(len(list))
	metrics.IncBoardRegenerated(reason)
	s.logger.Debug().
		Int64("provider_id", providerID).
		Str("date", date).
		Str("reason", reason).
		Int("total", stats.TotalSlots).
		Msg("Board generated")
	s.publish(events.EventSlotsGenerated, events.BoardEventPayload{
		ProviderID: providerID,
		Date:       date,
		Reason:     reason,
		Total:      stats.TotalSlots,
		Available:  stats.AvailableSlots,
		Blocked:    stats.BlockedSlots,
		Booked:     stats.BookedSlots,
	})

	return board, nil
}

func (s *BoardService) save(ctx context.Context, board *models.Board) {
	if err := s.boards.SaveBoard(ctx, board); err != nil {
		s.logger.Warn().Err(err).Int64("provider_id", board.ProviderID).Str("date", board.Date).Msg("Board cache write failed")
	}
}

// saveStrict persists a board after a status command and reports failures.
func (s *BoardService) saveStrict(ctx context.Context, board *models.Board) error {
	return s.boards.SaveBoard(ctx, board)
}

func (s *BoardService) GetBoard(ctx context.Context, providerID int64, date time.Time) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.load(ctx, providerID, s.day(date))
	if err != nil {
		return nil, err
	}
	return board.Clone(), nil
}

// Regenerate rebuilds the board unconditionally.
func (s *BoardService) Regenerate(ctx context.Context, providerID int64, date time.Time) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.day(date)
	in, err := s.inputs(ctx, providerID, day)
	if err != nil {
		return nil, err
	}
	board, err := s.build(ctx, providerID, day, in, reasonManual)
	if err != nil {
		return nil, err
	}
	return board.Clone(), nil
}

func (s *BoardService) ToggleSlot(ctx context.Context, providerID int64, date time.Time, slotID string) (*models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.load(ctx, providerID, s.day(date))
	if err != nil {
		return nil, err
	}

	status, err := slots.Toggle(board.Slots, slotID)
	if err != nil {
		return nil, err
	}
	if err := s.saveStrict(ctx, board); err != nil {
		return nil, err
	}

	metrics.AddStatusChanges("toggle", 1)
	eventType := events.EventSlotUnblocked
	if status == models.SlotBlocked {
		eventType = events.EventSlotBlocked
	}
	s.publish(eventType, events.SlotEventPayload{ProviderID: providerID, Date: board.Date, SlotIDs: []string{slotID}})

	slot := board.Slots[slots.IndexOf(board.Slots, slotID)]
	return &slot, nil
}

func (s *BoardService) BlockSlots(ctx context.Context, providerID int64, date time.Time, ids []string) (slots.BulkResult, error) {
	return s.bulk(ctx, providerID, date, ids, true)
}

func (s *BoardService) UnblockSlots(ctx context.Context, providerID int64, date time.Time, ids []string) (slots.BulkResult, error) {
	return s.bulk(ctx, providerID, date, ids, false)
}

func (s *BoardService) bulk(ctx context.Context, providerID int64, date time.Time, ids []string, block bool) (slots.BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.load(ctx, providerID, s.day(date))
	if err != nil {
		return slots.BulkResult{}, err
	}

	action, eventType := "unblock", events.EventSlotUnblocked
	var res slots.BulkResult
	if block {
		action, eventType = "block", events.EventSlotBlocked
		res = slots.Block(board.Slots, ids)
	} else {
		res = slots.Unblock(board.Slots, ids)
	}

	if len(res.Changed) == 0 {
		return res, nil
	}
	if err := s.saveStrict(ctx, board); err != nil {
		return slots.BulkResult{}, err
	}

	metrics.AddStatusChanges(action, len(res.Changed))
	s.publish(eventType, events.SlotEventPayload{ProviderID: providerID, Date: board.Date, SlotIDs: res.Changed})
	return res, nil
}

func (s *BoardService) Stats(ctx context.Context, providerID int64, date time.Time) (models.SlotStats, error) {
	board, err := s.GetBoard(ctx, providerID, date)
	if err != nil {
		return models.SlotStats{}, err
	}
	return slots.ComputeStats(board.Slots), nil
}

// BookSlot reserves an available slot for a customer.
func (s *BoardService) BookSlot(ctx context.Context, providerID int64, date time.Time, slotID string, req models.BookingRequest) (*models.Booking, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, ErrInvalidBooking
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	board, err := s.load(ctx, providerID, s.day(date))
	if err != nil {
		return nil, err
	}

	i := slots.IndexOf(board.Slots, slotID)
	if i < 0 {
		return nil, slots.ErrSlotNotFound
	}
	slot := board.Slots[i]
	if slot.Status != models.SlotAvailable {
		return nil, slots.ErrSlotNotAvailable
	}

	booking := &models.Booking{
		Reference:     uuid.NewString(),
		ProviderID:    providerID,
		Date:          board.Date,
		StartTime:     slot.StartTime,
		EndTime:       slot.EndTime,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Vehicle:       strings.TrimSpace(req.Vehicle),
		ServiceType:   strings.TrimSpace(req.ServiceType),
		Notes:         strings.TrimSpace(req.Notes),
		Status:        models.StatusPending,
	}
	if err := s.bookings.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	marked := slots.ApplyBookings(board.Slots, []models.Booking{*booking})
	s.save(ctx, board)

	metrics.AddStatusChanges("book", marked)
	s.logger.Info().
		Int64("provider_id", providerID).
		Int64("booking_id", booking.ID).
		Str("slot_id", slotID).
		Msg("Slot booked")
	s.publish(events.EventBookingCreated, bookingPayload(booking, []string{slotID}))

	return booking, nil
}

// CancelBooking cancels a booking of the provider if its version still
// matches and frees the slots it held.
func (s *BoardService) CancelBooking(ctx context.Context, providerID, bookingID, version int64) (*models.Booking, error) {
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ProviderID != providerID {
		return nil, database.ErrNotFound
	}
	if !booking.IsActive() {
		return nil, ErrBookingCancelled
	}

	if err := s.bookings.UpdateBookingStatusWithVersion(ctx, bookingID, version, models.StatusCancelled); err != nil {
		return nil, err
	}
	booking.Status = models.StatusCancelled
	booking.Version = version + 1

	date, err := time.ParseInLocation(models.DateLayout, booking.Date, s.loc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var released []string
	board, err := s.load(ctx, providerID, date)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", bookingID).Msg("Failed to release slots of cancelled booking")
	} else if released = slots.Release(board.Slots, bookingID); len(released) > 0 {
		s.save(ctx, board)
		metrics.AddStatusChanges("release", len(released))
	}

	s.logger.Info().Int64("provider_id", providerID).Int64("booking_id", bookingID).Msg("Booking cancelled")
	s.publish(events.EventBookingCancelled, bookingPayload(booking, released))

	return booking, nil
}

// Warmup makes sure boards exist for days consecutive dates starting at from.
// It returns the number of boards available afterwards.
func (s *BoardService) Warmup(ctx context.Context, providerID int64, from time.Time, days int) (int, error) {
	ready := 0
	start := s.day(from)
	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			return ready, err
		}
		if _, err := s.GetBoard(ctx, providerID, start.AddDate(0, 0, i)); err != nil {
			return ready, err
		}
		ready++
	}
	return ready, nil
}

func bookingPayload(b *models.Booking, slotIDs []string) events.BookingEventPayload {
	return events.BookingEventPayload{
		BookingID:  b.ID,
		Reference:  b.Reference,
		ProviderID: b.ProviderID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     b.Status,
		SlotIDs:    slotIDs,
	}
}

func (s *BoardService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
