package domain

import (
	"context"
	"time"

	"slotdesk/internal/models"
	"slotdesk/internal/slots"
)

// ScheduleRepository stores the generator inputs of each provider.
type ScheduleRepository interface {
	GetWeeklySchedule(ctx context.Context, providerID int64) (models.WeeklySchedule, error)
	SaveWeeklySchedule(ctx context.Context, providerID int64, weekly models.WeeklySchedule) error
	GetSlotSettings(ctx context.Context, providerID int64) (models.SlotSettings, error)
	SaveSlotSettings(ctx context.Context, providerID int64, settings models.SlotSettings) error
	AddBlockedDate(ctx context.Context, bd models.BlockedDate) error
	RemoveBlockedDate(ctx context.Context, providerID int64, date string) error
	IsDateBlocked(ctx context.Context, providerID int64, date string) (bool, error)
	ListBlockedDates(ctx context.Context, providerID int64, from, to string) ([]models.BlockedDate, error)
}

type BookingRepository interface {
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookingsForDate(ctx context.Context, providerID int64, date string) ([]models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id int64, version int64, status string) error
}

// BoardRepository caches generated boards. GetBoard returns nil, nil when
// no board is stored.
type BoardRepository interface {
	GetBoard(ctx context.Context, providerID int64, date string) (*models.Board, error)
	SaveBoard(ctx context.Context, board *models.Board) error
	DeleteBoard(ctx context.Context, providerID int64, date string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type ScheduleService interface {
	GetWeeklySchedule(ctx context.Context, providerID int64) (models.WeeklySchedule, error)
	UpdateWeeklySchedule(ctx context.Context, providerID int64, weekly models.WeeklySchedule) error
	GetSlotSettings(ctx context.Context, providerID int64) (models.SlotSettings, error)
	UpdateSlotSettings(ctx context.Context, providerID int64, settings models.SlotSettings) error
	BlockDate(ctx context.Context, providerID int64, date time.Time, reason string) error
	UnblockDate(ctx context.Context, providerID int64, date time.Time) error
	ListBlockedDates(ctx context.Context, providerID int64, from, to string) ([]models.BlockedDate, error)
}

type BoardService interface {
	GetBoard(ctx context.Context, providerID int64, date time.Time) (*models.Board, error)
	Regenerate(ctx context.Context, providerID int64, date time.Time) (*models.Board, error)
	ToggleSlot(ctx context.Context, providerID int64, date time.Time, slotID string) (*models.TimeSlot, error)
	BlockSlots(ctx context.Context, providerID int64, date time.Time, ids []string) (slots.BulkResult, error)
	UnblockSlots(ctx context.Context, providerID int64, date time.Time, ids []string) (slots.BulkResult, error)
	Stats(ctx context.Context, providerID int64, date time.Time) (models.SlotStats, error)
	BookSlot(ctx context.Context, providerID int64, date time.Time, slotID string, req models.BookingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, providerID int64, bookingID int64, version int64) (*models.Booking, error)
	Warmup(ctx context.Context, providerID int64, from time.Time, days int) (int, error)
	Location() *time.Location
}
