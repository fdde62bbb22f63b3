package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	// DateLayout is the calendar date format used in ids, keys and the API.
	DateLayout = "2006-01-02"

	// DefaultSlotDuration длительность слота в минутах по умолчанию
	DefaultSlotDuration = 60

	// DefaultBoardTTL время жизни доски слотов в кэше
	DefaultBoardTTL = 24 * 60 * 60 // 24 часа в секундах

	// DefaultWarmupDays количество дней, для которых доски генерируются заранее
	DefaultWarmupDays = 7
)
