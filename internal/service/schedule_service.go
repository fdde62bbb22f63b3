package service

import (
	"context"
	"errors"
	"time"

	"slotdesk/internal/database"
	"slotdesk/internal/domain"
	"slotdesk/internal/events"
	"slotdesk/internal/models"
	"slotdesk/internal/slots"

	"github.com/rs/zerolog"
)

// ScheduleService manages the generator inputs of each provider: working
// hours, slot settings and blocked dates.
type ScheduleService struct {
	repo     domain.ScheduleRepository
	eventBus domain.EventPublisher
	defaults models.SlotSettings
	logger   *zerolog.Logger
}

func NewScheduleService(repo domain.ScheduleRepository, eventBus domain.EventPublisher, defaults models.SlotSettings, logger *zerolog.Logger) *ScheduleService {
	if defaults.DefaultDuration <= 0 {
		defaults = models.DefaultSlotSettings()
	}
	return &ScheduleService{
		repo:     repo,
		eventBus: eventBus,
		defaults: defaults,
		logger:   logger,
	}
}

// GetWeeklySchedule falls back to the default schedule for providers that
// never saved their own.
func (s *ScheduleService) GetWeeklySchedule(ctx context.Context, providerID int64) (models.WeeklySchedule, error) {
	weekly, err := s.repo.GetWeeklySchedule(ctx, providerID)
	if errors.Is(err, database.ErrNotFound) {
		return models.DefaultWeeklySchedule(), nil
	}
	return weekly, err
}

func (s *ScheduleService) UpdateWeeklySchedule(ctx context.Context, providerID int64, weekly models.WeeklySchedule) error {
	for d := range weekly {
		if !d.Valid() {
			return &slots.ConfigError{Scope: d.String(), Field: "weekday", Err: errors.New("unknown weekday")}
		}
	}
	if err := slots.ValidateWeekly(weekly); err != nil {
		return err
	}

	if err := s.repo.SaveWeeklySchedule(ctx, providerID, weekly); err != nil {
		return err
	}

	s.logger.Info().Int64("provider_id", providerID).Msg("Working hours updated")
	s.publish(events.EventScheduleUpdated, events.ScheduleEventPayload{ProviderID: providerID, Scope: "working_hours"})
	return nil
}

func (s *ScheduleService) GetSlotSettings(ctx context.Context, providerID int64) (models.SlotSettings, error) {
	settings, err := s.repo.GetSlotSettings(ctx, providerID)
	if errors.Is(err, database.ErrNotFound) {
		return s.defaults, nil
	}
	return settings, err
}

func (s *ScheduleService) UpdateSlotSettings(ctx context.Context, providerID int64, settings models.SlotSettings) error {
	if err := slots.ValidateSettings(settings); err != nil {
		return err
	}
	if err := s.repo.SaveSlotSettings(ctx, providerID, settings); err != nil {
		return err
	}

	s.logger.Info().
		Int64("provider_id", providerID).
		Int("duration", settings.DefaultDuration).
		Int("buffer", settings.BufferTime).
		Msg("Slot settings updated")
	s.publish(events.EventScheduleUpdated, events.ScheduleEventPayload{ProviderID: providerID, Scope: "settings"})
	return nil
}

func (s *ScheduleService) BlockDate(ctx context.Context, providerID int64, date time.Time, reason string) error {
	day := date.Format(models.DateLayout)
	if err := s.repo.AddBlockedDate(ctx, models.BlockedDate{ProviderID: providerID, Date: day, Reason: reason}); err != nil {
		return err
	}
	s.publish(events.EventScheduleUpdated, events.ScheduleEventPayload{ProviderID: providerID, Scope: "blocked_date", Date: day})
	return nil
}

func (s *ScheduleService) UnblockDate(ctx context.Context, providerID int64, date time.Time) error {
	day := date.Format(models.DateLayout)
	if err := s.repo.RemoveBlockedDate(ctx, providerID, day); err != nil {
		return err
	}
	s.publish(events.EventScheduleUpdated, events.ScheduleEventPayload{ProviderID: providerID, Scope: "unblocked_date", Date: day})
	return nil
}

func (s *ScheduleService) ListBlockedDates(ctx context.Context, providerID int64, from, to string) ([]models.BlockedDate, error) {
	return s.repo.ListBlockedDates(ctx, providerID, from, to)
}

func (s *ScheduleService) IsDateBlocked(ctx context.Context, providerID int64, date time.Time) (bool, error) {
	return s.repo.IsDateBlocked(ctx, providerID, date.Format(models.DateLayout))
}

func (s *ScheduleService) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}
