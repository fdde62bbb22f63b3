// Package slots turns a provider's working-hours configuration into the
// bookable time slots of a single calendar date and implements the status
// commands applied to a generated list.
package slots

import (
	"time"

	"slotdesk/internal/models"
)

// Generate produces the ordered slots of date.
//
// The cursor walks from the day's start in steps of duration+buffer. A
// candidate that overlaps the break is discarded and the cursor jumps to the
// break end. Slots starting before the current time of today are emitted as
// blocked, all others as available. Generate never emits booked slots.
//
// A closed or missing day yields an empty list. Malformed times or settings
// yield a *ConfigError.
func Generate(date time.Time, weekly models.WeeklySchedule, settings models.SlotSettings, now time.Time) ([]models.TimeSlot, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	weekday := models.WeekdayOf(date.Weekday())
	day, ok := weekly[weekday]
	if !ok || !day.IsOpen {
		return []models.TimeSlot{}, nil
	}

	w, err := resolveDay(weekday, day)
	if err != nil {
		return nil, err
	}

	dateStr := date.Format(models.DateLayout)

	// Slots that start before this minute are already in the past.
	pastBefore := -1
	if local := now.In(date.Location()); local.Format(models.DateLayout) == dateStr {
		pastBefore = local.Hour()*60 + local.Minute()
	}

	duration := settings.DefaultDuration
	step := duration + settings.BufferTime

	out := make([]models.TimeSlot, 0, (w.end-w.start)/step+1)
	for t := w.start; t+duration <= w.end; {
		if w.hasBreak && t < w.breakEnd && t+duration > w.breakStart {
			t = w.breakEnd
			continue
		}

		status := models.SlotAvailable
		if t < pastBefore {
			status = models.SlotBlocked
		}

		start := FormatClock(t)
		out = append(out, models.TimeSlot{
			ID:        SlotID(dateStr, start),
			Date:      dateStr,
			StartTime: start,
			EndTime:   FormatClock(t + duration),
			Duration:  duration,
			Status:    status,
			Index:     len(out),
		})
		t += step
	}

	return out, nil
}
