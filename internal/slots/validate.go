package slots

import (
	"errors"

	"slotdesk/internal/models"
)

var (
	errNotAfterStart   = errors.New("must be after start_time")
	errNotAfterBreak   = errors.New("must be after break_start")
	errIncompleteBreak = errors.New("break_start and break_end must be set together")
	errNotPositive     = errors.New("must be greater than zero")
	errNegative        = errors.New("must not be negative")
)

// window is a working day resolved to minutes since midnight.
type window struct {
	start, end           int
	hasBreak             bool
	breakStart, breakEnd int
}

func resolveDay(weekday models.Weekday, day models.WorkingDay) (window, error) {
	var w window
	var err error

	scope := weekday.String()
	if w.start, err = ParseClock(day.StartTime); err != nil {
		return w, &ConfigError{Scope: scope, Field: "start_time", Err: err}
	}
	if w.end, err = ParseClock(day.EndTime); err != nil {
		return w, &ConfigError{Scope: scope, Field: "end_time", Err: err}
	}
	if w.start >= w.end {
		return w, &ConfigError{Scope: scope, Field: "end_time", Err: errNotAfterStart}
	}

	if !day.HasBreak() {
		return w, nil
	}
	if day.BreakStart == "" || day.BreakEnd == "" {
		return w, &ConfigError{Scope: scope, Field: "break", Err: errIncompleteBreak}
	}
	if w.breakStart, err = ParseClock(day.BreakStart); err != nil {
		return w, &ConfigError{Scope: scope, Field: "break_start", Err: err}
	}
	if w.breakEnd, err = ParseClock(day.BreakEnd); err != nil {
		return w, &ConfigError{Scope: scope, Field: "break_end", Err: err}
	}
	if w.breakStart >= w.breakEnd {
		return w, &ConfigError{Scope: scope, Field: "break_end", Err: errNotAfterBreak}
	}
	w.hasBreak = true

	return w, nil
}

// ValidateDay checks an open day's times. Closed days are always valid.
func ValidateDay(weekday models.Weekday, day models.WorkingDay) error {
	if !day.IsOpen {
		return nil
	}
	_, err := resolveDay(weekday, day)
	return err
}

// ValidateWeekly checks every open day of the schedule.
func ValidateWeekly(weekly models.WeeklySchedule) error {
	for _, d := range models.Weekdays() {
		day, ok := weekly[d]
		if !ok {
			continue
		}
		if err := ValidateDay(d, day); err != nil {
			return err
		}
	}
	return nil
}

func ValidateSettings(settings models.SlotSettings) error {
	if settings.DefaultDuration <= 0 {
		return &ConfigError{Scope: "settings", Field: "default_duration", Err: errNotPositive}
	}
	if settings.BufferTime < 0 {
		return &ConfigError{Scope: "settings", Field: "buffer_time", Err: errNegative}
	}
	return nil
}
