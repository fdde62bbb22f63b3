package slots

import (
	"fmt"
	"strings"
	"time"
)

const (
	clockLayout   = "15:04"
	minutesPerDay = 24 * 60
)

// ParseClock converts "HH:MM" into minutes since midnight. "24:00" is
// accepted as the end of the day.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return minutesPerDay, nil
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes since midnight into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotID is the deterministic slot key for a date and start time.
func SlotID(date, startTime string) string {
	return date + "T" + startTime
}
