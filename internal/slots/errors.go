package slots

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig    = errors.New("invalid working hours configuration")
	ErrInvalidClock     = errors.New("invalid clock time")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrSlotBooked       = errors.New("slot is booked")
	ErrSlotNotAvailable = errors.New("slot is not available")
)

// ConfigError reports a malformed field of the working-hours configuration or
// the slot settings. Scope is a weekday name or "settings".
type ConfigError struct {
	Scope string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %v", ErrInvalidConfig, e.Scope, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}
