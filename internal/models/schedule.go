package models

// WorkingDay is the working-hours entry for one weekday. Times are HH:MM.
// Empty break fields mean the day has no break.
type WorkingDay struct {
	IsOpen     bool   `json:"is_open" yaml:"is_open"`
	StartTime  string `json:"start_time,omitempty" yaml:"start_time"`
	EndTime    string `json:"end_time,omitempty" yaml:"end_time"`
	BreakStart string `json:"break_start,omitempty" yaml:"break_start"`
	BreakEnd   string `json:"break_end,omitempty" yaml:"break_end"`
}

func (d WorkingDay) HasBreak() bool {
	return d.BreakStart != "" || d.BreakEnd != ""
}

// WeeklySchedule holds one WorkingDay per weekday. A missing day is closed.
type WeeklySchedule map[Weekday]WorkingDay

// Day returns the entry for a weekday; the zero value (closed) when absent.
func (w WeeklySchedule) Day(d Weekday) WorkingDay {
	if w == nil {
		return WorkingDay{}
	}
	return w[d]
}

// DefaultWeeklySchedule is used for providers that never saved their own hours.
func DefaultWeeklySchedule() WeeklySchedule {
	weekday := WorkingDay{
		IsOpen:     true,
		StartTime:  "09:00",
		EndTime:    "18:00",
		BreakStart: "13:00",
		BreakEnd:   "14:00",
	}
	return WeeklySchedule{
		Monday:    weekday,
		Tuesday:   weekday,
		Wednesday: weekday,
		Thursday:  weekday,
		Friday:    weekday,
		Saturday:  {IsOpen: true, StartTime: "10:00", EndTime: "14:00"},
		Sunday:    {IsOpen: false},
	}
}

// SlotSettings controls slot sizing. Both values are minutes.
type SlotSettings struct {
	DefaultDuration int `json:"default_duration" yaml:"default_duration"`
	BufferTime      int `json:"buffer_time" yaml:"buffer_time"`
}

func DefaultSlotSettings() SlotSettings {
	return SlotSettings{
		DefaultDuration: DefaultSlotDuration,
		BufferTime:      0,
	}
}

type BlockedDate struct {
	ProviderID int64  `json:"provider_id"`
	Date       string `json:"date"`
	Reason     string `json:"reason,omitempty"`
}
