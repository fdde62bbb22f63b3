package models

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBlocked   SlotStatus = "blocked"
	SlotBooked    SlotStatus = "booked"
)

// TimeSlot is one bookable interval of a day. CustomerInfo, ServiceType,
// Notes and BookingID are filled only when a booking claims the slot.
type TimeSlot struct {
	ID           string     `json:"id"`
	Date         string     `json:"date"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Duration     int        `json:"duration"`
	Status       SlotStatus `json:"status"`
	Index        int        `json:"index"`
	CustomerInfo string     `json:"customer_info,omitempty"`
	ServiceType  string     `json:"service_type,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	BookingID    int64      `json:"booking_id,omitempty"`
}

type SlotStats struct {
	TotalSlots     int `json:"total_slots"`
	AvailableSlots int `json:"available_slots"`
	BookedSlots    int `json:"booked_slots"`
	BlockedSlots   int `json:"blocked_slots"`
}

// Board is the generated slot list of one provider and date together with
// the local status edits applied since generation.
type Board struct {
	ProviderID  int64      `json:"provider_id"`
	Date        string     `json:"date"`
	Fingerprint string     `json:"fingerprint"`
	GeneratedAt time.Time  `json:"generated_at"`
	Slots       []TimeSlot `json:"slots"`
}

// Clone returns a deep copy so callers can mutate slots freely.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	out := *b
	out.Slots = make([]TimeSlot, len(b.Slots))
	copy(out.Slots, b.Slots)
	return &out
}
