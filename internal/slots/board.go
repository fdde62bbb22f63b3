package slots

import (
	"strings"
	"time"

	"slotdesk/internal/models"
)

// BulkResult describes the outcome of a bulk block or unblock.
type BulkResult struct {
	Changed []string `json:"changed"`
	Skipped []string `json:"skipped"` // booked slots
	Missing []string `json:"missing"`
}

func IndexOf(list []models.TimeSlot, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Toggle flips a slot between available and blocked. Booked slots are left
// untouched and reported with ErrSlotBooked.
func Toggle(list []models.TimeSlot, id string) (models.SlotStatus, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return "", ErrSlotNotFound
	}

	switch list[i].Status {
	case models.SlotBooked:
		return models.SlotBooked, ErrSlotBooked
	case models.SlotBlocked:
		list[i].Status = models.SlotAvailable
	default:
		list[i].Status = models.SlotBlocked
	}
	return list[i].Status, nil
}

func Block(list []models.TimeSlot, ids []string) BulkResult {
	return setStatus(list, ids, models.SlotBlocked)
}

func Unblock(list []models.TimeSlot, ids []string) BulkResult {
	return setStatus(list, ids, models.SlotAvailable)
}

func setStatus(list []models.TimeSlot, ids []string, target models.SlotStatus) BulkResult {
	res := BulkResult{Changed: []string{}, Skipped: []string{}, Missing: []string{}}
	for _, id := range ids {
		i := IndexOf(list, id)
		switch {
		case i < 0:
			res.Missing = append(res.Missing, id)
		case list[i].Status == models.SlotBooked:
			res.Skipped = append(res.Skipped, id)
		case list[i].Status != target:
			list[i].Status = target
			res.Changed = append(res.Changed, id)
		}
	}
	return res
}

// ApplyBookings marks every slot overlapped by an active booking of the same
// date as booked and copies the customer details. It returns the number of
// slots marked.
func ApplyBookings(list []models.TimeSlot, bookings []models.Booking) int {
	marked := 0
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		bStart, err := ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		bEnd, err := ParseClock(b.EndTime)
		if err != nil {
			continue
		}

		for i := range list {
			s := &list[i]
			if s.Date != b.Date {
				continue
			}
			sStart, _ := ParseClock(s.StartTime)
			sEnd, _ := ParseClock(s.EndTime)
			if sStart >= bEnd || sEnd <= bStart {
				continue
			}
			s.Status = models.SlotBooked
			s.BookingID = b.ID
			s.CustomerInfo = customerInfo(b)
			s.ServiceType = b.ServiceType
			s.Notes = b.Notes
			marked++
		}
	}
	return marked
}

func customerInfo(b models.Booking) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{b.CustomerName, b.CustomerPhone, b.Vehicle} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Release frees the slots held by a cancelled booking. It returns the ids of
// the released slots.
func Release(list []models.TimeSlot, bookingID int64) []string {
	var released []string
	for i := range list {
		s := &list[i]
		if s.Status != models.SlotBooked || s.BookingID != bookingID {
			continue
		}
		s.Status = models.SlotAvailable
		s.BookingID = 0
		s.CustomerInfo = ""
		s.ServiceType = ""
		s.Notes = ""
		released = append(released, s.ID)
	}
	return released
}

func ComputeStats(list []models.TimeSlot) models.SlotStats {
	stats := models.SlotStats{TotalSlots: len(list)}
	for _, s := range list {
		switch s.Status {
		case models.SlotAvailable:
			stats.AvailableSlots++
		case models.SlotBooked:
			stats.BookedSlots++
		case models.SlotBlocked:
			stats.BlockedSlots++
		}
	}
	return stats
}

// ExpirePast blocks available slots of date that started before now. It is
// applied to cached lists so that time passing has the same effect as a
// fresh generation. It returns the number of slots blocked.
func ExpirePast(list []models.TimeSlot, date, now time.Time) int {
	local := now.In(date.Location())
	if local.Format(models.DateLayout) != date.Format(models.DateLayout) {
		return 0
	}
	current := local.Hour()*60 + local.Minute()

	expired := 0
	for i := range list {
		if list[i].Status != models.SlotAvailable {
			continue
		}
		start, err := ParseClock(list[i].StartTime)
		if err != nil || start >= current {
			continue
		}
		list[i].Status = models.SlotBlocked
		expired++
	}
	return expired
}
