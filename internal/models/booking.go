package models

import "time"

// Booking is a customer reservation that claims one slot of a provider's day.
type Booking struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference"`
	ProviderID    int64     `json:"provider_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Vehicle       string    `json:"vehicle,omitempty"`
	ServiceType   string    `json:"service_type,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"` // pending, confirmed, completed, cancelled
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the booking still holds its slot.
func (b Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// BookingRequest carries the customer details of a new booking.
type BookingRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Vehicle       string `json:"vehicle"`
	ServiceType   string `json:"service_type"`
	Notes         string `json:"notes"`
}
