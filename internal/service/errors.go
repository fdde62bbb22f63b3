package service

import "errors"

var (
	ErrInvalidBooking   = errors.New("customer name is required")
	ErrBookingCancelled = errors.New("booking is already cancelled")
)
