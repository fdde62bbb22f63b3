package database

import "errors"

var (
	ErrNotFound               = errors.New("record not found")
	ErrSlotTaken              = errors.New("time range already booked")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
)
