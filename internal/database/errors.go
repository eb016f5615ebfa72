package database

import "errors"

var (
	// ErrSlotTaken means a non-cancelled appointment already occupies
	// the requested (date, time) key.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrNotFound means the referenced record no longer exists.
	ErrNotFound = errors.New("record not found")

	// ErrPastDate rejects bookings for dates before today.
	ErrPastDate = errors.New("date is in the past")

	// ErrDateTooFar rejects bookings beyond the configured horizon.
	ErrDateTooFar = errors.New("date is beyond the booking horizon")

	// ErrConcurrentModification means an optimistic version check failed.
	ErrConcurrentModification = errors.New("record was modified concurrently")

	// ErrInvalidTransition means the requested status change is not
	// allowed by the appointment state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
)
