package appointments

import "errors"

var (
	// ErrAppointmentNotFound signals a lookup with no matching row.
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")
	// ErrSlotTaken signals an insert that collided with an existing booking.
	ErrSlotTaken = errors.New("appointments: slot already booked")
	// ErrInvalidStatus rejects status transitions to unknown values.
	ErrInvalidStatus = errors.New("appointments: invalid status")
	// ErrInvalidDate rejects malformed or out-of-window dates.
	ErrInvalidDate = errors.New("appointments: invalid date")
	// ErrInvalidTime rejects start times outside the business-hours grid.
	ErrInvalidTime = errors.New("appointments: invalid start time")
)
