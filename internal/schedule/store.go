package schedule

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSlotTaken is returned by a store when the requested range collides
	// with an appointment written after the caller's availability snapshot.
	ErrSlotTaken = errors.New("schedule: slot already taken")
	// ErrIneligible is returned when the practitioner does not offer the service.
	ErrIneligible = errors.New("schedule: practitioner not eligible for service")
	// ErrAppointmentNotFound is returned by administrative operations.
	ErrAppointmentNotFound = errors.New("schedule: appointment not found")
	// ErrPastMidnight is returned when a moved appointment would end on the
	// following day.
	ErrPastMidnight = errors.New("schedule: appointment runs past midnight")
	// ErrInvalidShift flags a shift that violates interval ordering.
	ErrInvalidShift = errors.New("schedule: invalid shift")
)

// ShiftStore exposes practitioners' working intervals. A nil shift with a nil
// error means the practitioner does not work that day.
type ShiftStore interface {
	GetShift(ctx context.Context, practitionerID int64, date time.Time) (*WorkShift, error)
}

// AppointmentReader lists live appointments for a practitioner on a date.
type AppointmentReader interface {
	ListAppointments(ctx context.Context, practitionerID int64, date time.Time) ([]Appointment, error)
}

// AppointmentStore persists new appointments. Commit returns the stored row
// with its authoritative id, or ErrSlotTaken / ErrIneligible.
type AppointmentStore interface {
	AppointmentReader
	Commit(ctx context.Context, appt Appointment) (Appointment, error)
}

// AppointmentAdmin covers the administrative mutations performed outside the
// booking flow.
type AppointmentAdmin interface {
	Reschedule(ctx context.Context, id string, date time.Time, start ClockTime) (Appointment, error)
	Cancel(ctx context.Context, id string) error
}
