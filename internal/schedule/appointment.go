package schedule

import (
	"strings"
	"time"
)

// AppointmentStatus tracks the lifecycle of a stored appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// TempIDPrefix marks locally generated placeholder ids.
const TempIDPrefix = "tmp-"

// Appointment is a booked treatment with one practitioner.
type Appointment struct {
	ID              string            `json:"id"`
	PractitionerID  int64             `json:"practitioner_id"`
	ClientID        int64             `json:"client_id"`
	SubServiceID    int64             `json:"sub_service_id"`
	Date            time.Time         `json:"date"`
	Start           ClockTime         `json:"start"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// End is the first minute after the appointment.
func (a Appointment) End() ClockTime {
	return a.Start.Add(a.DurationMinutes)
}

// Span returns the occupied interval.
func (a Appointment) Span() Interval {
	return Interval{Start: a.Start, End: a.End()}
}

// Blocks reports whether a candidate [start, start+duration) collides with the
// appointment. Arbitrary minute boundaries are honoured on both sides.
func (a Appointment) Blocks(start ClockTime, duration int) bool {
	return start < a.End() && start.Add(duration) > a.Start
}

// Provisional reports whether the id is still a local placeholder.
func (a Appointment) Provisional() bool {
	return strings.HasPrefix(a.ID, TempIDPrefix)
}
