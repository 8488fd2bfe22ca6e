package booking

import (
	"context"
	"time"

	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// Request is everything needed to store a confirmed reservation.
type Request struct {
	PractitionerID  int64                 `json:"practitioner_id"`
	SubServiceID    int64                 `json:"sub_service_id"`
	Date            time.Time             `json:"date"`
	Start           schedule.ClockTime    `json:"start"`
	DurationMinutes int                   `json:"duration_minutes"`
	Client          clinic.ClientIdentity `json:"client"`
	Practitioner    clinic.Practitioner   `json:"-"`
	Service         clinic.SubService     `json:"-"`
}

// Appointment converts the request into the record handed to the store.
func (r Request) Appointment() schedule.Appointment {
	return schedule.Appointment{
		PractitionerID:  r.PractitionerID,
		ClientID:        r.Client.ID,
		SubServiceID:    r.SubServiceID,
		Date:            schedule.Day(r.Date),
		Start:           r.Start,
		DurationMinutes: r.DurationMinutes,
		Status:          schedule.StatusConfirmed,
	}
}

// Receipt is returned by a successful commit.
type Receipt struct {
	AppointmentID string               `json:"appointment_id"`
	Appointment   schedule.Appointment `json:"appointment"`
}

// Committer stores a reservation. It returns schedule.ErrSlotTaken when the
// slot was taken after it was offered; any other error is treated as retryable.
type Committer interface {
	Run(ctx context.Context, req Request) (Receipt, error)
}
