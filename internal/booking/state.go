// Package booking implements the reservation flow shared by the guided
// calendar and the conversational driver: practitioner, service, date and
// slot selection, confirmation, identity lookup and commit.
package booking

import (
	"time"

	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// Phase is the flow's position in the reservation sequence.
type Phase string

const (
	PhaseSelectingPractitioner Phase = "selecting_practitioner"
	PhaseSelectingService      Phase = "selecting_service"
	PhaseSelectingDate         Phase = "selecting_date"
	PhaseSelectingSlot         Phase = "selecting_slot"
	PhaseAwaitingConfirmation  Phase = "awaiting_confirmation"
	PhaseAwaitingIdentity      Phase = "awaiting_identity"
	PhaseCommitted             Phase = "committed"
)

// State is the serializable snapshot of one reservation in progress.
type State struct {
	Phase          Phase                  `json:"phase"`
	PractitionerID int64                  `json:"practitioner_id,omitempty"`
	SubServiceID   int64                  `json:"sub_service_id,omitempty"`
	Date           time.Time              `json:"date,omitzero"`
	Slot           *schedule.ClockTime    `json:"slot,omitempty"`
	Client         *clinic.ClientIdentity `json:"client,omitempty"`
	AppointmentID  string                 `json:"appointment_id,omitempty"`
	Committing     bool                   `json:"committing,omitempty"`
	LastError      string                 `json:"last_error,omitempty"`
}

// NewState returns the initial state.
func NewState() State {
	return State{Phase: PhaseSelectingPractitioner}
}

// HasDate reports whether a date has been chosen.
func (s State) HasDate() bool {
	return !s.Date.IsZero()
}

// Booked reports whether the reservation was stored.
func (s State) Booked() bool {
	return s.Phase == PhaseCommitted && s.AppointmentID != ""
}

// CommitPending reports whether the last commit attempt failed and may be retried.
func (s State) CommitPending() bool {
	return s.Phase == PhaseCommitted && s.AppointmentID == ""
}

func (s State) clone() State {
	if s.Slot != nil {
		slot := *s.Slot
		s.Slot = &slot
	}
	if s.Client != nil {
		c := *s.Client
		s.Client = &c
	}
	return s
}
