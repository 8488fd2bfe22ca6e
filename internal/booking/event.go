package booking

import (
	"time"

	"github.com/wolfman30/physio-booking/internal/schedule"
)

// Event is an input to the flow. Both drivers produce the same events.
type Event interface {
	// Name identifies the event in logs and metrics.
	Name() string
}

type SelectPractitioner struct {
	ID int64 `json:"id"`
}

type SelectService struct {
	SubServiceID int64 `json:"sub_service_id"`
}

type SelectDate struct {
	Date time.Time `json:"date"`
}

// SelectSlot picks a start time. A zero Date means the currently selected date.
type SelectSlot struct {
	Date time.Time          `json:"date"`
	Time schedule.ClockTime `json:"time"`
}

type Confirm struct {
	Yes bool `json:"yes"`
}

// SubmitIdentity carries free text: a full name, phone number or email.
type SubmitIdentity struct {
	Text string `json:"text"`
}

type RetryCommit struct{}

type Reset struct{}

func (SelectPractitioner) Name() string { return "select_practitioner" }
func (SelectService) Name() string      { return "select_service" }
func (SelectDate) Name() string         { return "select_date" }
func (SelectSlot) Name() string         { return "select_slot" }
func (Confirm) Name() string            { return "confirm" }
func (SubmitIdentity) Name() string     { return "submit_identity" }
func (RetryCommit) Name() string        { return "retry_commit" }
func (Reset) Name() string              { return "reset" }
