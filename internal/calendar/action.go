// Package calendar is the guided, step-by-step booking driver: each UI
// action maps to exactly one flow event and every reply is a full View of
// the current step.
package calendar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// ErrInvalidAction is returned for malformed actions.
var ErrInvalidAction = errors.New("calendar: invalid action")

// ActionType names a UI control.
type ActionType string

const (
	ActionChoosePractitioner ActionType = "choose_practitioner"
	ActionChooseService      ActionType = "choose_service"
	ActionChooseDate         ActionType = "choose_date"
	ActionChooseSlot         ActionType = "choose_slot"
	ActionConfirm            ActionType = "confirm"
	ActionChangeSlot         ActionType = "change_slot"
	ActionIdentify           ActionType = "identify"
	ActionRetry              ActionType = "retry"
	ActionRestart            ActionType = "restart"
)

// Action is a click or form submit from the guided calendar.
type Action struct {
	Type           ActionType `json:"type"`
	PractitionerID int64      `json:"practitioner_id,omitempty"`
	SubServiceID   int64      `json:"sub_service_id,omitempty"`
	Date           string     `json:"date,omitempty"`
	Time           string     `json:"time,omitempty"`
	Text           string     `json:"text,omitempty"`
}

// Translate maps an action to its flow event without consulting state.
func Translate(a Action) (booking.Event, error) {
	switch a.Type {
	case ActionChoosePractitioner:
		if a.PractitionerID <= 0 {
			return nil, fmt.Errorf("%w: practitioner_id required", ErrInvalidAction)
		}
		return booking.SelectPractitioner{ID: a.PractitionerID}, nil

	case ActionChooseService:
		if a.SubServiceID <= 0 {
			return nil, fmt.Errorf("%w: sub_service_id required", ErrInvalidAction)
		}
		return booking.SelectService{SubServiceID: a.SubServiceID}, nil

	case ActionChooseDate:
		date, err := schedule.ParseDate(a.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		return booking.SelectDate{Date: date}, nil

	case ActionChooseSlot:
		clock, err := schedule.ParseClock(a.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		ev := booking.SelectSlot{Time: clock}
		if a.Date != "" {
			if ev.Date, err = schedule.ParseDate(a.Date); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
			}
		}
		return ev, nil

	case ActionConfirm:
		return booking.Confirm{Yes: true}, nil
	case ActionChangeSlot:
		return booking.Confirm{Yes: false}, nil

	case ActionIdentify:
		if strings.TrimSpace(a.Text) == "" {
			return nil, fmt.Errorf("%w: text required", ErrInvalidAction)
		}
		return booking.SubmitIdentity{Text: a.Text}, nil

	case ActionRetry:
		return booking.RetryCommit{}, nil
	case ActionRestart:
		return booking.Reset{}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
}
