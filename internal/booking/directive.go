package booking

import (
	"encoding/json"
	"time"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/schedule"
)

// DirectiveKind names a directive on the wire.
type DirectiveKind string

const (
	KindOfferPractitioners DirectiveKind = "offer_practitioners"
	KindOfferServices      DirectiveKind = "offer_services"
	KindOfferDates         DirectiveKind = "offer_dates"
	KindOfferSlots         DirectiveKind = "offer_slots"
	KindNoAvailability     DirectiveKind = "no_availability"
	KindConfirmSummary     DirectiveKind = "confirm_summary"
	KindAskIdentity        DirectiveKind = "ask_identity"
	KindIdentityNotFound   DirectiveKind = "identity_not_found"
	KindBooked             DirectiveKind = "booked"
	KindCommitFailed       DirectiveKind = "commit_failed"
	KindReprompt           DirectiveKind = "reprompt"
)

// Directive tells a driver what to present next. Drivers render directives;
// they never decide transitions.
type Directive interface {
	Kind() DirectiveKind
}

type OfferPractitioners struct {
	Practitioners []clinic.Practitioner `json:"practitioners"`
}

// OfferServices lists only the services the practitioner performs.
type OfferServices struct {
	Practitioner clinic.Practitioner      `json:"practitioner"`
	Categories   []clinic.ServiceCategory `json:"categories"`
}

// OfferDates lists upcoming days that still have room, each with its slots.
type OfferDates struct {
	Days []availability.DaySlots `json:"days"`
}

type OfferSlots struct {
	Date  time.Time            `json:"date"`
	Slots []schedule.ClockTime `json:"slots"`
}

type NoAvailability struct {
	Date time.Time `json:"date"`
}

type ConfirmSummary struct {
	Practitioner clinic.Practitioner `json:"practitioner"`
	Service      clinic.SubService   `json:"service"`
	Date         time.Time           `json:"date"`
	Slot         schedule.ClockTime  `json:"slot"`
}

type AskIdentity struct{}

type IdentityNotFound struct {
	Query string `json:"query"`
}

type Booked struct {
	AppointmentID string                `json:"appointment_id"`
	Summary       ConfirmSummary        `json:"summary"`
	Client        clinic.ClientIdentity `json:"client"`
}

// CommitFailed reports a commit that did not go through. SlotTaken failures
// return the flow to slot selection; other failures may be retried.
type CommitFailed struct {
	Reason    string `json:"reason"`
	SlotTaken bool   `json:"slot_taken"`
	Retryable bool   `json:"retryable"`
}

// Reprompt precedes the currently valid choices after a rejected event.
type Reprompt struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (OfferPractitioners) Kind() DirectiveKind { return KindOfferPractitioners }
func (OfferServices) Kind() DirectiveKind      { return KindOfferServices }
func (OfferDates) Kind() DirectiveKind         { return KindOfferDates }
func (OfferSlots) Kind() DirectiveKind         { return KindOfferSlots }
func (NoAvailability) Kind() DirectiveKind     { return KindNoAvailability }
func (ConfirmSummary) Kind() DirectiveKind     { return KindConfirmSummary }
func (AskIdentity) Kind() DirectiveKind        { return KindAskIdentity }
func (IdentityNotFound) Kind() DirectiveKind   { return KindIdentityNotFound }
func (Booked) Kind() DirectiveKind             { return KindBooked }
func (CommitFailed) Kind() DirectiveKind       { return KindCommitFailed }
func (Reprompt) Kind() DirectiveKind           { return KindReprompt }

// Result is the outcome of a dispatch: the state after the event and what to show.
type Result struct {
	State      State
	Directives []Directive
}

type directiveEnvelope struct {
	Type DirectiveKind `json:"type"`
	Data Directive     `json:"data"`
}

// MarshalJSON tags each directive with its kind.
func (r Result) MarshalJSON() ([]byte, error) {
	envelopes := make([]directiveEnvelope, len(r.Directives))
	for i, d := range r.Directives {
		envelopes[i] = directiveEnvelope{Type: d.Kind(), Data: d}
	}
	return json.Marshal(struct {
		State      State               `json:"state"`
		Directives []directiveEnvelope `json:"directives"`
	}{State: r.State, Directives: envelopes})
}

// Find returns the first directive of type T.
func Find[T Directive](directives []Directive) (T, bool) {
	for _, d := range directives {
		if v, ok := d.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
