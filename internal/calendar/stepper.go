package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// Stepper drives a flow from guided-calendar actions.
type Stepper struct {
	logger *logging.Logger
}

// NewStepper creates a stepper.
func NewStepper(logger *logging.Logger) *Stepper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Stepper{logger: logger}
}

// Translate maps an action to its flow event.
func (s *Stepper) Translate(a Action) (booking.Event, error) {
	return Translate(a)
}

// Show renders the current step without changing state.
func (s *Stepper) Show(ctx context.Context, flow *booking.Flow) (View, error) {
	res, err := flow.Prompt(ctx)
	if err != nil {
		return View{State: res.State, Phase: res.State.Phase, Step: StepOf(res.State.Phase)}, fmt.Errorf("calendar: show: %w", err)
	}
	return s.view(flow.Engine(), res), nil
}

// Handle applies one action. Like Flow.Dispatch, a rejected action returns
// the flow's sentinel error together with a View of the unchanged step
// carrying a notice.
func (s *Stepper) Handle(ctx context.Context, flow *booking.Flow, a Action) (View, error) {
	ev, err := Translate(a)
	if err != nil {
		return View{}, err
	}
	res, err := flow.Dispatch(ctx, ev)
	if err != nil && !booking.IsRejection(err) {
		s.logger.Error("calendar action failed", "action", a.Type, "error", err)
		st := flow.State()
		return View{State: st, Phase: st.Phase, Step: StepOf(st.Phase)}, fmt.Errorf("calendar: %s: %w", a.Type, err)
	}
	return s.view(flow.Engine(), res), err
}

func (s *Stepper) view(engine *booking.Engine, res booking.Result) View {
	st := res.State
	v := View{Step: StepOf(st.Phase), Phase: st.Phase, State: st}
	if st.HasDate() {
		v.Date = schedule.FormatDate(st.Date)
	}

	for _, d := range res.Directives {
		switch d := d.(type) {
		case booking.OfferPractitioners:
			v.Practitioners = d.Practitioners
		case booking.OfferServices:
			p := d.Practitioner
			v.Practitioner = &p
			v.Categories = d.Categories
		case booking.OfferDates:
			v.Days = Strip(engine.FirstBookableDay(), engine.HorizonDays(), d.Days)
		case booking.OfferSlots:
			v.Date = schedule.FormatDate(d.Date)
			v.Slots = availability.FormatSlots(d.Slots)
		case booking.NoAvailability:
			v.Notices = append(v.Notices, notice("no_availability"))
		case booking.ConfirmSummary:
			v.Summary = summaryCard(d)
		case booking.AskIdentity:
			v.AskIdentity = true
		case booking.IdentityNotFound:
			v.Notices = append(v.Notices, notice("client_not_found"))
		case booking.Booked:
			v.AppointmentID = d.AppointmentID
			v.Summary = summaryCard(d.Summary)
		case booking.CommitFailed:
			if d.SlotTaken {
				v.Notices = append(v.Notices, notice("slot_taken"))
			} else {
				v.Notices = append(v.Notices, notice("commit_failed"))
			}
			v.CanRetry = d.Retryable
		case booking.Reprompt:
			v.Notices = append(v.Notices, notice(d.Code))
		}
	}
	return v
}

// DaySource lists days with room. *availability.Calculator satisfies it.
type DaySource interface {
	Days(ctx context.Context, practitionerID int64, from time.Time, n, durationMinutes int) ([]availability.DaySlots, error)
}

// Week is the staff calendar for one practitioner, Monday first.
type Week struct {
	PractitionerID int64     `json:"practitioner_id"`
	Start          string    `json:"start"`
	Days           []DayCell `json:"days"`
}

// WeekGrid builds the Monday-first week containing day.
func WeekGrid(ctx context.Context, src DaySource, practitionerID int64, day time.Time, durationMinutes int) (Week, error) {
	start := MondayOf(day)
	days, err := src.Days(ctx, practitionerID, start, 7, durationMinutes)
	if err != nil {
		return Week{}, fmt.Errorf("calendar: week grid: %w", err)
	}
	return Week{
		PractitionerID: practitionerID,
		Start:          schedule.FormatDate(start),
		Days:           Strip(start, 7, days),
	}, nil
}

// MondayOf returns the Monday on or before day.
func MondayOf(day time.Time) time.Time {
	d := schedule.Day(day)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
