package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/observability/metrics"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// DefaultHorizonDays is how many days ahead OfferDates looks.
const DefaultHorizonDays = 14

// SlotSource computes free start times. *availability.Calculator satisfies it.
type SlotSource interface {
	Slots(ctx context.Context, practitionerID int64, date time.Time, durationMinutes int) ([]schedule.ClockTime, error)
	Days(ctx context.Context, practitionerID int64, from time.Time, n, durationMinutes int) ([]availability.DaySlots, error)
}

// Config wires an Engine to its collaborators.
type Config struct {
	Catalog      clinic.Catalog
	Directory    clinic.ClientDirectory
	Availability SlotSource
	Committer    Committer
	HorizonDays  int
	Now          func() time.Time
	Logger       *logging.Logger
	Metrics      *metrics.BookingMetrics
}

// Engine holds the collaborators shared by every flow.
type Engine struct {
	catalog   clinic.Catalog
	directory clinic.ClientDirectory
	slots     SlotSource
	committer Committer
	horizon   int
	now       func() time.Time
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
}

// NewEngine validates cfg and applies defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.Catalog == nil || cfg.Directory == nil || cfg.Availability == nil || cfg.Committer == nil {
		panic("booking: catalog, directory, availability and committer required")
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = DefaultHorizonDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Engine{
		catalog:   cfg.Catalog,
		directory: cfg.Directory,
		slots:     cfg.Availability,
		committer: cfg.Committer,
		horizon:   cfg.HorizonDays,
		now:       cfg.Now,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Start begins a new reservation.
func (e *Engine) Start() *Flow {
	return e.Resume(NewState())
}

// Resume rebuilds a flow from a persisted state.
func (e *Engine) Resume(state State) *Flow {
	if state.Phase == "" {
		state.Phase = PhaseSelectingPractitioner
	}
	return &Flow{engine: e, state: state.clone()}
}

// Snapshot reads the current catalog.
func (e *Engine) Snapshot(ctx context.Context) (clinic.Snapshot, error) {
	return clinic.LoadSnapshot(ctx, e.catalog)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// HorizonDays is how many days from FirstBookableDay are offered.
func (e *Engine) HorizonDays() int {
	return e.horizon
}

// FirstBookableDay is tomorrow; same-day bookings are not offered.
func (e *Engine) FirstBookableDay() time.Time {
	return schedule.Day(e.now()).AddDate(0, 0, 1)
}

// Flow is one reservation. Dispatch and Prompt are safe for concurrent use;
// while a commit is in flight every other Dispatch fails with ErrCommitInFlight.
type Flow struct {
	engine *Engine
	mu     sync.Mutex
	state  State
}

// State returns a copy of the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

// Engine returns the engine that created the flow.
func (f *Flow) Engine() *Engine {
	return f.engine
}

type step struct {
	next       State
	directives []Directive
	commit     bool
}

// Dispatch applies ev. A rejected event returns one of the package's
// sentinel errors with the state unchanged and a Reprompt followed by the
// choices that are currently valid. Commit outcomes are reported in-band
// through Booked or CommitFailed directives.
func (f *Flow) Dispatch(ctx context.Context, ev Event) (Result, error) {
	if ev == nil {
		return f.Prompt(ctx)
	}
	f.mu.Lock()
	cur := f.state.clone()
	if cur.Committing {
		f.mu.Unlock()
		f.engine.metrics.ObserveTransition(ev.Name(), "rejected")
		return Result{State: cur, Directives: []Directive{Reprompt{Code: reasonCode(ErrCommitInFlight), Reason: ErrCommitInFlight.Error()}}}, ErrCommitInFlight
	}

	snap, err := f.engine.Snapshot(ctx)
	if err != nil {
		f.mu.Unlock()
		f.engine.metrics.ObserveTransition(ev.Name(), "error")
		return Result{State: cur}, fmt.Errorf("booking: %s: %w", ev.Name(), err)
	}

	st, err := f.transition(ctx, snap, cur, ev)
	if err != nil {
		f.mu.Unlock()
		if !IsRejection(err) {
			f.engine.metrics.ObserveTransition(ev.Name(), "error")
			f.engine.logger.Error("booking event failed", "event", ev.Name(), "phase", cur.Phase, "error", err)
			return Result{State: cur}, fmt.Errorf("booking: %s: %w", ev.Name(), err)
		}
		f.engine.metrics.ObserveTransition(ev.Name(), "rejected")
		f.engine.logger.Debug("booking event rejected", "event", ev.Name(), "phase", cur.Phase, "error", err)
		return Result{State: cur, Directives: f.rejection(ctx, snap, cur, ev, err)}, err
	}

	if !st.commit {
		f.state = st.next
		f.mu.Unlock()
		f.engine.metrics.ObserveTransition(ev.Name(), "ok")
		return Result{State: st.next.clone(), Directives: st.directives}, nil
	}

	st.next.Committing = true
	f.state = st.next.clone()
	f.mu.Unlock()

	res := f.commit(ctx, snap, st.next)

	f.mu.Lock()
	f.state = res.State.clone()
	f.mu.Unlock()
	f.engine.metrics.ObserveTransition(ev.Name(), "ok")
	return res, nil
}

// Prompt re-emits the current phase's offer without changing state.
func (f *Flow) Prompt(ctx context.Context) (Result, error) {
	cur := f.State()
	snap, err := f.engine.Snapshot(ctx)
	if err != nil {
		return Result{State: cur}, fmt.Errorf("booking: prompt: %w", err)
	}
	dirs, err := f.offer(ctx, snap, cur)
	if err != nil {
		return Result{State: cur}, fmt.Errorf("booking: prompt: %w", err)
	}
	return Result{State: cur, Directives: dirs}, nil
}

// transition computes the next state. Once the slot is confirmed the
// selection is frozen: only identity, a new practitioner or a reset apply.
func (f *Flow) transition(ctx context.Context, snap clinic.Snapshot, cur State, ev Event) (step, error) {
	switch e := ev.(type) {
	case Reset:
		next := NewState()
		return step{next: next, directives: []Directive{OfferPractitioners{Practitioners: snap.Practitioners}}}, nil

	case SelectPractitioner:
		if err := completedErr(cur); err != nil {
			return step{}, err
		}
		p, ok := snap.Practitioner(e.ID)
		if !ok {
			return step{}, ErrUnknownPractitioner
		}
		next := State{Phase: PhaseSelectingService, PractitionerID: p.ID}
		return step{next: next, directives: []Directive{OfferServices{Practitioner: p, Categories: snap.EligibleCategories(p.ID)}}}, nil

	case SelectService:
		if err := completedErr(cur); err != nil {
			return step{}, err
		}
		if cur.PractitionerID == 0 || cur.Phase == PhaseAwaitingIdentity {
			return step{}, ErrInvalidTransition
		}
		if !snap.Eligible(cur.PractitionerID, e.SubServiceID) {
			return step{}, ErrIneligibleService
		}
		next := State{Phase: PhaseSelectingDate, PractitionerID: cur.PractitionerID, SubServiceID: e.SubServiceID}
		offer, err := f.offerDates(ctx, snap, next)
		if err != nil {
			return step{}, err
		}
		return step{next: next, directives: []Directive{offer}}, nil

	case SelectDate:
		if err := completedErr(cur); err != nil {
			return step{}, err
		}
		if cur.SubServiceID == 0 || cur.Phase == PhaseAwaitingIdentity || e.Date.IsZero() {
			return step{}, ErrInvalidTransition
		}
		date := schedule.Day(e.Date)
		var slots []schedule.ClockTime
		if !date.Before(f.engine.FirstBookableDay()) {
			var err error
			if slots, err = f.slotsFor(ctx, snap, cur.PractitionerID, cur.SubServiceID, date); err != nil {
				return step{}, err
			}
		}
		if len(slots) == 0 {
			dirs := []Directive{NoAvailability{Date: date}}
			offers, err := f.offer(ctx, snap, cur)
			if err != nil {
				return step{}, err
			}
			return step{next: cur, directives: append(dirs, offers...)}, nil
		}
		f.engine.metrics.ObserveSlotsOffered(len(slots))
		next := State{Phase: PhaseSelectingSlot, PractitionerID: cur.PractitionerID, SubServiceID: cur.SubServiceID, Date: date}
		return step{next: next, directives: []Directive{OfferSlots{Date: date, Slots: slots}}}, nil

	case SelectSlot:
		if err := completedErr(cur); err != nil {
			return step{}, err
		}
		if cur.SubServiceID == 0 || cur.Phase == PhaseAwaitingIdentity {
			return step{}, ErrInvalidTransition
		}
		date := cur.Date
		if !e.Date.IsZero() {
			date = schedule.Day(e.Date)
		}
		if date.IsZero() {
			return step{}, ErrInvalidTransition
		}
		if date.Before(f.engine.FirstBookableDay()) {
			return step{}, ErrSlotUnavailable
		}
		slots, err := f.slotsFor(ctx, snap, cur.PractitionerID, cur.SubServiceID, date)
		if err != nil {
			return step{}, err
		}
		if !availability.Contains(slots, e.Time) {
			return step{}, ErrSlotUnavailable
		}
		slot := e.Time
		next := State{Phase: PhaseAwaitingConfirmation, PractitionerID: cur.PractitionerID, SubServiceID: cur.SubServiceID, Date: date, Slot: &slot}
		return step{next: next, directives: []Directive{summaryOf(snap, next)}}, nil

	case Confirm:
		if err := completedErr(cur); err != nil {
			return step{}, err
		}
		if cur.Phase != PhaseAwaitingConfirmation {
			return step{}, ErrInvalidTransition
		}
		if e.Yes {
			next := cur
			next.Phase = PhaseAwaitingIdentity
			return step{next: next, directives: []Directive{AskIdentity{}}}, nil
		}
		next := cur
		next.Phase = PhaseSelectingSlot
		next.Slot = nil
		offer, err := f.offerSlots(ctx, snap, next)
		if err != nil {
			return step{}, err
		}
		return step{next: next, directives: []Directive{offer}}, nil

	case SubmitIdentity:
		if err := completedErr(cur); err != nil {
			return step{}, err
		}
		if cur.Phase != PhaseAwaitingIdentity {
			return step{}, ErrInvalidTransition
		}
		if !snap.Eligible(cur.PractitionerID, cur.SubServiceID) {
			return step{}, ErrIneligibleService
		}
		text := strings.TrimSpace(e.Text)
		if text == "" {
			return step{}, ErrClientNotFound
		}
		client, err := f.engine.directory.FindClient(ctx, text)
		if err != nil {
			return step{}, fmt.Errorf("find client: %w", err)
		}
		if client == nil {
			return step{}, ErrClientNotFound
		}
		next := cur
		next.Phase = PhaseCommitted
		next.Client = client
		return step{next: next, commit: true}, nil

	case RetryCommit:
		if cur.Booked() {
			return step{}, ErrFlowCompleted
		}
		if !cur.CommitPending() || cur.Client == nil {
			return step{}, ErrInvalidTransition
		}
		return step{next: cur, commit: true}, nil
	}
	return step{}, ErrInvalidTransition
}

func completedErr(cur State) error {
	if cur.Booked() {
		return ErrFlowCompleted
	}
	if cur.Phase == PhaseCommitted {
		return ErrInvalidTransition
	}
	return nil
}

func (f *Flow) commit(ctx context.Context, snap clinic.Snapshot, s State) Result {
	practitioner, _ := snap.Practitioner(s.PractitionerID)
	service, _ := snap.SubService(s.SubServiceID)
	req := Request{
		PractitionerID:  s.PractitionerID,
		SubServiceID:    s.SubServiceID,
		Date:            s.Date,
		Start:           *s.Slot,
		DurationMinutes: service.DurationMinutes,
		Client:          *s.Client,
		Practitioner:    practitioner,
		Service:         service,
	}

	receipt, err := f.engine.committer.Run(ctx, req)
	next := s.clone()
	next.Committing = false

	switch {
	case err == nil:
		next.AppointmentID = receipt.AppointmentID
		next.LastError = ""
		f.engine.logger.Info("appointment booked",
			"appointment_id", receipt.AppointmentID,
			"practitioner_id", s.PractitionerID,
			"date", schedule.FormatDate(s.Date),
			"start", s.Slot.String(),
		)
		return Result{State: next, Directives: []Directive{Booked{AppointmentID: receipt.AppointmentID, Summary: summaryOf(snap, s), Client: *s.Client}}}

	case errors.Is(err, schedule.ErrSlotTaken):
		next.Phase = PhaseSelectingSlot
		next.Slot = nil
		next.Client = nil
		next.LastError = err.Error()
		f.engine.logger.Warn("slot taken at commit", "practitioner_id", s.PractitionerID, "date", schedule.FormatDate(s.Date), "start", s.Slot.String())
		dirs := []Directive{CommitFailed{Reason: err.Error(), SlotTaken: true}}
		offer, oerr := f.offerSlots(ctx, snap, next)
		if oerr != nil {
			f.engine.logger.Error("failed to refresh slots after conflict", "error", oerr)
			return Result{State: next, Directives: dirs}
		}
		return Result{State: next, Directives: append(dirs, offer)}

	default:
		next.LastError = err.Error()
		f.engine.logger.Warn("appointment commit failed", "practitioner_id", s.PractitionerID, "error", err)
		return Result{State: next, Directives: []Directive{CommitFailed{Reason: err.Error(), Retryable: true}}}
	}
}

func (f *Flow) rejection(ctx context.Context, snap clinic.Snapshot, cur State, ev Event, cause error) []Directive {
	if errors.Is(cause, ErrClientNotFound) {
		query := ""
		if e, ok := ev.(SubmitIdentity); ok {
			query = strings.TrimSpace(e.Text)
		}
		return []Directive{IdentityNotFound{Query: query}, AskIdentity{}}
	}
	dirs := []Directive{Reprompt{Code: reasonCode(cause), Reason: cause.Error()}}
	offers, err := f.offer(ctx, snap, cur)
	if err != nil {
		f.engine.logger.Error("failed to build reprompt offers", "phase", cur.Phase, "error", err)
		return dirs
	}
	return append(dirs, offers...)
}

func (f *Flow) offer(ctx context.Context, snap clinic.Snapshot, s State) ([]Directive, error) {
	switch s.Phase {
	case PhaseSelectingService:
		p, _ := snap.Practitioner(s.PractitionerID)
		return []Directive{OfferServices{Practitioner: p, Categories: snap.EligibleCategories(s.PractitionerID)}}, nil
	case PhaseSelectingDate:
		d, err := f.offerDates(ctx, snap, s)
		if err != nil {
			return nil, err
		}
		return []Directive{d}, nil
	case PhaseSelectingSlot:
		d, err := f.offerSlots(ctx, snap, s)
		if err != nil {
			return nil, err
		}
		return []Directive{d}, nil
	case PhaseAwaitingConfirmation:
		return []Directive{summaryOf(snap, s)}, nil
	case PhaseAwaitingIdentity:
		return []Directive{AskIdentity{}}, nil
	case PhaseCommitted:
		if s.Booked() && s.Client != nil {
			return []Directive{Booked{AppointmentID: s.AppointmentID, Summary: summaryOf(snap, s), Client: *s.Client}}, nil
		}
		return []Directive{CommitFailed{Reason: s.LastError, Retryable: true}}, nil
	default:
		return []Directive{OfferPractitioners{Practitioners: snap.Practitioners}}, nil
	}
}

func (f *Flow) offerDates(ctx context.Context, snap clinic.Snapshot, s State) (OfferDates, error) {
	sub, ok := snap.SubService(s.SubServiceID)
	if !ok {
		return OfferDates{}, ErrIneligibleService
	}
	days, err := f.engine.slots.Days(ctx, s.PractitionerID, f.engine.FirstBookableDay(), f.engine.horizon, sub.DurationMinutes)
	if err != nil {
		return OfferDates{}, err
	}
	for _, d := range days {
		f.engine.metrics.ObserveSlotsOffered(len(d.Slots))
	}
	return OfferDates{Days: days}, nil
}

func (f *Flow) offerSlots(ctx context.Context, snap clinic.Snapshot, s State) (OfferSlots, error) {
	slots, err := f.slotsFor(ctx, snap, s.PractitionerID, s.SubServiceID, s.Date)
	if err != nil {
		return OfferSlots{}, err
	}
	f.engine.metrics.ObserveSlotsOffered(len(slots))
	return OfferSlots{Date: s.Date, Slots: slots}, nil
}

func (f *Flow) slotsFor(ctx context.Context, snap clinic.Snapshot, practitionerID, subServiceID int64, date time.Time) ([]schedule.ClockTime, error) {
	sub, ok := snap.SubService(subServiceID)
	if !ok {
		return nil, ErrIneligibleService
	}
	return f.engine.slots.Slots(ctx, practitionerID, date, sub.DurationMinutes)
}

func summaryOf(snap clinic.Snapshot, s State) ConfirmSummary {
	p, _ := snap.Practitioner(s.PractitionerID)
	sub, _ := snap.SubService(s.SubServiceID)
	summary := ConfirmSummary{Practitioner: p, Service: sub, Date: s.Date}
	if s.Slot != nil {
		summary.Slot = *s.Slot
	}
	return summary
}

func reasonCode(err error) string {
	switch {
	case errors.Is(err, ErrUnknownPractitioner):
		return "unknown_practitioner"
	case errors.Is(err, ErrIneligibleService):
		return "ineligible_service"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrClientNotFound):
		return "client_not_found"
	case errors.Is(err, ErrCommitInFlight):
		return "commit_in_flight"
	case errors.Is(err, ErrFlowCompleted):
		return "flow_completed"
	default:
		return "invalid_transition"
	}
}
