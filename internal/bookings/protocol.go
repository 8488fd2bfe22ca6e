package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/observability/metrics"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

var bookingsTracer = otel.Tracer("physio.internal.bookings")

// DefaultCommitTimeout bounds a single store commit.
const DefaultCommitTimeout = 10 * time.Second

// ErrCommitTimeout is returned when the store does not answer in time. The
// outcome is unknown to the caller, so the commit may be retried.
var ErrCommitTimeout = errors.New("bookings: commit timed out")

// Observer is notified after an appointment is stored.
type Observer interface {
	BookingCommitted(ctx context.Context, receipt booking.Receipt, req booking.Request)
}

// Protocol writes an optimistic record, commits it to the store and then
// either replaces the record with the stored one or removes it.
type Protocol struct {
	ledger    *Ledger
	timeout   time.Duration
	logger    *logging.Logger
	metrics   *metrics.BookingMetrics
	observers []Observer
}

// NewProtocol constructs the commit protocol over a ledger.
func NewProtocol(ledger *Ledger, timeout time.Duration, logger *logging.Logger, m *metrics.BookingMetrics) *Protocol {
	if ledger == nil {
		panic("bookings: ledger required")
	}
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Protocol{ledger: ledger, timeout: timeout, logger: logger, metrics: m}
}

// Observe registers an observer for successful commits.
func (p *Protocol) Observe(o Observer) {
	if o != nil {
		p.observers = append(p.observers, o)
	}
}

type commitOutcome struct {
	appt schedule.Appointment
	err  error
}

// Run commits req. It never recomputes availability: conflicts are detected
// by the store and reported as schedule.ErrSlotTaken, unless the conflicting
// row is this client's identical booking, which is returned as the receipt.
func (p *Protocol) Run(ctx context.Context, req booking.Request) (booking.Receipt, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.commit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("physio.practitioner_id", req.PractitionerID),
		attribute.Int64("physio.sub_service_id", req.SubServiceID),
		attribute.String("physio.date", schedule.FormatDate(req.Date)),
		attribute.String("physio.start", req.Start.String()),
	)

	appt := req.Appointment()
	tempID := schedule.TempIDPrefix + uuid.NewString()
	provisional := appt
	provisional.ID = tempID
	provisional.Status = schedule.StatusPending
	p.ledger.insert(provisional)

	commitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	done := make(chan commitOutcome, 1)
	go func() {
		stored, err := p.ledger.store.Commit(commitCtx, appt)
		done <- commitOutcome{appt: stored, err: err}
	}()

	var out commitOutcome
	select {
	case out = <-done:
	case <-commitCtx.Done():
		out.err = commitCtx.Err()
	}
	elapsed := time.Since(started)

	if errors.Is(out.err, schedule.ErrSlotTaken) {
		if held, ok := p.alreadyHeld(ctx, appt); ok {
			p.logger.Info("commit matched an appointment already held by the client",
				"appointment_id", held.ID, "practitioner_id", req.PractitionerID, "client_id", appt.ClientID)
			out = commitOutcome{appt: held}
		}
	}

	if out.err != nil {
		p.ledger.remove(tempID)
		span.RecordError(out.err)
		err := p.classify(ctx, out.err, elapsed)
		p.logger.Warn("appointment commit failed",
			"practitioner_id", req.PractitionerID,
			"date", schedule.FormatDate(req.Date),
			"start", req.Start.String(),
			"elapsed", elapsed,
			"error", err,
		)
		return booking.Receipt{}, err
	}

	p.ledger.replace(tempID, out.appt)
	p.metrics.ObserveCommit("booked", elapsed)
	span.SetAttributes(attribute.String("physio.appointment_id", out.appt.ID))
	p.logger.Info("appointment committed", "appointment_id", out.appt.ID, "practitioner_id", req.PractitionerID, "elapsed", elapsed)

	receipt := booking.Receipt{AppointmentID: out.appt.ID, Appointment: out.appt}
	if len(p.observers) > 0 {
		notifyCtx := context.WithoutCancel(ctx)
		go func() {
			for _, o := range p.observers {
				o.BookingCommitted(notifyCtx, receipt, req)
			}
		}()
	}
	return receipt, nil
}

// alreadyHeld finds a stored appointment identical to appt for the same
// client. A commit that timed out may still have been written, and retrying
// it then collides with the client's own booking.
func (p *Protocol) alreadyHeld(ctx context.Context, appt schedule.Appointment) (schedule.Appointment, bool) {
	if appt.ClientID == 0 {
		return schedule.Appointment{}, false
	}
	stored, err := p.ledger.store.ListAppointments(ctx, appt.PractitionerID, appt.Date)
	if err != nil {
		p.logger.Warn("failed to look up existing appointment", "practitioner_id", appt.PractitionerID, "error", err)
		return schedule.Appointment{}, false
	}
	for _, a := range stored {
		if a.Provisional() || a.Status == schedule.StatusCancelled {
			continue
		}
		if a.ClientID == appt.ClientID && a.SubServiceID == appt.SubServiceID &&
			a.Start == appt.Start && a.DurationMinutes == appt.DurationMinutes {
			return a, true
		}
	}
	return schedule.Appointment{}, false
}

func (p *Protocol) classify(ctx context.Context, err error, elapsed time.Duration) error {
	switch {
	case errors.Is(err, schedule.ErrSlotTaken):
		p.metrics.ObserveCommit("slot_taken", elapsed)
		return err
	case errors.Is(err, schedule.ErrIneligible):
		p.metrics.ObserveCommit("ineligible", elapsed)
		return err
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		p.metrics.ObserveCommit("timeout", elapsed)
		return fmt.Errorf("%w after %s", ErrCommitTimeout, p.timeout)
	default:
		p.metrics.ObserveCommit("error", elapsed)
		return fmt.Errorf("bookings: commit: %w", err)
	}
}
