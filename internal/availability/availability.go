// Package availability turns practitioners' working intervals and existing
// appointments into bookable start times.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/physio-booking/internal/schedule"
)

// DefaultGranularity is the spacing between candidate start times in minutes.
const DefaultGranularity = 15

// ErrInvalidDuration is returned for non-positive treatment durations.
var ErrInvalidDuration = errors.New("availability: duration must be positive")

// Compute enumerates start times inside the shift's intervals, stepping by
// granularity from each interval start, and drops any candidate that would
// overlap a booked appointment. A nil shift yields no slots.
func Compute(shift *schedule.WorkShift, booked []schedule.Appointment, durationMinutes, granularityMinutes int) ([]schedule.ClockTime, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if shift == nil {
		return []schedule.ClockTime{}, nil
	}
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultGranularity
	}

	slots := []schedule.ClockTime{}
	for _, interval := range shift.Intervals() {
		for candidate := interval.Start; interval.Fits(candidate, durationMinutes); candidate = candidate.Add(granularityMinutes) {
			if !blocked(booked, candidate, durationMinutes) {
				slots = append(slots, candidate)
			}
		}
	}
	return slots, nil
}

func blocked(booked []schedule.Appointment, start schedule.ClockTime, duration int) bool {
	for _, appt := range booked {
		if appt.Blocks(start, duration) {
			return true
		}
	}
	return false
}

// FormatSlots renders slots as "HH:MM" strings.
func FormatSlots(slots []schedule.ClockTime) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

// Contains reports whether t is one of the slots.
func Contains(slots []schedule.ClockTime, t schedule.ClockTime) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

// DaySlots is one calendar day with at least one free slot.
type DaySlots struct {
	Date  time.Time            `json:"date"`
	Slots []schedule.ClockTime `json:"slots"`
}

// Calculator reads shifts and appointments on every call; results are never cached.
type Calculator struct {
	shifts       schedule.ShiftStore
	appointments schedule.AppointmentReader
	granularity  int
	tracer       trace.Tracer
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithGranularity overrides the candidate step. Non-positive values keep the default.
func WithGranularity(minutes int) Option {
	return func(c *Calculator) {
		if minutes > 0 {
			c.granularity = minutes
		}
	}
}

// WithTracer sets the tracer used for slot computation spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Calculator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewCalculator wires the calculator to its stores.
func NewCalculator(shifts schedule.ShiftStore, appointments schedule.AppointmentReader, opts ...Option) *Calculator {
	if shifts == nil || appointments == nil {
		panic("availability: shift and appointment stores required")
	}
	c := &Calculator{
		shifts:       shifts,
		appointments: appointments,
		granularity:  DefaultGranularity,
		tracer:       otel.Tracer("physio.internal.availability"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Granularity returns the configured step in minutes.
func (c *Calculator) Granularity() int {
	return c.granularity
}

// Slots returns the free start times for a treatment of the given duration.
func (c *Calculator) Slots(ctx context.Context, practitionerID int64, date time.Time, durationMinutes int) ([]schedule.ClockTime, error) {
	ctx, span := c.tracer.Start(ctx, "availability.slots")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("physio.practitioner_id", practitionerID),
		attribute.String("physio.date", schedule.FormatDate(date)),
		attribute.Int("physio.duration_minutes", durationMinutes),
	)

	if durationMinutes <= 0 {
		span.RecordError(ErrInvalidDuration)
		return nil, ErrInvalidDuration
	}

	shift, err := c.shifts.GetShift(ctx, practitionerID, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: get shift: %w", err)
	}
	if shift == nil {
		return []schedule.ClockTime{}, nil
	}
	booked, err := c.appointments.ListAppointments(ctx, practitionerID, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: list appointments: %w", err)
	}

	slots, err := Compute(shift, booked, durationMinutes, c.granularity)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("physio.slots", len(slots)))
	return slots, nil
}

// Days scans n calendar days starting at from and returns the ones with free slots.
func (c *Calculator) Days(ctx context.Context, practitionerID int64, from time.Time, n, durationMinutes int) ([]DaySlots, error) {
	var out []DaySlots
	start := schedule.Day(from)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i)
		slots, err := c.Slots(ctx, practitionerID, date, durationMinutes)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			out = append(out, DaySlots{Date: date, Slots: slots})
		}
	}
	return out, nil
}
