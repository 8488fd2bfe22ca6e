package schedule

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// EligibilityFunc reports whether a practitioner offers a sub-service.
type EligibilityFunc func(practitionerID, subServiceID int64) bool

// MemoryStore is an in-memory ShiftStore and AppointmentStore used by tests,
// the terminal chat and servers started with USE_MEMORY_STORE.
type MemoryStore struct {
	mu           sync.RWMutex
	shifts       map[shiftKey]WorkShift
	appointments map[string]Appointment
	nextID       int64
	eligible     EligibilityFunc
}

type shiftKey struct {
	practitionerID int64
	date           string
}

// NewMemoryStore creates an empty store. A nil eligibility func accepts everything.
func NewMemoryStore(eligible EligibilityFunc) *MemoryStore {
	return &MemoryStore{
		shifts:       make(map[shiftKey]WorkShift),
		appointments: make(map[string]Appointment),
		eligible:     eligible,
	}
}

// PutShift stores or replaces the shift for its practitioner and date.
func (s *MemoryStore) PutShift(shift WorkShift) error {
	if err := shift.Validate(); err != nil {
		return err
	}
	shift.Date = Day(shift.Date)
	s.mu.Lock()
	s.shifts[shiftKey{shift.PractitionerID, FormatDate(shift.Date)}] = shift
	s.mu.Unlock()
	return nil
}

// GetShift returns the shift or nil when the practitioner is off.
func (s *MemoryStore) GetShift(ctx context.Context, practitionerID int64, date time.Time) (*WorkShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shift, ok := s.shifts[shiftKey{practitionerID, FormatDate(date)}]
	if !ok {
		return nil, nil
	}
	return &shift, nil
}

// ListAppointments returns live appointments ordered by start time.
func (s *MemoryStore) ListAppointments(ctx context.Context, practitionerID int64, date time.Time) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(practitionerID, date, ""), nil
}

// Commit checks eligibility and overlap, then stores the appointment under a new id.
func (s *MemoryStore) Commit(ctx context.Context, appt Appointment) (Appointment, error) {
	if err := ctx.Err(); err != nil {
		return Appointment{}, err
	}
	if s.eligible != nil && !s.eligible(appt.PractitionerID, appt.SubServiceID) {
		return Appointment{}, ErrIneligible
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listLocked(appt.PractitionerID, appt.Date, "") {
		if existing.Blocks(appt.Start, appt.DurationMinutes) {
			return Appointment{}, fmt.Errorf("%w: %s overlaps %s", ErrSlotTaken, appt.Start, existing.Span())
		}
	}
	s.nextID++
	appt.ID = strconv.FormatInt(s.nextID, 10)
	appt.Date = Day(appt.Date)
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}
	s.appointments[appt.ID] = appt
	return appt, nil
}

// Reschedule moves an appointment, rejecting overlaps with other bookings.
func (s *MemoryStore) Reschedule(ctx context.Context, id string, date time.Time, start ClockTime) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok || appt.Status == StatusCancelled {
		return Appointment{}, ErrAppointmentNotFound
	}
	if start.Add(appt.DurationMinutes) > MinutesPerDay {
		return Appointment{}, ErrPastMidnight
	}
	for _, existing := range s.listLocked(appt.PractitionerID, date, id) {
		if existing.Blocks(start, appt.DurationMinutes) {
			return Appointment{}, ErrSlotTaken
		}
	}
	appt.Date = Day(date)
	appt.Start = start
	s.appointments[id] = appt
	return appt, nil
}

// Cancel marks an appointment cancelled so it no longer blocks slots.
func (s *MemoryStore) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok || appt.Status == StatusCancelled {
		return ErrAppointmentNotFound
	}
	appt.Status = StatusCancelled
	s.appointments[id] = appt
	return nil
}

func (s *MemoryStore) listLocked(practitionerID int64, date time.Time, excludeID string) []Appointment {
	var out []Appointment
	for _, appt := range s.appointments {
		if appt.PractitionerID != practitionerID || !SameDay(appt.Date, date) {
			continue
		}
		if appt.Status == StatusCancelled || appt.ID == excludeID {
			continue
		}
		out = append(out, appt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
