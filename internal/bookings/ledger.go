package bookings

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wolfman30/physio-booking/internal/schedule"
)

// Ledger is the engine's appointment snapshot. Reads go through to the store
// and are overlaid with optimistic records the commit protocol has written
// but the store has not reported yet, so availability never offers a range
// that is mid-commit.
type Ledger struct {
	store schedule.AppointmentStore

	mu      sync.RWMutex
	records map[string]schedule.Appointment
}

// NewLedger wraps the authoritative store.
func NewLedger(store schedule.AppointmentStore) *Ledger {
	if store == nil {
		panic("bookings: appointment store required")
	}
	return &Ledger{store: store, records: make(map[string]schedule.Appointment)}
}

// ListAppointments returns the store's appointments plus local records for
// the same practitioner and date. Local records the store already reports
// are dropped.
func (l *Ledger) ListAppointments(ctx context.Context, practitionerID int64, date time.Time) ([]schedule.Appointment, error) {
	stored, err := l.store.ListAppointments(ctx, practitionerID, date)
	if err != nil {
		return nil, fmt.Errorf("bookings: list appointments: %w", err)
	}

	seen := make(map[string]struct{}, len(stored))
	for _, a := range stored {
		seen[a.ID] = struct{}{}
	}

	l.mu.Lock()
	out := stored
	for id, rec := range l.records {
		if rec.PractitionerID != practitionerID || !schedule.SameDay(rec.Date, date) {
			continue
		}
		if _, ok := seen[id]; ok {
			delete(l.records, id)
			continue
		}
		out = append(out, rec)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// Get returns a local record by id.
func (l *Ledger) Get(id string) (schedule.Appointment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.records[id]
	return rec, ok
}

// Len reports how many local records are held.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Forget drops a local record, used when an appointment is changed outside
// the booking flow.
func (l *Ledger) Forget(id string) {
	l.remove(id)
}

func (l *Ledger) insert(appt schedule.Appointment) {
	l.mu.Lock()
	l.records[appt.ID] = appt
	l.mu.Unlock()
}

// replace swaps a provisional record for the stored one under its real id.
func (l *Ledger) replace(tempID string, stored schedule.Appointment) {
	l.mu.Lock()
	delete(l.records, tempID)
	l.records[stored.ID] = stored
	l.mu.Unlock()
}

func (l *Ledger) remove(id string) {
	l.mu.Lock()
	delete(l.records, id)
	l.mu.Unlock()
}
