package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreShifts(t *testing.T) {
	store := NewMemoryStore(nil)
	date := MustDate("2026-03-02")
	ctx := context.Background()

	shift, err := store.GetShift(ctx, 1, date)
	require.NoError(t, err)
	assert.Nil(t, shift)

	require.NoError(t, store.PutShift(WorkShift{PractitionerID: 1, Date: date, Type: ShiftMorning, Primary: Interval{Start: MustClock("08:00"), End: MustClock("12:00")}}))
	shift, err = store.GetShift(ctx, 1, date)
	require.NoError(t, err)
	require.NotNil(t, shift)
	assert.Equal(t, MustClock("12:00"), shift.Primary.End)

	err = store.PutShift(WorkShift{PractitionerID: 1, Date: date, Primary: Interval{Start: MustClock("12:00"), End: MustClock("08:00")}})
	assert.ErrorIs(t, err, ErrInvalidShift)
}

func TestMemoryStoreCommitDetectsOverlap(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	date := MustDate("2026-03-02")

	first, err := store.Commit(ctx, Appointment{PractitionerID: 1, ClientID: 9, SubServiceID: 3, Date: date, Start: MustClock("10:00"), DurationMinutes: 45})
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, StatusConfirmed, first.Status)

	_, err = store.Commit(ctx, Appointment{PractitionerID: 1, Date: date, Start: MustClock("10:30"), DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Another practitioner is unaffected.
	_, err = store.Commit(ctx, Appointment{PractitionerID: 2, Date: date, Start: MustClock("10:30"), DurationMinutes: 30})
	require.NoError(t, err)

	_, err = store.Commit(ctx, Appointment{PractitionerID: 1, Date: date, Start: MustClock("10:45"), DurationMinutes: 30})
	require.NoError(t, err)

	list, err := store.ListAppointments(ctx, 1, date)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, MustClock("10:00"), list[0].Start)
	assert.Equal(t, MustClock("10:45"), list[1].Start)
}

func TestMemoryStoreEligibility(t *testing.T) {
	store := NewMemoryStore(func(practitionerID, subServiceID int64) bool {
		return practitionerID == 1 && subServiceID == 3
	})
	_, err := store.Commit(context.Background(), Appointment{PractitionerID: 1, SubServiceID: 4, Date: MustDate("2026-03-02"), Start: MustClock("09:00"), DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrIneligible)
}

func TestMemoryStoreConcurrentCommitsSingleWinner(t *testing.T) {
	store := NewMemoryStore(nil)
	date := MustDate("2026-03-02")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		losses  int
		unknown []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Commit(context.Background(), Appointment{PractitionerID: 1, Date: date, Start: MustClock("14:00"), DurationMinutes: 60})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotTaken):
				losses++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 7, losses)
	assert.Empty(t, unknown)
}

func TestMemoryStoreRescheduleAndCancel(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()
	date := MustDate("2026-03-02")

	a, err := store.Commit(ctx, Appointment{PractitionerID: 1, Date: date, Start: MustClock("09:00"), DurationMinutes: 60})
	require.NoError(t, err)
	b, err := store.Commit(ctx, Appointment{PractitionerID: 1, Date: date, Start: MustClock("11:00"), DurationMinutes: 60})
	require.NoError(t, err)

	_, err = store.Reschedule(ctx, b.ID, date, MustClock("09:30"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Moving within its own span is fine.
	moved, err := store.Reschedule(ctx, b.ID, date, MustClock("11:30"))
	require.NoError(t, err)
	assert.Equal(t, MustClock("11:30"), moved.Start)

	_, err = store.Reschedule(ctx, b.ID, date, MustClock("23:30"))
	assert.ErrorIs(t, err, ErrPastMidnight)

	require.NoError(t, store.Cancel(ctx, a.ID))
	assert.ErrorIs(t, store.Cancel(ctx, a.ID), ErrAppointmentNotFound)
	_, err = store.Reschedule(ctx, "missing", date, MustClock("09:00"))
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	list, err := store.ListAppointments(ctx, 1, date)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}
