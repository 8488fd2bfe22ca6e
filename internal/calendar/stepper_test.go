package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/bookings"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

var (
	testNow  = time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	shiftDay = schedule.MustDate("2026-02-25")
)

type fixture struct {
	engine  *booking.Engine
	store   *schedule.MemoryStore
	stepper *Stepper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := clinic.SeedCatalog()
	store := schedule.NewMemoryStore(catalog.Eligible)
	require.NoError(t, store.PutShift(schedule.WorkShift{
		PractitionerID: 2,
		Date:           shiftDay,
		Type:           schedule.ShiftAfternoon,
		Primary:        schedule.Interval{Start: schedule.MustClock("13:00"), End: schedule.MustClock("20:00")},
	}))
	logger := logging.Discard()
	ledger := bookings.NewLedger(store)
	engine := booking.NewEngine(booking.Config{
		Catalog:      catalog,
		Directory:    clinic.NewMemoryDirectory(clinic.SeedClients()...),
		Availability: availability.NewCalculator(store, ledger),
		Committer:    bookings.NewProtocol(ledger, time.Second, logger, nil),
		Now:          func() time.Time { return testNow },
		Logger:       logger,
	})
	return &fixture{engine: engine, store: store, stepper: NewStepper(logger)}
}

func (fx *fixture) act(t *testing.T, flow *booking.Flow, a Action) View {
	t.Helper()
	v, err := fx.stepper.Handle(context.Background(), flow, a)
	require.NoError(t, err, "action %s", a.Type)
	return v
}

// toConfirmation walks Marko, TECAR, 2026-02-25 14:00.
func (fx *fixture) toConfirmation(t *testing.T, flow *booking.Flow) View {
	t.Helper()
	fx.act(t, flow, Action{Type: ActionChoosePractitioner, PractitionerID: 2})
	fx.act(t, flow, Action{Type: ActionChooseService, SubServiceID: 5})
	fx.act(t, flow, Action{Type: ActionChooseDate, Date: "2026-02-25"})
	return fx.act(t, flow, Action{Type: ActionChooseSlot, Time: "14:00"})
}

func TestStepperWalkthrough(t *testing.T) {
	fx := newFixture(t)
	flow := fx.engine.Start()

	v, err := fx.stepper.Show(context.Background(), flow)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Step)
	assert.Len(t, v.Practitioners, 3)

	v = fx.act(t, flow, Action{Type: ActionChoosePractitioner, PractitionerID: 2})
	assert.Equal(t, 2, v.Step)
	require.NotNil(t, v.Practitioner)
	assert.Equal(t, "Marko Horvat", v.Practitioner.Name)
	assert.NotEmpty(t, v.Categories)

	v = fx.act(t, flow, Action{Type: ActionChooseService, SubServiceID: 5})
	assert.Equal(t, 3, v.Step)
	require.Len(t, v.Days, booking.DefaultHorizonDays)
	assert.Equal(t, "2026-02-21", v.Days[0].Date)
	assert.Equal(t, "sub", v.Days[0].Weekday)
	assert.False(t, v.Days[0].Available)
	assert.Equal(t, "2026-02-25", v.Days[4].Date)
	assert.Equal(t, "25.2.", v.Days[4].Label)
	assert.True(t, v.Days[4].Available)
	assert.Equal(t, "13:00", v.Days[4].Slots[0])

	v = fx.act(t, flow, Action{Type: ActionChooseDate, Date: "2026-02-25"})
	assert.Equal(t, booking.PhaseSelectingSlot, v.Phase)
	assert.Equal(t, "2026-02-25", v.Date)
	assert.Contains(t, v.Slots, "14:00")

	v = fx.act(t, flow, Action{Type: ActionChooseSlot, Time: "14:00"})
	assert.Equal(t, 4, v.Step)
	require.NotNil(t, v.Summary)
	assert.Equal(t, Summary{
		Practitioner: "Marko Horvat",
		Service:      "TECAR terapija",
		Duration:     45,
		Price:        "45 €",
		Date:         "2026-02-25",
		DateLabel:    "srijeda, 25. veljače 2026.",
		Time:         "14:00",
	}, *v.Summary)

	v = fx.act(t, flow, Action{Type: ActionConfirm})
	assert.Equal(t, 5, v.Step)
	assert.True(t, v.AskIdentity)

	v, err = fx.stepper.Handle(context.Background(), flow, Action{Type: ActionIdentify, Text: "Nitko Nepoznat"})
	assert.ErrorIs(t, err, booking.ErrClientNotFound)
	assert.True(t, v.AskIdentity)
	require.Len(t, v.Notices, 1)
	assert.Equal(t, "client_not_found", v.Notices[0].Code)

	v = fx.act(t, flow, Action{Type: ActionIdentify, Text: "091 234 5678"})
	assert.Equal(t, 5, v.Step)
	assert.NotEmpty(t, v.AppointmentID)
	assert.True(t, v.State.Booked())
	assert.Equal(t, "Ana Kovačević", v.State.Client.FullName)
}

func TestStepperRejection(t *testing.T) {
	fx := newFixture(t)
	flow := fx.engine.Start()
	fx.act(t, flow, Action{Type: ActionChoosePractitioner, PractitionerID: 2})

	v, err := fx.stepper.Handle(context.Background(), flow, Action{Type: ActionChooseService, SubServiceID: 10})
	assert.ErrorIs(t, err, booking.ErrIneligibleService)
	assert.Equal(t, 2, v.Step)
	assert.NotEmpty(t, v.Categories)
	require.Len(t, v.Notices, 1)
	assert.Equal(t, "ineligible_service", v.Notices[0].Code)
	assert.NotEmpty(t, v.Notices[0].Message)
}

func TestStepperInvalidAction(t *testing.T) {
	fx := newFixture(t)
	flow := fx.engine.Start()

	_, err := fx.stepper.Handle(context.Background(), flow, Action{Type: ActionChooseDate, Date: "sutra"})
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, booking.PhaseSelectingPractitioner, flow.State().Phase)
}

func TestStepperSlotTakenReoffersSameDate(t *testing.T) {
	fx := newFixture(t)
	flow := fx.engine.Start()
	fx.toConfirmation(t, flow)
	fx.act(t, flow, Action{Type: ActionConfirm})

	// Another client takes 14:00 before this one identifies.
	_, err := fx.store.Commit(context.Background(), schedule.Appointment{
		PractitionerID:  2,
		ClientID:        2,
		SubServiceID:    5,
		Date:            shiftDay,
		Start:           schedule.MustClock("14:00"),
		DurationMinutes: 45,
	})
	require.NoError(t, err)

	v := fx.act(t, flow, Action{Type: ActionIdentify, Text: "ana.kovacevic@example.com"})
	assert.Equal(t, booking.PhaseSelectingSlot, v.Phase)
	assert.Equal(t, "2026-02-25", v.Date)
	assert.NotContains(t, v.Slots, "14:00")
	assert.NotContains(t, v.Slots, "13:30")
	assert.Contains(t, v.Slots, "14:45")
	require.NotEmpty(t, v.Notices)
	assert.Equal(t, "slot_taken", v.Notices[0].Code)
	assert.False(t, v.CanRetry)
}

type failingDays struct{}

func (failingDays) Days(context.Context, int64, time.Time, int, int) ([]availability.DaySlots, error) {
	return nil, errors.New("db down")
}

func TestWeekGrid(t *testing.T) {
	catalog := clinic.SeedCatalog()
	store := schedule.NewMemoryStore(catalog.Eligible)
	require.NoError(t, clinic.SeedRoster(store, schedule.MustDate("2026-02-23"), 14))
	calc := availability.NewCalculator(store, store)

	week, err := WeekGrid(context.Background(), calc, 3, shiftDay, 30)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-23", week.Start)
	require.Len(t, week.Days, 7)
	var open []bool
	for _, d := range week.Days {
		open = append(open, d.Available)
	}
	assert.Equal(t, []bool{true, false, true, false, true, false, false}, open)
	assert.Equal(t, "pon", week.Days[0].Weekday)
	assert.Equal(t, "08:00", week.Days[0].Slots[0])

	_, err = WeekGrid(context.Background(), failingDays{}, 3, shiftDay, 30)
	assert.Error(t, err)
}

func TestMondayOf(t *testing.T) {
	assert.Equal(t, schedule.MustDate("2026-02-23"), MondayOf(schedule.MustDate("2026-02-23")))
	assert.Equal(t, schedule.MustDate("2026-02-23"), MondayOf(schedule.MustDate("2026-03-01")))
	assert.Equal(t, schedule.MustDate("2026-02-23"), MondayOf(time.Date(2026, 2, 25, 18, 30, 0, 0, time.UTC)))
}
