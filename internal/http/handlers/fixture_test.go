package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/bookings"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/internal/session"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

const (
	marko = 2
	tecar = 5
	dns   = 10
)

var (
	testNow  = time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	shiftDay = schedule.MustDate("2026-02-25")
)

type fixture struct {
	store    *schedule.MemoryStore
	ledger   *bookings.Ledger
	sessions *session.Manager
	router   chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := clinic.SeedCatalog()
	store := schedule.NewMemoryStore(catalog.Eligible)
	require.NoError(t, store.PutShift(schedule.WorkShift{
		PractitionerID: marko,
		Date:           shiftDay,
		Type:           schedule.ShiftAfternoon,
		Primary:        schedule.Interval{Start: schedule.MustClock("13:00"), End: schedule.MustClock("20:00")},
	}))

	logger := logging.Discard()
	ledger := bookings.NewLedger(store)
	calc := availability.NewCalculator(store, ledger)
	clock := func() time.Time { return testNow }
	engine := booking.NewEngine(booking.Config{
		Catalog:      catalog,
		Directory:    clinic.NewMemoryDirectory(clinic.SeedClients()...),
		Availability: calc,
		Committer:    bookings.NewProtocol(ledger, time.Second, logger, nil),
		Now:          clock,
		Logger:       logger,
	})
	manager := session.NewManager(session.Config{
		Store:  session.NewMemoryStore(),
		Engine: engine,
		Driver: conversation.NewDriver(
			conversation.NewInterpreter(conversation.Croatian(), clock, 0),
			conversation.NewRenderer("Fizio Centar", 0),
			logger, nil,
		),
		Stepper: calendar.NewStepper(logger),
		Logger:  logger,
	})

	catalogHandler := NewCatalogHandler(catalog, calc, logger)
	sessionHandler := NewSessionHandler(manager, logger)
	adminHandler := NewAdminAppointmentsHandler(store, ledger, logger)

	r := chi.NewRouter()
	r.Get("/catalog", catalogHandler.GetCatalog)
	r.Get("/practitioners/{id}/availability", catalogHandler.GetAvailability)
	r.Get("/practitioners/{id}/week", catalogHandler.GetWeek)
	r.Post("/sessions", sessionHandler.Create)
	r.Get("/sessions/{id}", sessionHandler.Get)
	r.Post("/sessions/{id}/actions", sessionHandler.Act)
	r.Post("/sessions/{id}/messages", sessionHandler.Message)
	r.Patch("/admin/appointments/{id}", adminHandler.Reschedule)
	r.Delete("/admin/appointments/{id}", adminHandler.Cancel)

	return &fixture{store: store, ledger: ledger, sessions: manager, router: r}
}

func (fx *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// book commits an appointment directly in the store.
func (fx *fixture) book(t *testing.T, start string) schedule.Appointment {
	t.Helper()
	appt, err := fx.store.Commit(t.Context(), schedule.Appointment{
		PractitionerID:  marko,
		ClientID:        1,
		SubServiceID:    tecar,
		Date:            shiftDay,
		Start:           schedule.MustClock(start),
		DurationMinutes: 45,
	})
	require.NoError(t, err)
	return appt
}
