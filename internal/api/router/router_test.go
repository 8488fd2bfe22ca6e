package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/bookings"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/physio-booking/internal/http/middleware"
	"github.com/wolfman30/physio-booking/internal/observability/metrics"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/internal/session"
	"github.com/wolfman30/physio-booking/internal/webchat"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

const adminSecret = "router-test-secret"

type testEnv struct {
	router http.Handler
	store  *schedule.MemoryStore
}

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) *testEnv {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)

	catalog := clinic.SeedCatalog()
	store := schedule.NewMemoryStore(catalog.Eligible)
	now := time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)
	require.NoError(t, clinic.SeedRoster(store, now, 14))

	ledger := bookings.NewLedger(store)
	calc := availability.NewCalculator(store, ledger)
	clock := func() time.Time { return now }
	engine := booking.NewEngine(booking.Config{
		Catalog:      catalog,
		Directory:    clinic.NewMemoryDirectory(clinic.SeedClients()...),
		Availability: calc,
		Committer:    bookings.NewProtocol(ledger, time.Second, logger, m),
		Metrics:      m,
		Now:          clock,
		Logger:       logger,
	})
	manager := session.NewManager(session.Config{
		Store:   session.NewMemoryStore(),
		Engine:  engine,
		Driver:  conversation.NewDriver(conversation.NewInterpreter(conversation.Croatian(), clock, 0), conversation.NewRenderer("", 0), logger, m),
		Stepper: calendar.NewStepper(logger),
		Logger:  logger,
	})

	cfg := &Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(nil, nil, logger),
		Catalog:            handlers.NewCatalogHandler(catalog, calc, logger),
		Sessions:           handlers.NewSessionHandler(manager, logger),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(store, ledger, logger),
		WebChat:            webchat.NewHandler(manager, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAuthSecret:    adminSecret,
		CORSAllowedOrigins: []string{"https://fizio.example.com"},
		SessionLimiter:     limiter,
	}
	return &testEnv{router: New(cfg), store: store}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoints(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := env.serve(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = env.serve(httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterPublicAPI(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := env.serve(httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = env.serve(httptest.NewRequest(http.MethodGet, "/api/v1/practitioners/1/availability?date=2026-02-23&service=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"08:00"`)

	rr = env.serve(httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "session_id")

	rr = env.serve(httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	env := newTestRouter(t, nil)

	rr := env.serve(httptest.NewRequest(http.MethodPost, "/api/v1/sessions?mode=chat", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+created.SessionID+"/messages", strings.NewReader(`{"text":"Marko"}`))
	rr = env.serve(req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "physio_booking_chat_inputs_total")
	assert.Contains(t, rr.Body.String(), "physio_booking_transitions_total")
}

func TestRouterAdminRequiresToken(t *testing.T) {
	env := newTestRouter(t, nil)
	appt, err := env.store.Commit(t.Context(), schedule.Appointment{
		PractitionerID: 2, ClientID: 1, SubServiceID: 5,
		Date: schedule.MustDate("2026-02-23"), Start: schedule.MustClock("14:00"), DurationMinutes: 45,
	})
	require.NoError(t, err)

	rr := env.serve(httptest.NewRequest(http.MethodDelete, "/admin/appointments/"+appt.ID, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	token, err := httpmiddleware.IssueAdminToken(adminSecret, "recepcija@fizio.example.com", "reception", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/admin/appointments/"+appt.ID, strings.NewReader(`{"date":"2026-02-23","start":"15:00"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr = env.serve(req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	req = httptest.NewRequest(http.MethodDelete, "/admin/appointments/"+appt.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = env.serve(req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	env := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://fizio.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := env.serve(req)
	assert.Equal(t, "https://fizio.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterRateLimitsSessionCreation(t *testing.T) {
	env := newTestRouter(t, httpmiddleware.NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		rr := env.serve(httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	rr := env.serve(httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Reads are not limited.
	rr = env.serve(httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
