package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/physio-booking/internal/availability"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/clinic"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// SlotCalculator is satisfied by *availability.Calculator.
type SlotCalculator interface {
	Slots(ctx context.Context, practitionerID int64, date time.Time, durationMinutes int) ([]schedule.ClockTime, error)
	calendar.DaySource
}

// CatalogHandler serves the public catalog and availability endpoints.
type CatalogHandler struct {
	catalog clinic.Catalog
	slots   SlotCalculator
	logger  *logging.Logger
}

// NewCatalogHandler creates the catalog handler.
func NewCatalogHandler(catalog clinic.Catalog, slots SlotCalculator, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{catalog: catalog, slots: slots, logger: logger}
}

// AvailabilityResponse lists a practitioner's free start times on one date.
type AvailabilityResponse struct {
	PractitionerID  int64    `json:"practitioner_id"`
	ServiceID       int64    `json:"service_id"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

// GetCatalog returns practitioners and service categories.
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	snap, err := clinic.LoadSnapshot(r.Context(), h.catalog)
	if err != nil {
		h.logger.Error("failed to load catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetAvailability handles GET /practitioners/{id}/availability?date=&service=.
func (h *CatalogHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	practitionerID, sub, ok := h.resolve(w, r)
	if !ok {
		return
	}
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	slots, err := h.slots.Slots(r.Context(), practitionerID, date, sub.DurationMinutes)
	if err != nil {
		h.logger.Error("availability lookup failed", "practitioner_id", practitionerID, "date", schedule.FormatDate(date), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "availability unavailable")
		return
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		PractitionerID:  practitionerID,
		ServiceID:       sub.ID,
		Date:            schedule.FormatDate(date),
		DurationMinutes: sub.DurationMinutes,
		Slots:           availability.FormatSlots(slots),
	})
}

// GetWeek handles GET /practitioners/{id}/week?start=&service=.
func (h *CatalogHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	practitionerID, sub, ok := h.resolve(w, r)
	if !ok {
		return
	}
	start, err := schedule.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "start must be YYYY-MM-DD")
		return
	}
	week, err := calendar.WeekGrid(r.Context(), h.slots, practitionerID, start, sub.DurationMinutes)
	if err != nil {
		h.logger.Error("week grid failed", "practitioner_id", practitionerID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "availability unavailable")
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// resolve validates the practitioner path id and the service query
// parameter against the catalog.
func (h *CatalogHandler) resolve(w http.ResponseWriter, r *http.Request) (int64, clinic.SubService, bool) {
	practitionerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || practitionerID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_practitioner", "practitioner id must be a positive integer")
		return 0, clinic.SubService{}, false
	}
	serviceID, err := strconv.ParseInt(r.URL.Query().Get("service"), 10, 64)
	if err != nil || serviceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_service", "service must be a positive integer")
		return 0, clinic.SubService{}, false
	}
	snap, err := clinic.LoadSnapshot(r.Context(), h.catalog)
	if err != nil {
		h.logger.Error("failed to load catalog", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "catalog unavailable")
		return 0, clinic.SubService{}, false
	}
	if _, ok := snap.Practitioner(practitionerID); !ok {
		writeError(w, http.StatusNotFound, "unknown_practitioner", "practitioner not found")
		return 0, clinic.SubService{}, false
	}
	sub, ok := snap.SubService(serviceID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_service", "service not found")
		return 0, clinic.SubService{}, false
	}
	if !sub.EligibleFor(practitionerID) {
		writeError(w, http.StatusUnprocessableEntity, "ineligible_service", "practitioner does not perform this service")
		return 0, clinic.SubService{}, false
	}
	return practitionerID, sub, true
}
