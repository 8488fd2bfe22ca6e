package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/physio-booking/internal/http/middleware"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

// CacheForgetter drops a cached appointment. *bookings.Ledger satisfies it.
type CacheForgetter interface {
	Forget(id string)
}

// AdminAppointmentsHandler lets staff move or cancel appointments.
type AdminAppointmentsHandler struct {
	store  schedule.AppointmentAdmin
	cache  CacheForgetter
	logger *logging.Logger
}

// NewAdminAppointmentsHandler creates the handler. cache may be nil.
func NewAdminAppointmentsHandler(store schedule.AppointmentAdmin, cache CacheForgetter, logger *logging.Logger) *AdminAppointmentsHandler {
	if store == nil {
		panic("handlers: appointment store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{store: store, cache: cache, logger: logger}
}

// RescheduleRequest moves an appointment to a new date and start time.
type RescheduleRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
}

// Reschedule handles PATCH /admin/appointments/{id}.
func (h *AdminAppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RescheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	start, err := schedule.ParseClock(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_time", "start must be HH:MM")
		return
	}

	appt, err := h.store.Reschedule(r.Context(), id, date, start)
	if err != nil {
		h.fail(w, r, "reschedule", id, err)
		return
	}
	h.forget(id)
	h.logger.Info("appointment rescheduled",
		"appointment_id", id,
		"date", schedule.FormatDate(appt.Date),
		"start", appt.Start.String(),
		"by", actor(r),
	)
	writeJSON(w, http.StatusOK, appt)
}

// Cancel handles DELETE /admin/appointments/{id}.
func (h *AdminAppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Cancel(r.Context(), id); err != nil {
		h.fail(w, r, "cancel", id, err)
		return
	}
	h.forget(id)
	h.logger.Info("appointment cancelled", "appointment_id", id, "by", actor(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAppointmentsHandler) forget(id string) {
	if h.cache != nil {
		h.cache.Forget(id)
	}
}

func (h *AdminAppointmentsHandler) fail(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin appointment update failed", "op", op, "appointment_id", id, "by", actor(r), "error", err)
		writeError(w, status, code, http.StatusText(status))
		return
	}
	writeError(w, status, code, err.Error())
}

func actor(r *http.Request) string {
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok {
		return claims.Subject
	}
	return ""
}
