package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/physio-booking/internal/schedule"
)

func TestRescheduleAppointment(t *testing.T) {
	fx := newFixture(t)
	appt := fx.book(t, "14:00")

	rec := fx.do(t, http.MethodPatch, "/admin/appointments/"+appt.ID, RescheduleRequest{Date: "2026-02-25", Start: "16:30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	moved := decode[schedule.Appointment](t, rec)
	assert.Equal(t, appt.ID, moved.ID)
	assert.Equal(t, schedule.MustClock("16:30"), moved.Start)

	rec = fx.do(t, http.MethodGet, "/practitioners/2/availability?date=2026-02-25&service=5", nil)
	slots := decode[AvailabilityResponse](t, rec).Slots
	assert.Contains(t, slots, "14:00")
	assert.NotContains(t, slots, "16:30")
}

func TestRescheduleConflict(t *testing.T) {
	fx := newFixture(t)
	first := fx.book(t, "14:00")
	fx.book(t, "16:00")

	rec := fx.do(t, http.MethodPatch, "/admin/appointments/"+first.ID, RescheduleRequest{Date: "2026-02-25", Start: "16:15"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_taken", decode[ErrorBody](t, rec).Error.Code)
}

func TestRescheduleValidation(t *testing.T) {
	fx := newFixture(t)
	appt := fx.book(t, "14:00")

	rec := fx.do(t, http.MethodPatch, "/admin/appointments/"+appt.ID, RescheduleRequest{Date: "sutra", Start: "16:30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(t, http.MethodPatch, "/admin/appointments/"+appt.ID, RescheduleRequest{Date: "2026-02-25", Start: "25:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(t, http.MethodPatch, "/admin/appointments/999", RescheduleRequest{Date: "2026-02-25", Start: "16:30"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "appointment_not_found", decode[ErrorBody](t, rec).Error.Code)
}

func TestCancelAppointment(t *testing.T) {
	fx := newFixture(t)
	appt := fx.book(t, "14:00")

	rec := fx.do(t, http.MethodDelete, "/admin/appointments/"+appt.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = fx.do(t, http.MethodDelete, "/admin/appointments/"+appt.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.do(t, http.MethodGet, "/practitioners/2/availability?date=2026-02-25&service=5", nil)
	assert.Contains(t, decode[AvailabilityResponse](t, rec).Slots, "14:00")
}
