package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/bookings"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/schedule"
	"github.com/wolfman30/physio-booking/internal/session"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{session.ErrNotFound, http.StatusNotFound, "session_not_found"},
		{fmt.Errorf("wrap: %w", schedule.ErrAppointmentNotFound), http.StatusNotFound, "appointment_not_found"},
		{session.ErrBusy, http.StatusConflict, "session_busy"},
		{booking.ErrCommitInFlight, http.StatusConflict, "commit_in_flight"},
		{fmt.Errorf("%w: 14:00 overlaps", schedule.ErrSlotTaken), http.StatusConflict, "slot_taken"},
		{fmt.Errorf("%w: unknown type", calendar.ErrInvalidAction), http.StatusBadRequest, "invalid_action"},
		{schedule.ErrPastMidnight, http.StatusBadRequest, "invalid_time"},
		{booking.ErrIneligibleService, http.StatusUnprocessableEntity, "rejected"},
		{bookings.ErrCommitTimeout, http.StatusGatewayTimeout, "commit_timeout"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, code := statusFor(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
