package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/conversation"
)

type resultBody struct {
	State      booking.State `json:"state"`
	Directives []struct {
		Type string `json:"type"`
	} `json:"directives"`
}

type createBody struct {
	SessionID string              `json:"session_id"`
	Result    *resultBody         `json:"result"`
	Reply     *conversation.Reply `json:"reply"`
}

func (fx *fixture) open(t *testing.T) string {
	t.Helper()
	rec := fx.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[createBody](t, rec)
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func (fx *fixture) act(t *testing.T, id string, a calendar.Action) ViewResponse {
	t.Helper()
	rec := fx.do(t, http.MethodPost, "/sessions/"+id+"/actions", a)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[ViewResponse](t, rec)
}

func TestCreateSession(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[createBody](t, rec)
	require.NotNil(t, body.Result)
	assert.Nil(t, body.Reply)
	assert.Equal(t, booking.PhaseSelectingPractitioner, body.Result.State.Phase)
	require.NotEmpty(t, body.Result.Directives)
	assert.Equal(t, string(booking.KindOfferPractitioners), body.Result.Directives[0].Type)
}

func TestCreateChatSession(t *testing.T) {
	fx := newFixture(t)
	rec := fx.do(t, http.MethodPost, "/sessions?mode=chat", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode[createBody](t, rec)
	require.NotNil(t, body.Reply)
	assert.Nil(t, body.Result)
	require.Len(t, body.Reply.Messages, 2)
	assert.Contains(t, body.Reply.Messages[0].Text, "Fizio Centar")
}

func TestGetSession(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t)

	rec := fx.do(t, http.MethodGet, "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.PhaseSelectingPractitioner, decode[resultBody](t, rec).State.Phase)

	rec = fx.do(t, http.MethodGet, "/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session_not_found", decode[ErrorBody](t, rec).Error.Code)
}

func TestCalendarBookingOverHTTP(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t)

	resp := fx.act(t, id, calendar.Action{Type: calendar.ActionChoosePractitioner, PractitionerID: marko})
	assert.Equal(t, 2, resp.View.Step)

	resp = fx.act(t, id, calendar.Action{Type: calendar.ActionChooseService, SubServiceID: tecar})
	assert.Equal(t, 3, resp.View.Step)

	resp = fx.act(t, id, calendar.Action{Type: calendar.ActionChooseDate, Date: "2026-02-25"})
	assert.Equal(t, "2026-02-25", resp.View.Date)
	assert.Contains(t, resp.View.Slots, "14:00")

	resp = fx.act(t, id, calendar.Action{Type: calendar.ActionChooseSlot, Time: "14:00"})
	assert.Equal(t, 4, resp.View.Step)
	require.NotNil(t, resp.View.Summary)
	assert.Equal(t, "14:00", resp.View.Summary.Time)

	resp = fx.act(t, id, calendar.Action{Type: calendar.ActionConfirm})
	assert.True(t, resp.View.AskIdentity)

	resp = fx.act(t, id, calendar.Action{Type: calendar.ActionIdentify, Text: "ana.kovacevic@example.com"})
	assert.Equal(t, booking.PhaseCommitted, resp.View.Phase)
	require.NotEmpty(t, resp.View.AppointmentID)

	// The booked session is closed.
	rec := fx.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActRejectedReturnsView(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t)
	fx.act(t, id, calendar.Action{Type: calendar.ActionChoosePractitioner, PractitionerID: marko})

	rec := fx.do(t, http.MethodPost, "/sessions/"+id+"/actions", calendar.Action{Type: calendar.ActionChooseService, SubServiceID: dns})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	resp := decode[ViewResponse](t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "rejected", resp.Error.Code)
	assert.Equal(t, booking.PhaseSelectingService, resp.View.Phase)
	assert.NotEmpty(t, resp.View.Categories)
}

func TestActInvalidInput(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t)

	rec := fx.do(t, http.MethodPost, "/sessions/"+id+"/actions", calendar.Action{Type: "teleport"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_action", decode[ErrorBody](t, rec).Error.Code)

	rec = fx.do(t, http.MethodPost, "/sessions/"+id+"/actions", `{"type":"confirm","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(t, http.MethodPost, "/sessions/"+id+"/actions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMessages(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t)

	for _, text := range []string{"Marko", "tecar", "25.2. u 14:00"} {
		rec := fx.do(t, http.MethodPost, "/sessions/"+id+"/messages", MessageRequest{Text: text})
		require.Equal(t, http.StatusOK, rec.Code, "text %q: %s", text, rec.Body.String())
	}
	rec := fx.do(t, http.MethodPost, "/sessions/"+id+"/messages", MessageRequest{Text: "da"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, booking.PhaseAwaitingIdentity, decode[conversation.Reply](t, rec).State.Phase)

	rec = fx.do(t, http.MethodPost, "/sessions/"+id+"/messages", MessageRequest{Text: "Petar Novak"})
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decode[conversation.Reply](t, rec)
	assert.True(t, reply.State.Booked())
	assert.Equal(t, 1, fx.ledger.Len())
}

func TestChatMessageValidation(t *testing.T) {
	fx := newFixture(t)
	id := fx.open(t)

	rec := fx.do(t, http.MethodPost, "/sessions/"+id+"/messages", MessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = fx.do(t, http.MethodPost, "/sessions/unknown/messages", MessageRequest{Text: "bok"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
