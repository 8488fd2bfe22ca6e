package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/calendar"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/internal/session"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

const maxMessageLength = 500

// SessionHandler exposes booking sessions to the guided calendar and the
// chat widget.
type SessionHandler struct {
	sessions *session.Manager
	logger   *logging.Logger
}

// NewSessionHandler creates the session handler.
func NewSessionHandler(sessions *session.Manager, logger *logging.Logger) *SessionHandler {
	if sessions == nil {
		panic("handlers: session manager required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	SessionID string              `json:"session_id"`
	Result    *booking.Result     `json:"result,omitempty"`
	Reply     *conversation.Reply `json:"reply,omitempty"`
}

// MessageRequest is one chat input.
type MessageRequest struct {
	Text string `json:"text"`
}

// ViewResponse carries the calendar view and, when the action was
// rejected, the reason.
type ViewResponse struct {
	View  calendar.View `json:"view"`
	Error *ErrorDetail  `json:"error,omitempty"`
}

// Create handles POST /sessions. ?mode=chat opens the session with a greeting.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.URL.Query().Get("mode"), "chat") {
		id, reply, err := h.sessions.StartChat(r.Context())
		if err != nil {
			h.fail(w, "start chat session", "", err)
			return
		}
		writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Reply: &reply})
		return
	}
	id, res, err := h.sessions.Start(r.Context())
	if err != nil {
		h.fail(w, "start session", "", err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Result: &res})
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get session", id, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Act handles POST /sessions/{id}/actions.
func (h *SessionHandler) Act(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var action calendar.Action
	if err := decodeJSON(w, r, &action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	view, err := h.sessions.Act(r.Context(), id, action)
	if err != nil && booking.IsRejection(err) {
		// The view already re-offers the current step.
		status, code := statusFor(err)
		writeJSON(w, status, ViewResponse{
			View:  view,
			Error: &ErrorDetail{Code: code, Message: err.Error()},
		})
		return
	}
	if err != nil {
		h.fail(w, "session action", id, err)
		return
	}
	writeJSON(w, http.StatusOK, ViewResponse{View: view})
}

// Message handles POST /sessions/{id}/messages.
func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	if len(text) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is too long")
		return
	}
	reply, err := h.sessions.Chat(r.Context(), id, text)
	if err != nil {
		h.fail(w, "session message", id, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (h *SessionHandler) fail(w http.ResponseWriter, op, id string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("session request failed", "op", op, "session_id", id, "error", err)
		writeError(w, status, code, http.StatusText(status))
		return
	}
	writeError(w, status, code, err.Error())
}
