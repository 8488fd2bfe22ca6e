// Package webchat carries the conversational booking flow over a websocket.
package webchat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/physio-booking/internal/booking"
	"github.com/wolfman30/physio-booking/internal/conversation"
	"github.com/wolfman30/physio-booking/internal/session"
	"github.com/wolfman30/physio-booking/pkg/logging"
)

const maxMessageLength = 500

// Chatter runs chat input against stored sessions. *session.Manager satisfies it.
type Chatter interface {
	StartChat(ctx context.Context) (string, conversation.Reply, error)
	Chat(ctx context.Context, id, text string) (conversation.Reply, error)
}

// Handler serves the chat widget's websocket.
type Handler struct {
	chat   Chatter
	logger *logging.Logger
	now    func() time.Time
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string                `json:"type"` // "session", "message", "booked", "error", "pong"
	SessionID string                `json:"session_id,omitempty"`
	Role      string                `json:"role,omitempty"`
	Text      string                `json:"text,omitempty"`
	Options   []conversation.Option `json:"options,omitempty"`
	Phase     booking.Phase         `json:"phase,omitempty"`
	Timestamp string                `json:"timestamp,omitempty"`
}

// NewHandler creates a web chat handler.
func NewHandler(chat Chatter, logger *logging.Logger) *Handler {
	if chat == nil {
		panic("webchat: chatter required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{chat: chat, logger: logger, now: time.Now}
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
// ?session= resumes an existing session; without it a new one is opened
// and greeted.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		id, reply, err := h.chat.StartChat(ctx)
		if err != nil {
			h.logger.Error("webchat: failed to start session", "error", err)
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "session_unavailable"})
			return
		}
		sessionID = id
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
		if err := h.send(conn, reply); err != nil {
			return
		}
	} else {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
	}

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		text := strings.TrimSpace(msg.Text)
		if msg.Type != "message" || text == "" {
			continue
		}
		if len(text) > maxMessageLength {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "message_too_long"})
			continue
		}

		reply, err := h.chat.Chat(ctx, sessionID, text)
		if err != nil {
			h.logger.Warn("webchat: chat input failed", "session_id", sessionID, "error", err)
			code, fatal := errorCode(err)
			if fatal || len(reply.Messages) == 0 {
				_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: code})
				if fatal {
					return
				}
				continue
			}
		}
		if err := h.send(conn, reply); err != nil {
			return
		}
		if reply.State.Booked() {
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type:      "booked",
				SessionID: sessionID,
				Phase:     reply.State.Phase,
				Text:      reply.State.AppointmentID,
			})
			return
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, reply conversation.Reply) error {
	ts := h.now().UTC().Format(time.RFC3339)
	for _, m := range reply.Messages {
		out := OutboundMessage{
			Type:      "message",
			Role:      "assistant",
			Text:      m.Text,
			Options:   m.Options,
			Phase:     reply.State.Phase,
			Timestamp: ts,
		}
		if err := websocket.JSON.Send(conn, out); err != nil {
			h.logger.Debug("webchat: send failed", "error", err)
			return err
		}
	}
	return nil
}

// errorCode names an error for the widget; fatal errors end the connection.
func errorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return "session_not_found", true
	case errors.Is(err, session.ErrBusy):
		return "session_busy", false
	}
	return "internal_error", false
}
