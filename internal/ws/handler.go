package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/mkoudsi/opstower/internal/chat"
)

// StateFunc returns the current full dashboard state for the initial push.
type StateFunc func() any

// Handler upgrades dashboard views to WebSocket. Chat actions received on
// any connection go to the single shared session; resulting state changes
// are broadcast to every view by the session's change callback.
type Handler struct {
	views         *ViewManager
	session       *chat.Session
	state         StateFunc
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a WebSocket handler.
func NewHandler(views *ViewManager, session *chat.Session, state StateFunc, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		views:         views,
		session:       session,
		state:         state,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsMessage represents the client-to-server message structure.
type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	viewID := r.URL.Query().Get("view")
	if viewID == "" {
		viewID = uuid.NewString()
	}
	slog.Info("WebSocket connection request", "view_id", viewID, "ip", r.RemoteAddr)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "view_id", viewID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "view closed"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "view_id", viewID)
		}
	}()

	h.views.Register(viewID, ws)
	defer h.views.Unregister(viewID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// New views start from the full current state; later changes arrive
	// as broadcasts.
	if err := h.writeJSON(ws, h.state()); err != nil {
		slog.Debug("Failed to send initial state", "error", err, "view_id", viewID)
		return
	}

	h.readLoop(ctx, ws, viewID)
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, viewID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "view_id", viewID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "view_id", viewID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("Ignoring malformed frame", "view_id", viewID, "error", err)
			continue
		}

		switch msg.Type {
		case "send":
			if err := h.session.Send(ctx, msg.Content); err != nil {
				h.sendError(ws, viewID, err)
			}
		case "draft":
			h.session.SetDraft(msg.Content)
		case "clear":
			h.session.Clear()
		case "ping":
			if err := h.writeJSON(ws, map[string]string{"type": "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err, "view_id", viewID)
			}
		}
	}
}

func (h *Handler) sendError(ws *websocket.Conn, viewID string, err error) {
	code := "internal"
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		code = "empty_message"
	case errors.Is(err, chat.ErrSendInFlight):
		code = "send_in_flight"
	}
	if werr := h.writeJSON(ws, map[string]string{
		"type":    "error",
		"code":    code,
		"message": err.Error(),
	}); werr != nil {
		slog.Debug("Failed to send error frame", "error", werr, "view_id", viewID)
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) writeJSON(ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(context.Background(), websocket.MessageText, data)
}
