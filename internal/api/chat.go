package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkoudsi/opstower/internal/chat"
)

// ChatHandler serves the shared conversation over HTTP. It operates on the
// same session instance as the WebSocket layer, so a message sent here is
// visible to every open view.
type ChatHandler struct {
	state *StateProvider
}

// NewChatHandler creates a chat handler.
func NewChatHandler(state *StateProvider) *ChatHandler {
	return &ChatHandler{state: state}
}

// Routes returns the chat route tree.
func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetChat)
	r.Post("/messages", h.SendMessage)
	r.Post("/clear", h.Clear)
	r.Put("/draft", h.SetDraft)
	return r
}

// GetChat returns the rendered conversation.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.state.ChatState())
}

// SendMessage submits one question. The reply arrives asynchronously; the
// response carries the conversation with the user message already appended.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.state.Session.Send(r.Context(), req.Message); err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrSendInFlight):
			Error(w, http.StatusConflict, err.Error())
		default:
			Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	JSON(w, http.StatusAccepted, h.state.ChatState())
}

// Clear empties the conversation.
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.state.Session.Clear()
	JSON(w, http.StatusOK, h.state.ChatState())
}

// SetDraft stores the in-progress input text.
func (h *ChatHandler) SetDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Draft string `json:"draft"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.state.Session.SetDraft(req.Draft)
	JSON(w, http.StatusOK, h.state.ChatState())
}
