package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomflow-ai/booking-platform/internal/conversation"
	"github.com/roomflow-ai/booking-platform/internal/middleware"
	"github.com/roomflow-ai/booking-platform/internal/store"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	orchestrator *conversation.Orchestrator
	history      store.HistoryStore
	logger       *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(
	orch *conversation.Orchestrator,
	history store.HistoryStore,
	log *logger.Logger,
) *ConversationHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ConversationHandler{
		orchestrator: orch,
		history:      history,
		logger:       log,
	}
}

// SendMessageRequest is the body for sending or editing a message.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/v1/conversation/messages
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages":     h.orchestrator.Messages(),
		"requirements": h.orchestrator.Requirements(),
	})
}

// Send handles POST /api/v1/conversation/messages
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.orchestrator.Send(req.Content)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// BeginEdit handles POST /api/v1/conversation/messages/{id}/edit
func (h *ConversationHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	msgID := chi.URLParam(r, "id")
	if err := middleware.ValidateMessageID(msgID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.BeginEdit(msgID); err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"editing": msgID})
}

// SaveEdit handles PUT /api/v1/conversation/messages/{id}
func (h *ConversationHandler) SaveEdit(w http.ResponseWriter, r *http.Request) {
	msgID := chi.URLParam(r, "id")
	if err := middleware.ValidateMessageID(msgID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.SaveEdit(msgID, req.Content); err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": h.orchestrator.Messages(),
	})
}

// CancelEdit handles DELETE /api/v1/conversation/messages/{id}/edit
func (h *ConversationHandler) CancelEdit(w http.ResponseWriter, r *http.Request) {
	msgID := chi.URLParam(r, "id")
	if err := h.orchestrator.CancelEdit(msgID); err != nil {
		writeConversationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /api/v1/conversation/reset
// ?archive=false skips saving the discarded conversation to history.
func (h *ConversationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	archive := r.URL.Query().Get("archive") != "false"
	if err := h.orchestrator.Reset(r.Context(), archive); err != nil {
		h.logger.Error("failed to reset conversation")
		writeError(w, http.StatusInternalServerError, "failed to reset conversation")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTitle handles PUT /api/v1/conversation/title
func (h *ConversationHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.UpdateTitle(req.Title); err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.Requirements())
}

// SelectRoom handles POST /api/v1/conversation/suggestions/{roomID}/select
func (h *ConversationHandler) SelectRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if err := middleware.ValidateRoomID(roomID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.SelectRoom(roomID); err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"booked": roomID})
}

// AddDetails handles POST /api/v1/conversation/suggestions/{roomID}/details
func (h *ConversationHandler) AddDetails(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if err := h.orchestrator.AddDetails(roomID); err != nil {
		writeConversationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Preview handles POST /api/v1/conversation/suggestions/preview
// Body: {"step": 1} or {"step": -1} or {"index": N}.
func (h *ConversationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step  int  `json:"step"`
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch {
	case req.Index != nil:
		err = h.orchestrator.PreviewIndex(*req.Index)
	case req.Step < 0:
		err = h.orchestrator.PreviewPrevious()
	default:
		err = h.orchestrator.PreviewNext()
	}
	if err != nil {
		writeConversationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/v1/conversation/history
func (h *ConversationHandler) History(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.history.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list history")
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// Restore handles POST /api/v1/conversation/history/{id}/restore
func (h *ConversationHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if err := h.orchestrator.Restore(r.Context(), sessionID); err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": h.orchestrator.Messages(),
	})
}

// writeConversationError maps orchestrator errors to HTTP statuses.
func writeConversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrMessageNotFound),
		errors.Is(err, conversation.ErrNoSuggestions),
		errors.Is(err, conversation.ErrUnknownRoom),
		errors.Is(err, conversation.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrNotEditable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
