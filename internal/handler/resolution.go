package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roomflow-ai/booking-platform/internal/resolution"
	"github.com/roomflow-ai/booking-platform/internal/store"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
)

// ResolutionHandler handles the offline-room resolution endpoints.
type ResolutionHandler struct {
	workflow *resolution.Workflow
	logger   *logger.Logger
}

// NewResolutionHandler creates a new resolution handler.
func NewResolutionHandler(wf *resolution.Workflow, log *logger.Logger) *ResolutionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ResolutionHandler{workflow: wf, logger: log}
}

// State handles GET /api/v1/resolution
func (h *ResolutionHandler) State(w http.ResponseWriter, r *http.Request) {
	state := h.workflow.State()
	if state == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":  true,
		"session": state,
	})
}

// Next handles POST /api/v1/resolution/next
func (h *ResolutionHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.workflow.Next())
}

// Previous handles POST /api/v1/resolution/previous
func (h *ResolutionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.workflow.Previous())
}

// Select handles POST /api/v1/resolution/select
func (h *ResolutionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"room_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, h.workflow.SelectAlternative(req.RoomID))
}

// Move handles POST /api/v1/resolution/move
func (h *ResolutionHandler) Move(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.workflow.Move())
}

// Skip handles POST /api/v1/resolution/skip
func (h *ResolutionHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.workflow.Skip())
}

func (h *ResolutionHandler) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		h.State(w, nil)
	case errors.Is(err, resolution.ErrNoSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, resolution.ErrNoSelection),
		errors.Is(err, resolution.ErrBadAlternative):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrRoomNotFound),
		errors.Is(err, store.ErrMeetingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
