package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/middleware"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/internal/store"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
)

// RoomHandler handles room catalogue endpoints.
type RoomHandler struct {
	rooms  *store.RoomStore
	pub    events.Publisher
	logger *logger.Logger
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(rooms *store.RoomStore, pub events.Publisher, log *logger.Logger) *RoomHandler {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RoomHandler{rooms: rooms, pub: pub, logger: log}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms":       h.rooms.Snapshot(),
		"clock_hours": h.rooms.ClockHours(),
	})
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	room, err := h.rooms.Room(roomID)
	if err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// Replace handles PUT /api/v1/rooms
// The catalogue is replaced wholesale; listeners re-scan afterwards.
func (h *RoomHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rooms []model.Room `json:"rooms"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, room := range req.Rooms {
		if err := middleware.ValidateRoomID(room.ID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.rooms.Replace(req.Rooms)
	h.pub.Publish(events.Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      events.TypeRoomsReplaced,
		CreatedAt: time.Now(),
		Payload:   map[string]int{"rooms": len(req.Rooms)},
	})
	writeJSON(w, http.StatusOK, map[string]int{"rooms": len(req.Rooms)})
}

// SetStatus handles PUT /api/v1/rooms/{id}/status
func (h *RoomHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req struct {
		Status model.RoomStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case model.RoomAvailable, model.RoomOccupied, model.RoomOffline:
	default:
		writeError(w, http.StatusBadRequest, "unknown room status")
		return
	}

	if err := h.rooms.SetStatus(roomID, req.Status); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetClock handles GET /api/v1/clock
func (h *RoomHandler) GetClock(w http.ResponseWriter, r *http.Request) {
	hours := h.rooms.ClockHours()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"clock_hours": hours,
		"display":     model.FormatClock(hours),
	})
}

// SetClock handles PUT /api/v1/clock
func (h *RoomHandler) SetClock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClockHours float64 `json:"clock_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClockHours < 0 || req.ClockHours >= 24 {
		writeError(w, http.StatusBadRequest, "clock_hours must be in [0, 24)")
		return
	}

	h.rooms.SetClockHours(req.ClockHours)
	w.WriteHeader(http.StatusNoContent)
}
