package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/roomflow-ai/booking-platform/internal/conversation"
	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
	"github.com/roomflow-ai/booking-platform/pkg/metrics"
)

// StreamHandler handles the SSE streaming endpoint.
type StreamHandler struct {
	orchestrator *conversation.Orchestrator
	hub          *events.Hub
	logger       *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(orch *conversation.Orchestrator, hub *events.Hub, log *logger.Logger) *StreamHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &StreamHandler{
		orchestrator: orch,
		hub:          hub,
		logger:       log,
	}
}

// ReplayCompleteEvent marks the end of the message replay.
type ReplayCompleteEvent struct {
	MessageCount int `json:"message_count"`
}

// Stream handles GET /api/v1/conversation/stream
//
// The current conversation is replayed first, message by message, then the
// connection stays open for live events. Reveal progress arrives as
// message_updated events, so a client that connects mid-animation still
// converges on the same final state.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// Subscribe before replay so no event between the snapshot and the
	// live loop is lost. Duplicated updates are harmless; the client
	// applies them idempotently by message id.
	live, cancel := h.hub.Subscribe()
	defer cancel()

	sendSSEEvent(w, flusher, "connected", map[string]string{"status": "ok"})

	msgs := h.orchestrator.Messages()
	for _, msg := range msgs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		sendSSEEvent(w, flusher, "message", msg)
	}

	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		MessageCount: len(msgs),
	})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("SSE client disconnected")
			return

		case ev, open := <-live:
			if !open {
				return
			}
			sendSSEEvent(w, flusher, string(ev.Type), ev)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
