package conversation

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/pkg/metrics"
)

// SelectRoom books the chosen suggestion: the carousel closes, a user
// recap and an assistant confirmation are appended, and the meeting is
// committed to the catalogue. The meeting stays in a syncing state for a
// fixed grace window before the synced signal fires; the delay is purely
// visible pacing, not a network wait.
func (o *Orchestrator) SelectRoom(roomID string) error {
	o.mu.Lock()
	carousel := o.latestSuggestionsLocked()
	if carousel == nil {
		o.mu.Unlock()
		return ErrNoSuggestions
	}

	var chosen *model.RoomSuggestion
	for i := range carousel.Suggestions.Items {
		if carousel.Suggestions.Items[i].RoomID == roomID {
			chosen = &carousel.Suggestions.Items[i]
			break
		}
	}
	if chosen == nil {
		o.mu.Unlock()
		return ErrUnknownRoom
	}

	req := carousel.Suggestions.Requirements
	meeting := model.Meeting{
		ID:        o.newID(),
		Title:     req.Title,
		Organizer: "You",
		StartTime: req.StartTime,
		Duration:  req.Duration,
		Attendees: req.Attendees,
		Syncing:   true,
	}

	if err := o.rooms.Book(roomID, meeting); err != nil {
		o.mu.Unlock()
		return fmt.Errorf("failed to book %s: %w", chosen.RoomName, err)
	}

	carousel.Suggestions.Closed = true
	carousel.Suggestions.SelectedRoomID = roomID

	recap := o.appendLocked(&model.ConversationMessage{
		Kind: model.KindUser,
		Text: fmt.Sprintf("Book %s at %s for %s",
			chosen.RoomName, model.FormatClock(req.StartTime), model.FormatDuration(req.Duration)),
		Typing: model.TypingComplete,
		Reveal: model.RevealComplete,
	})
	confirmation := o.appendAssistantLocked(model.KindReply, fmt.Sprintf(
		"Done! %s is booked for %q at %s. I'm syncing it with the calendar now.",
		chosen.RoomName, req.Title, model.FormatClock(req.StartTime)))
	o.beginTypingLocked(confirmation.ID, nil)

	meetingID := meeting.ID
	o.scheduler.AfterFunc(meetingID, o.timings.SyncGrace, func() {
		o.rooms.MarkSynced(meetingID)
		o.emit(events.Event{
			ID:        o.newID(),
			Type:      events.TypeBookingSynced,
			CreatedAt: time.Now(),
			Payload:   map[string]string{"meeting_id": meetingID, "room_id": roomID},
		})
	})

	evs := []events.Event{
		o.messageEvent(events.TypeMessageUpdated, carousel),
		o.messageEvent(events.TypeMessageAppended, recap),
		o.messageEvent(events.TypeMessageAppended, confirmation),
		{
			ID:        o.newID(),
			Type:      events.TypeRoomSelected,
			CreatedAt: time.Now(),
			Payload:   map[string]any{"room_id": roomID, "requirements": req},
		},
		{
			ID:        o.newID(),
			Type:      events.TypeBookingCommitted,
			CreatedAt: time.Now(),
			Payload:   meeting,
		},
		{
			ID:        o.newID(),
			Type:      events.TypeHighlightRoom,
			CreatedAt: time.Now(),
			Payload:   map[string]string{"room_id": roomID},
		},
	}
	o.mu.Unlock()

	metrics.BookingsTotal.WithLabelValues("conversation").Inc()
	o.logger.Info("suggestion booked",
		zap.String("room_id", roomID),
		zap.String("meeting_id", meeting.ID),
	)
	o.emit(evs...)
	return nil
}

// AddDetails hands the current suggestion off to the external
// meeting-creation form, pre-filled from the extracted requirements.
func (o *Orchestrator) AddDetails(roomID string) error {
	o.mu.Lock()
	carousel := o.latestSuggestionsLocked()
	if carousel == nil {
		o.mu.Unlock()
		return ErrNoSuggestions
	}

	found := false
	for _, item := range carousel.Suggestions.Items {
		if item.RoomID == roomID {
			found = true
			break
		}
	}
	if !found {
		o.mu.Unlock()
		return ErrUnknownRoom
	}

	req := carousel.Suggestions.Requirements
	o.mu.Unlock()

	o.emit(events.Event{
		ID:        o.newID(),
		Type:      events.TypeAddDetails,
		CreatedAt: time.Now(),
		Payload:   map[string]any{"room_id": roomID, "requirements": req},
	})
	return nil
}

// PreviewNext advances the carousel preview cyclically and signals the
// provisional booking overlay.
func (o *Orchestrator) PreviewNext() error {
	return o.stepPreview(1)
}

// PreviewPrevious steps the carousel preview back cyclically.
func (o *Orchestrator) PreviewPrevious() error {
	return o.stepPreview(-1)
}

// PreviewIndex jumps the carousel preview to a specific suggestion.
func (o *Orchestrator) PreviewIndex(index int) error {
	o.mu.Lock()
	carousel := o.latestSuggestionsLocked()
	if carousel == nil {
		o.mu.Unlock()
		return ErrNoSuggestions
	}
	if index < 0 || index >= len(carousel.Suggestions.Items) {
		o.mu.Unlock()
		return ErrUnknownRoom
	}
	carousel.Suggestions.PreviewIndex = index
	evs := o.previewEventsLocked(carousel)
	o.mu.Unlock()

	o.emit(evs...)
	return nil
}

func (o *Orchestrator) stepPreview(step int) error {
	o.mu.Lock()
	carousel := o.latestSuggestionsLocked()
	if carousel == nil {
		o.mu.Unlock()
		return ErrNoSuggestions
	}

	n := len(carousel.Suggestions.Items)
	carousel.Suggestions.PreviewIndex = ((carousel.Suggestions.PreviewIndex+step)%n + n) % n
	evs := o.previewEventsLocked(carousel)
	o.mu.Unlock()

	o.emit(evs...)
	return nil
}

func (o *Orchestrator) previewEventsLocked(carousel *model.ConversationMessage) []events.Event {
	item := carousel.Suggestions.Items[carousel.Suggestions.PreviewIndex]
	req := carousel.Suggestions.Requirements
	return []events.Event{
		o.messageEvent(events.TypeMessageUpdated, carousel),
		{
			ID:        o.newID(),
			Type:      events.TypeMeetingPreview,
			CreatedAt: time.Now(),
			Payload: map[string]any{
				"room_id":    item.RoomID,
				"room_name":  item.RoomName,
				"title":      req.Title,
				"start_time": req.StartTime,
				"duration":   req.Duration,
			},
		},
		{
			ID:        o.newID(),
			Type:      events.TypeHighlightRoom,
			CreatedAt: time.Now(),
			Payload:   map[string]string{"room_id": item.RoomID},
		},
	}
}
