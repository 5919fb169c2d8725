package conversation

import (
	"strings"
	"time"

	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/model"
)

// Editing a prior user message happens in two steps. BeginEdit freezes the
// conversation downstream of the message: every pending timer owned by the
// edited message or anything after it is cancelled synchronously, and
// running reveals flip to paused without losing what they already showed.
// SaveEdit then deletes everything after the edited message and
// regenerates the response from the edited text; CancelEdit leaves the
// frozen state as is. Nothing resumes a paused reveal - paused messages
// live until their turn is discarded.

// BeginEdit enters edit mode for a user message.
func (o *Orchestrator) BeginEdit(msgID string) error {
	o.mu.Lock()
	idx := o.indexLocked(msgID)
	if idx < 0 {
		o.mu.Unlock()
		return ErrMessageNotFound
	}
	if !o.msgs[idx].IsUser() {
		o.mu.Unlock()
		return ErrNotEditable
	}

	o.editingID = msgID
	evs := o.pauseFromLocked(idx, "edit")
	o.mu.Unlock()

	o.emit(evs...)
	return nil
}

// SaveEdit replaces the message text, deletes every message after it, and
// regenerates the assistant response from the edited text. The downstream
// timers are re-cancelled first, so a save without a prior BeginEdit is
// just as safe.
func (o *Orchestrator) SaveEdit(msgID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	idx := o.indexLocked(msgID)
	if idx < 0 {
		o.mu.Unlock()
		return ErrMessageNotFound
	}
	if !o.msgs[idx].IsUser() {
		o.mu.Unlock()
		return ErrNotEditable
	}

	evs := o.pauseFromLocked(idx, "edit")

	removed := make([]string, 0, len(o.msgs)-idx-1)
	for _, m := range o.msgs[idx+1:] {
		removed = append(removed, m.ID)
	}
	o.msgs = o.msgs[:idx+1]

	edited := o.msgs[idx]
	edited.Text = text
	edited.Reveal = model.RevealComplete
	o.editingID = ""

	evs = append(evs,
		o.messageEvent(events.TypeMessageUpdated, edited),
		events.Event{
			ID:        o.newID(),
			Type:      events.TypeMessagesTruncated,
			CreatedAt: time.Now(),
			Payload:   map[string]any{"after": msgID, "removed": removed},
		},
	)
	evs = append(evs, o.respondLocked(edited, text)...)
	o.mu.Unlock()

	o.emit(evs...)
	return nil
}

// CancelEdit leaves edit mode without touching the conversation. Paused
// reveals stay paused.
func (o *Orchestrator) CancelEdit(msgID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.editingID != msgID {
		return ErrMessageNotFound
	}
	o.editingID = ""
	return nil
}
