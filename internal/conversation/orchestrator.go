// Package conversation drives the staged, cancellable booking dialogue:
// classification, the thinking-and-suggestions pipeline, reveal
// animations, edit-and-regenerate, and reset. All conversation state is
// mutated under one mutex; every deferred callback re-derives whether its
// message is still part of the live conversation before touching it, so a
// timer that outlives an edit or reset is a silent no-op.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomflow-ai/booking-platform/internal/config"
	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/match"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/internal/sched"
	"github.com/roomflow-ai/booking-platform/internal/store"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
	"github.com/roomflow-ai/booking-platform/pkg/metrics"
)

var (
	// ErrEmptyMessage is returned when a user message has no content.
	ErrEmptyMessage = errors.New("message content cannot be empty")
	// ErrMessageNotFound is returned for operations on unknown message ids.
	ErrMessageNotFound = errors.New("message not found")
	// ErrNotEditable is returned when a non-user message is edited.
	ErrNotEditable = errors.New("only user messages can be edited")
	// ErrNoSuggestions is returned when no open suggestion carousel exists.
	ErrNoSuggestions = errors.New("no active room suggestions")
	// ErrUnknownRoom is returned when a room id is not in the carousel.
	ErrUnknownRoom = errors.New("room is not among the current suggestions")
	// ErrSessionNotFound is returned when restoring an unknown archive id.
	ErrSessionNotFound = errors.New("archived session not found")
)

// Orchestrator is the conversation state machine.
type Orchestrator struct {
	mu        sync.Mutex
	msgs      []*model.ConversationMessage
	editingID string
	reqs      *model.MeetingRequirements

	scheduler sched.Scheduler
	rooms     *store.RoomStore
	history   store.HistoryStore
	matcher   *match.Matcher
	timings   config.RevealTuning
	pub       events.Publisher
	logger    *logger.Logger

	newID     func() string
	newTicket func() string
}

// New creates an orchestrator. pub may be nil when no collaborators listen.
func New(
	scheduler sched.Scheduler,
	rooms *store.RoomStore,
	history store.HistoryStore,
	matcher *match.Matcher,
	timings config.RevealTuning,
	pub events.Publisher,
	log *logger.Logger,
) *Orchestrator {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		scheduler: scheduler,
		rooms:     rooms,
		history:   history,
		matcher:   matcher,
		timings:   timings,
		pub:       pub,
		logger:    log,
		newID:     func() string { return uuid.Must(uuid.NewV7()).String() },
		newTicket: func() string { return "TKT-" + uuid.New().String()[:8] },
	}
}

// Send appends a user message and schedules the assistant's response:
// either the booking pipeline or a delayed canned reply.
func (o *Orchestrator) Send(text string) (*model.ConversationMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	o.mu.Lock()
	user := o.appendLocked(&model.ConversationMessage{
		Kind:   model.KindUser,
		Text:   text,
		Typing: model.TypingComplete,
		Reveal: model.RevealComplete,
	})
	evs := []events.Event{o.messageEvent(events.TypeMessageAppended, user)}
	evs = append(evs, o.respondLocked(user, text)...)
	snapshot := copyMessage(user)
	o.mu.Unlock()

	o.emit(evs...)
	return snapshot, nil
}

// Messages returns a deep copy of the live conversation.
func (o *Orchestrator) Messages() []*model.ConversationMessage {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]*model.ConversationMessage, len(o.msgs))
	for i, m := range o.msgs {
		out[i] = copyMessage(m)
	}
	return out
}

// Requirements returns the requirements extracted from the most recent
// booking utterance, or nil.
func (o *Orchestrator) Requirements() *model.MeetingRequirements {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.reqs == nil {
		return nil
	}
	req := *o.reqs
	req.Features = append([]string(nil), o.reqs.Features...)
	return &req
}

// UpdateTitle changes the meeting title of the current requirements. The
// title is the only requirement field the suggestion widget lets the user
// edit after extraction.
func (o *Orchestrator) UpdateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.reqs == nil {
		o.mu.Unlock()
		return ErrNoSuggestions
	}
	o.reqs.Title = title

	var evs []events.Event
	if m := o.latestSuggestionsLocked(); m != nil {
		m.Suggestions.Requirements.Title = title
		evs = append(evs, o.messageEvent(events.TypeMessageUpdated, m))
	}
	o.mu.Unlock()

	o.emit(evs...)
	return nil
}

// Reset clears all messages, all scheduled timers, and all per-message
// animation bookkeeping. With archive set, the discarded conversation is
// first saved to history unless its content is already present.
func (o *Orchestrator) Reset(ctx context.Context, archive bool) error {
	o.mu.Lock()
	cancelled := o.scheduler.CancelAll()
	discarded := o.msgs
	o.msgs = nil
	o.reqs = nil
	o.editingID = ""
	o.mu.Unlock()

	if cancelled > 0 {
		metrics.TimersCancelled.WithLabelValues("reset").Add(float64(cancelled))
	}

	if archive && len(discarded) > 0 {
		session := model.ChatSession{
			ID:         o.newID(),
			Title:      sessionTitle(discarded),
			Messages:   flattenMessages(discarded),
			ArchivedAt: time.Now(),
		}
		added, err := o.history.Append(ctx, session)
		if err != nil {
			o.logger.Warn("failed to archive conversation", zap.Error(err))
		} else if !added {
			o.logger.Debug("conversation already archived", zap.String("session_id", session.ID))
		}
	}

	o.emit(events.Event{
		ID:        o.newID(),
		Type:      events.TypeConversationReset,
		CreatedAt: time.Now(),
	})
	return nil
}

// Restore replaces the live conversation with an archived session. The
// current conversation is archived first, so nothing is lost by switching.
// Restored messages arrive fully revealed; animations never replay.
func (o *Orchestrator) Restore(ctx context.Context, sessionID string) error {
	sessions, err := o.history.List(ctx)
	if err != nil {
		return err
	}
	var found *model.ChatSession
	for i := range sessions {
		if sessions[i].ID == sessionID {
			found = &sessions[i]
			break
		}
	}
	if found == nil {
		return ErrSessionNotFound
	}

	if err := o.Reset(ctx, true); err != nil {
		return err
	}

	o.mu.Lock()
	o.msgs = make([]*model.ConversationMessage, len(found.Messages))
	evs := make([]events.Event, len(found.Messages))
	for i := range found.Messages {
		m := found.Messages[i]
		m.Typing = model.TypingComplete
		m.Reveal = model.RevealComplete
		if m.Suggestions != nil {
			m.Suggestions.Closed = true
		}
		o.msgs[i] = &m
		evs[i] = o.messageEvent(events.TypeMessageAppended, &m)
	}
	o.mu.Unlock()

	o.logger.Info("conversation restored",
		zap.String("session_id", sessionID),
		zap.Int("messages", len(found.Messages)))
	o.emit(evs...)
	return nil
}

// respondLocked routes a user message. Booking requests start the pipeline
// synchronously; everything else gets a canned reply after a fixed delay.
func (o *Orchestrator) respondLocked(user *model.ConversationMessage, text string) []events.Event {
	r, topical := classify(text)
	if r == routeBooking {
		return o.startPipelineLocked(text)
	}

	userID := user.ID
	o.scheduler.AfterFunc(userID, o.timings.ReplyDelay, func() {
		o.deliverCannedReply(userID, r, topical)
	})
	return nil
}

// appendLocked assigns identity and adds a message to the live list.
func (o *Orchestrator) appendLocked(m *model.ConversationMessage) *model.ConversationMessage {
	m.ID = o.newID()
	m.CreatedAt = time.Now()
	o.msgs = append(o.msgs, m)

	role := "assistant"
	if m.IsUser() {
		role = "user"
	}
	metrics.MessagesTotal.WithLabelValues(role).Inc()
	return m
}

// appendAssistantLocked adds an assistant message primed for a reveal.
func (o *Orchestrator) appendAssistantLocked(kind model.MessageKind, text string) *model.ConversationMessage {
	return o.appendLocked(&model.ConversationMessage{
		Kind:   kind,
		Text:   text,
		Typing: model.TypingPendingDots,
		Reveal: model.RevealNotStarted,
	})
}

// messageLocked finds a live message by id. A nil result means the message
// was deleted; callers treat that as a no-op.
func (o *Orchestrator) messageLocked(id string) *model.ConversationMessage {
	for _, m := range o.msgs {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (o *Orchestrator) indexLocked(id string) int {
	for i, m := range o.msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (o *Orchestrator) latestSuggestionsLocked() *model.ConversationMessage {
	for i := len(o.msgs) - 1; i >= 0; i-- {
		m := o.msgs[i]
		if m.Kind == model.KindSuggestions && m.Suggestions != nil && !m.Suggestions.Closed {
			return m
		}
	}
	return nil
}

func (o *Orchestrator) messageEvent(t events.Type, m *model.ConversationMessage) events.Event {
	return events.Event{
		ID:        o.newID(),
		Type:      t,
		CreatedAt: time.Now(),
		Payload:   copyMessage(m),
	}
}

func (o *Orchestrator) emit(evs ...events.Event) {
	for _, ev := range evs {
		o.pub.Publish(ev)
	}
}

func copyMessage(m *model.ConversationMessage) *model.ConversationMessage {
	clone := *m
	if m.Thinking != nil {
		t := *m.Thinking
		t.Lines = append([]string(nil), m.Thinking.Lines...)
		t.Rooms = append([]model.RoomRef(nil), m.Thinking.Rooms...)
		clone.Thinking = &t
	}
	if m.Suggestions != nil {
		s := *m.Suggestions
		s.Items = append([]model.RoomSuggestion(nil), m.Suggestions.Items...)
		clone.Suggestions = &s
	}
	clone.Meetings = append([]model.Meeting(nil), m.Meetings...)
	clone.Options = append([]string(nil), m.Options...)
	return &clone
}

func flattenMessages(msgs []*model.ConversationMessage) []model.ConversationMessage {
	out := make([]model.ConversationMessage, len(msgs))
	for i, m := range msgs {
		out[i] = *copyMessage(m)
	}
	return out
}

func sessionTitle(msgs []*model.ConversationMessage) string {
	for _, m := range msgs {
		if m.IsUser() {
			title := m.Text
			if len(title) > 48 {
				title = title[:48]
			}
			return title
		}
	}
	return "Conversation"
}
