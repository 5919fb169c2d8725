package model

import (
	"strings"
	"time"
)

// MessageKind identifies the variant of a conversation message. The set is
// closed: user text, a plain assistant reply, an assistant thinking
// explanation, and the widget-carrying assistant variants.
type MessageKind string

const (
	KindUser        MessageKind = "user"
	KindReply       MessageKind = "assistant_reply"
	KindThinking    MessageKind = "assistant_thinking"
	KindSuggestions MessageKind = "room_suggestions"
	KindMeetingList MessageKind = "meeting_list"
	KindOptions     MessageKind = "cuisine_options"
)

// RevealState tracks the reveal animation lifecycle of a message. Kept on
// the message itself so state cannot drift from the message under edits
// and deletes.
type RevealState string

const (
	RevealNotStarted RevealState = "not_started"
	RevealRunning    RevealState = "revealing"
	RevealPaused     RevealState = "paused"
	RevealComplete   RevealState = "complete"
)

// TypingPhase tracks the dots-then-type protocol for assistant text.
type TypingPhase string

const (
	TypingPendingDots TypingPhase = "pending_dots"
	TypingActive      TypingPhase = "typing"
	TypingComplete    TypingPhase = "complete"
)

// RoomRef is the structured room list payload embedded in thinking text.
type RoomRef struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	GoodFit  bool   `json:"good_fit"`
	Reason   string `json:"reason,omitempty"`
}

// ThinkingPayload carries the line-by-line reveal state of a thinking
// message. Lines are the non-blank lines of the explanation text.
type ThinkingPayload struct {
	Lines    []string  `json:"lines"`
	Revealed int       `json:"revealed"`
	Rooms    []RoomRef `json:"rooms,omitempty"`
}

// SuggestionsPayload carries the suggestion carousel attached to an
// assistant message.
type SuggestionsPayload struct {
	Items          []RoomSuggestion    `json:"items"`
	Requirements   MeetingRequirements `json:"requirements"`
	Closed         bool                `json:"closed"`
	SelectedRoomID string              `json:"selected_room_id,omitempty"`
	PreviewIndex   int                 `json:"preview_index"`
}

// ConversationMessage is the common envelope for all message variants.
// Exactly one of the payload pointers is set for widget-carrying kinds.
type ConversationMessage struct {
	ID        string      `json:"id"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`

	Typing        TypingPhase `json:"typing,omitempty"`
	Reveal        RevealState `json:"reveal,omitempty"`
	RevealedChars int         `json:"revealed_chars,omitempty"`

	// WidgetVisible gates any attached widget. It flips true only after
	// the typing reveal has fully completed plus a fixed safety buffer.
	WidgetVisible bool `json:"widget_visible,omitempty"`

	Thinking    *ThinkingPayload    `json:"thinking,omitempty"`
	Suggestions *SuggestionsPayload `json:"suggestions,omitempty"`
	Meetings    []Meeting           `json:"meetings,omitempty"`
	Options     []string            `json:"options,omitempty"`
}

// IsUser reports whether the message starts a new turn.
func (m *ConversationMessage) IsUser() bool {
	return m.Kind == KindUser
}

// Turn is one user message plus the assistant messages that follow it.
// Turns exist for layout and scroll decisions only.
type Turn struct {
	Messages []*ConversationMessage `json:"messages"`
}

// GroupTurns splits a message list into turns. A user message starts a new
// turn; leading assistant messages form a turn of their own.
func GroupTurns(msgs []*ConversationMessage) []Turn {
	var turns []Turn
	for _, m := range msgs {
		if m.IsUser() || len(turns) == 0 {
			turns = append(turns, Turn{})
		}
		last := &turns[len(turns)-1]
		last.Messages = append(last.Messages, m)
	}
	return turns
}

// ChatSession is an archived conversation snapshot.
type ChatSession struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Messages   []ConversationMessage `json:"messages"`
	ArchivedAt time.Time             `json:"archived_at"`
}

// DedupKey identifies a session's content: the ordered message ids joined.
func (s ChatSession) DedupKey() string {
	ids := make([]string, len(s.Messages))
	for i, m := range s.Messages {
		ids[i] = m.ID
	}
	return strings.Join(ids, "|")
}
