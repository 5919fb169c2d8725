// Package events carries the signals the booking core exposes to external
// collaborators: message lifecycle updates for renderers, room highlight
// and meeting preview sinks, ticket creation, and booking commits.
package events

import (
	"time"
)

// Type identifies a collaborator event.
type Type string

const (
	TypeMessageAppended   Type = "message_appended"
	TypeMessageUpdated    Type = "message_updated"
	TypeMessagesTruncated Type = "messages_truncated"
	TypeConversationReset Type = "conversation_reset"
	TypeRoomSelected      Type = "room_selected"
	TypeAddDetails        Type = "add_details"
	TypeBookingCommitted  Type = "booking_committed"
	TypeBookingSynced     Type = "booking_synced"
	TypeMeetingPreview    Type = "meeting_preview"
	TypeHighlightRoom     Type = "highlight_room"
	TypeTicketCreated     Type = "ticket_created"
	TypeRoomsReplaced     Type = "rooms_replaced"
	TypeResolutionUpdated Type = "resolution_updated"
)

// Event is the envelope published to collaborator sinks.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   any       `json:"payload,omitempty"`
}

// Publisher delivers events to an external sink.
type Publisher interface {
	Publish(ev Event)
	Close()
}

// Nop is a publisher that discards everything.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(Event) {}

// Close is a no-op.
func (Nop) Close() {}
