package conversation

import (
	"strings"

	"github.com/roomflow-ai/booking-platform/internal/extract"
)

// route decides how the orchestrator answers a user message.
type route int

const (
	routeBooking route = iota
	routeTopical
	routeFallback
)

var bookingIntentKeywords = []string{
	"book", "need", "schedule", "find", "looking for",
	"standup", "meeting", "presentation", "workshop", "training",
}

// topicalReply is one entry of the canned-reply table. First match wins.
type topicalReply struct {
	keywords []string
	topic    string
	reply    string
}

var topicalReplies = []topicalReply{
	{
		keywords: []string{"ticket", "issue", "broken", "not working", "help desk", "support"},
		topic:    "ticket",
		reply:    "I've raised a service ticket for you: %s. The facilities team will follow up shortly.",
	},
	{
		keywords: []string{"map", "where is", "directions", "how do i get"},
		topic:    "map",
		reply:    "You can find every room on the floor map in the Spaces tab. Tap a room to see its location highlighted.",
	},
	{
		keywords: []string{"notification", "remind", "alert"},
		topic:    "notification",
		reply:    "I'll make sure you get a notification 10 minutes before each of your meetings starts.",
	},
	{
		keywords: []string{"catering", "food", "snacks", "coffee", "breakfast"},
		topic:    "catering",
		reply:    "Here are the catering options available for your meeting:",
	},
	{
		keywords: []string{"my meetings", "my schedule", "what's on", "agenda"},
		topic:    "meetings",
		reply:    "Here's what's currently on your schedule:",
	},
	{
		keywords: []string{"cancel", "delete booking"},
		topic:    "cancel",
		reply:    "To cancel a booking, open the meeting from your schedule and choose Cancel. I can help you rebook afterwards.",
	},
}

const fallbackReply = "I can help you book a meeting room. Try telling me how many people, " +
	"when, and what equipment you need - for example \"book a room for 4 people at 2pm with video conferencing\"."

// classify routes a message into the booking pipeline only when it carries
// a booking-intent keyword and at least one concrete detail: an explicit
// attendee count, an explicit time, or an amenity keyword.
func classify(text string) (route, *topicalReply) {
	lower := strings.ToLower(text)

	hasIntent := false
	for _, k := range bookingIntentKeywords {
		if strings.Contains(lower, k) {
			hasIntent = true
			break
		}
	}

	if hasIntent {
		if extract.HasExplicitAttendees(text) || extract.HasExplicitTime(text) || extract.HasAmenity(text) {
			return routeBooking, nil
		}
	}

	for i := range topicalReplies {
		if containsAny(lower, topicalReplies[i].keywords) {
			return routeTopical, &topicalReplies[i]
		}
	}

	return routeFallback, nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
