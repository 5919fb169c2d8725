package conversation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/extract"
	"github.com/roomflow-ai/booking-platform/internal/match"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/pkg/metrics"
)

// The booking pipeline appends three staged messages, each gated by the
// previous one's reveal: a short searching acknowledgement, a thinking
// explanation built from the matcher's good/poor breakdown, and the
// suggestion carousel (or a terminal no-rooms reply).

func (o *Orchestrator) startPipelineLocked(text string) []events.Event {
	req := extract.Extract(text, o.rooms.ClockHours())
	o.reqs = &req

	result := o.matcher.Match(req, o.rooms.Snapshot())
	metrics.SuggestionsGenerated.Observe(float64(len(result.Suggestions)))

	ack := o.appendAssistantLocked(model.KindReply, searchingText(req))
	o.beginTypingLocked(ack.ID, func() []events.Event {
		return o.stageThinkingLocked(req, result)
	})

	return []events.Event{o.messageEvent(events.TypeMessageAppended, ack)}
}

func (o *Orchestrator) stageThinkingLocked(req model.MeetingRequirements, result match.Result) []events.Event {
	lines, refs := thinkingLines(req, result)

	thinking := o.appendLocked(&model.ConversationMessage{
		Kind:   model.KindThinking,
		Reveal: model.RevealNotStarted,
		Thinking: &model.ThinkingPayload{
			Lines: lines,
			Rooms: refs,
		},
	})
	o.beginThinkingLocked(thinking.ID, func() []events.Event {
		return o.stageSuggestionsLocked(req, result)
	})

	return []events.Event{o.messageEvent(events.TypeMessageAppended, thinking)}
}

func (o *Orchestrator) stageSuggestionsLocked(req model.MeetingRequirements, result match.Result) []events.Event {
	if len(result.Suggestions) == 0 {
		metrics.PipelineRunsTotal.WithLabelValues("no_rooms").Inc()
		m := o.appendAssistantLocked(model.KindReply, noRoomsText(req))
		o.beginTypingLocked(m.ID, nil)
		return []events.Event{o.messageEvent(events.TypeMessageAppended, m)}
	}

	metrics.PipelineRunsTotal.WithLabelValues("suggestions").Inc()
	m := o.appendLocked(&model.ConversationMessage{
		Kind:   model.KindSuggestions,
		Text:   suggestionsText(req, result),
		Typing: model.TypingPendingDots,
		Reveal: model.RevealNotStarted,
		Suggestions: &model.SuggestionsPayload{
			Items:        result.Suggestions,
			Requirements: req,
		},
	})
	o.beginTypingLocked(m.ID, nil)

	return []events.Event{o.messageEvent(events.TypeMessageAppended, m)}
}

// deliverCannedReply appends the assistant's answer to a non-booking
// message after the reply delay. The owning user message may have been
// edited away in the meantime; that makes this a no-op.
func (o *Orchestrator) deliverCannedReply(userID string, r route, topical *topicalReply) {
	o.mu.Lock()
	if o.messageLocked(userID) == nil {
		o.mu.Unlock()
		return
	}

	var evs []events.Event
	var reply *model.ConversationMessage

	switch {
	case topical != nil && topical.topic == "ticket":
		ticketID := o.newTicket()
		reply = o.appendAssistantLocked(model.KindReply, fmt.Sprintf(topical.reply, ticketID))
		evs = append(evs, events.Event{
			ID:        o.newID(),
			Type:      events.TypeTicketCreated,
			CreatedAt: time.Now(),
			Payload:   map[string]string{"ticket_id": ticketID},
		})
	case topical != nil && topical.topic == "catering":
		reply = o.appendLocked(&model.ConversationMessage{
			Kind:    model.KindOptions,
			Text:    topical.reply,
			Typing:  model.TypingPendingDots,
			Reveal:  model.RevealNotStarted,
			Options: cateringOptions(),
		})
	case topical != nil && topical.topic == "meetings":
		reply = o.appendLocked(&model.ConversationMessage{
			Kind:     model.KindMeetingList,
			Text:     topical.reply,
			Typing:   model.TypingPendingDots,
			Reveal:   model.RevealNotStarted,
			Meetings: o.upcomingMeetings(),
		})
	case topical != nil:
		reply = o.appendAssistantLocked(model.KindReply, topical.reply)
	default:
		reply = o.appendAssistantLocked(model.KindReply, fallbackReply)
	}

	o.beginTypingLocked(reply.ID, nil)
	evs = append(evs, o.messageEvent(events.TypeMessageAppended, reply))
	o.mu.Unlock()
	o.emit(evs...)
}

func cateringOptions() []string {
	return []string{"Italian", "Mexican", "Japanese", "Mediterranean", "Sandwiches & Salads"}
}

// upcomingMeetings lists catalogue meetings that have not ended yet,
// ascending by start time.
func (o *Orchestrator) upcomingMeetings() []model.Meeting {
	clock := o.rooms.ClockHours()
	var out []model.Meeting
	for _, room := range o.rooms.Snapshot() {
		for _, m := range room.Meetings {
			if m.EndTime() > clock {
				out = append(out, m)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func searchingText(req model.MeetingRequirements) string {
	return fmt.Sprintf("Searching for rooms for %d at %s...",
		req.Attendees, model.FormatClock(req.StartTime))
}

func noRoomsText(req model.MeetingRequirements) string {
	return fmt.Sprintf(
		"I couldn't find any available rooms for %d people at %s. "+
			"Try a different time, or relax the equipment requirements.",
		req.Attendees, model.FormatClock(req.StartTime))
}

func suggestionsText(req model.MeetingRequirements, result match.Result) string {
	if len(result.GoodFits) > 0 {
		return fmt.Sprintf("I found %d room(s) that fit your meeting. Here are my suggestions, best match first:",
			len(result.Suggestions))
	}
	return fmt.Sprintf("No room is a perfect fit, but %d could still work. Here's what I found:",
		len(result.Suggestions))
}

// thinkingLines builds the explanation revealed line by line, along with
// the structured room list payload embedded in it.
func thinkingLines(req model.MeetingRequirements, result match.Result) ([]string, []model.RoomRef) {
	var lines []string
	var refs []model.RoomRef

	slot := fmt.Sprintf("%s for %s", model.FormatClock(req.StartTime), model.FormatDuration(req.Duration))
	lines = append(lines, fmt.Sprintf("Looking for a room for %d people at %s.", req.Attendees, slot))
	if len(req.Features) > 0 {
		lines = append(lines, "Required equipment: "+strings.Join(req.Features, ", ")+".")
	}

	for _, fit := range result.GoodFits {
		lines = append(lines, fmt.Sprintf("%s seats %d - good fit.", fit.Room.Name, fit.Room.Capacity))
		refs = append(refs, model.RoomRef{
			RoomID:   fit.Room.ID,
			RoomName: fit.Room.Name,
			GoodFit:  true,
		})
	}
	for _, fit := range result.PoorFits {
		lines = append(lines, fmt.Sprintf("%s is free but %s.", fit.Room.Name, fit.Reason))
		refs = append(refs, model.RoomRef{
			RoomID:   fit.Room.ID,
			RoomName: fit.Room.Name,
			GoodFit:  false,
			Reason:   fit.Reason,
		})
	}

	switch {
	case len(result.Suggestions) == 0:
		lines = append(lines, "No available room matches this slot.")
	case len(result.GoodFits) > 0:
		lines = append(lines, fmt.Sprintf("Ranking %d candidate(s) by fit.", len(result.Suggestions)))
	default:
		lines = append(lines, "Only partial matches found; ranking the closest ones.")
	}

	return lines, refs
}
