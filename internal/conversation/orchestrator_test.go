package conversation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/roomflow-ai/booking-platform/internal/config"
	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/match"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/internal/sched"
	"github.com/roomflow-ai/booking-platform/internal/store"
)

const bookingText = "I need a room for 8 people at 3pm for 2 hours with a projector and whiteboard"

// captureBus records published events for assertions.
type captureBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *captureBus) Publish(ev events.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *captureBus) Close() {}

func (b *captureBus) hasType(t events.Type) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range b.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func testTimings() config.RevealTuning {
	return config.RevealTuning{
		TypingDots:    2000 * time.Millisecond,
		PerCharacter:  20 * time.Millisecond,
		TypingHold:    100 * time.Millisecond,
		WidgetBuffer:  250 * time.Millisecond,
		ThinkingFirst: 500 * time.Millisecond,
		ThinkingStep:  1000 * time.Millisecond,
		ReplyDelay:    600 * time.Millisecond,
		SyncGrace:     1500 * time.Millisecond,
	}
}

func testCatalogue() []model.Room {
	return []model.Room{
		{
			ID: "cascade", Name: "Cascade", Capacity: 8, Floor: 2,
			Status:   model.RoomAvailable,
			Features: []string{"Video Conf", "Projector", "Whiteboard"},
		},
		{
			ID: "ember", Name: "Ember", Capacity: 12, Floor: 3,
			Status:   model.RoomAvailable,
			Features: []string{"Projector", "Audio System", "Video Conf"},
		},
		{
			ID: "glacier", Name: "Glacier", Capacity: 2, Floor: 1,
			Status:   model.RoomAvailable,
			Features: []string{"TV"},
		},
	}
}

type fixture struct {
	orch    *Orchestrator
	sched   *sched.ManualScheduler
	rooms   *store.RoomStore
	history *store.MemoryHistory
	bus     *captureBus
	timings config.RevealTuning
}

func newFixture(t *testing.T, rooms []model.Room) *fixture {
	t.Helper()
	f := &fixture{
		sched:   sched.NewManual(),
		rooms:   store.NewRoomStore(rooms, 10.5, nil),
		history: store.NewMemoryHistory(),
		bus:     &captureBus{},
		timings: testTimings(),
	}
	matcher := match.New(config.MatchTuning{
		GoodFitSlack: 3, CapacityBase: 100, SeatPenalty: 5, FallbackBase: 50,
		FeatureWeight: 10, AllFeatureBonus: 20, FirstFloorBonus: 5,
	})
	f.orch = New(f.sched, f.rooms, f.history, matcher, f.timings, f.bus, nil)
	return f
}

// typingTotal is the visible-to-complete duration of the dots-then-type
// reveal for the given text.
func (f *fixture) typingTotal(text string) time.Duration {
	return f.timings.TypingDots +
		f.timings.PerCharacter*time.Duration(utf8.RuneCountInString(text)) +
		f.timings.TypingHold
}

// runPipeline sends a booking message and advances through every stage
// until the suggestion carousel message exists.
func (f *fixture) runPipeline(t *testing.T) {
	t.Helper()
	if _, err := f.orch.Send(bookingText); err != nil {
		t.Fatal(err)
	}

	msgs := f.orch.Messages()
	f.sched.Advance(f.typingTotal(msgs[1].Text))

	msgs = f.orch.Messages()
	thinking := msgs[2]
	if thinking.Kind != model.KindThinking {
		t.Fatalf("message 2 kind = %s, want thinking", thinking.Kind)
	}
	f.sched.Advance(f.timings.ThinkingFirst +
		f.timings.ThinkingStep*time.Duration(len(thinking.Thinking.Lines)-1))
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t, testCatalogue())
	if _, err := f.orch.Send("   "); err != ErrEmptyMessage {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestBookingPipelineStages(t *testing.T) {
	f := newFixture(t, testCatalogue())

	if _, err := f.orch.Send(bookingText); err != nil {
		t.Fatal(err)
	}

	// Immediately after send: the user message and the searching ack.
	msgs := f.orch.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Kind != model.KindUser || msgs[1].Kind != model.KindReply {
		t.Fatalf("kinds = %s, %s", msgs[0].Kind, msgs[1].Kind)
	}
	if msgs[1].Reveal != model.RevealRunning {
		t.Errorf("ack reveal = %s, want revealing", msgs[1].Reveal)
	}

	ackTotal := f.typingTotal(msgs[1].Text)

	// One instant before the ack completes no thinking message exists.
	f.sched.Advance(ackTotal - time.Millisecond)
	if got := len(f.orch.Messages()); got != 2 {
		t.Fatalf("thinking appeared before the ack completed (%d messages)", got)
	}

	f.sched.Advance(time.Millisecond)
	msgs = f.orch.Messages()
	if len(msgs) != 3 || msgs[2].Kind != model.KindThinking {
		t.Fatalf("want thinking message after ack completion, got %d messages", len(msgs))
	}
	if msgs[1].Reveal != model.RevealComplete {
		t.Errorf("ack reveal = %s, want complete", msgs[1].Reveal)
	}

	// Thinking reveals line by line: first line after ThinkingFirst, one
	// more per ThinkingStep.
	lines := len(msgs[2].Thinking.Lines)
	f.sched.Advance(f.timings.ThinkingFirst)
	if got := f.orch.Messages()[2].Thinking.Revealed; got != 1 {
		t.Errorf("revealed lines = %d, want 1", got)
	}
	f.sched.Advance(f.timings.ThinkingStep)
	if got := f.orch.Messages()[2].Thinking.Revealed; got != 2 {
		t.Errorf("revealed lines = %d, want 2", got)
	}

	// The carousel only appears once the last line is out.
	f.sched.Advance(f.timings.ThinkingStep * time.Duration(lines-2))
	msgs = f.orch.Messages()
	if len(msgs) != 4 || msgs[3].Kind != model.KindSuggestions {
		t.Fatalf("want suggestions after thinking completion, got %d messages", len(msgs))
	}
	if msgs[2].Reveal != model.RevealComplete {
		t.Errorf("thinking reveal = %s, want complete", msgs[2].Reveal)
	}
	if len(msgs[3].Suggestions.Items) != 3 {
		t.Errorf("suggestions = %d, want 3", len(msgs[3].Suggestions.Items))
	}
	if msgs[3].Suggestions.Items[0].RoomID != "cascade" {
		t.Errorf("top suggestion = %s, want cascade", msgs[3].Suggestions.Items[0].RoomID)
	}
}

func TestTypingRevealTiming(t *testing.T) {
	f := newFixture(t, testCatalogue())

	// A fallback message gets a plain canned reply after the reply delay.
	if _, err := f.orch.Send("hello there"); err != nil {
		t.Fatal(err)
	}
	f.sched.Advance(f.timings.ReplyDelay)

	msgs := f.orch.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	reply := msgs[1]
	runes := utf8.RuneCountInString(reply.Text)

	// Dots all the way until the dots window elapses.
	f.sched.Advance(f.timings.TypingDots - time.Millisecond)
	if got := f.orch.Messages()[1]; got.Typing != model.TypingPendingDots {
		t.Errorf("typing = %s, want pending_dots", got.Typing)
	}

	// At the boundary the indicator flips to typing with zero characters.
	f.sched.Advance(time.Millisecond)
	if got := f.orch.Messages()[1]; got.Typing != model.TypingActive || got.RevealedChars != 0 {
		t.Errorf("typing = %s chars = %d, want typing/0", got.Typing, got.RevealedChars)
	}

	// One character per tick.
	f.sched.Advance(f.timings.PerCharacter * 5)
	if got := f.orch.Messages()[1].RevealedChars; got != 5 {
		t.Errorf("revealed chars = %d, want 5", got)
	}

	// Finish all characters; the hold keeps the reveal running.
	f.sched.Advance(f.timings.PerCharacter * time.Duration(runes-5))
	if got := f.orch.Messages()[1]; got.RevealedChars != runes || got.Reveal != model.RevealRunning {
		t.Errorf("chars = %d reveal = %s, want %d/revealing", got.RevealedChars, got.Reveal, runes)
	}

	f.sched.Advance(f.timings.TypingHold)
	if got := f.orch.Messages()[1]; got.Reveal != model.RevealComplete || got.Typing != model.TypingComplete {
		t.Errorf("reveal = %s typing = %s, want complete/complete", got.Reveal, got.Typing)
	}
}

func TestWidgetGatedBehindRevealAndBuffer(t *testing.T) {
	f := newFixture(t, testCatalogue())
	f.runPipeline(t)

	carousel := f.orch.Messages()[3]
	total := f.typingTotal(carousel.Text)

	f.sched.Advance(total)
	if got := f.orch.Messages()[3]; got.Reveal != model.RevealComplete || got.WidgetVisible {
		t.Fatalf("reveal = %s widget = %v, want complete and hidden", got.Reveal, got.WidgetVisible)
	}

	f.sched.Advance(f.timings.WidgetBuffer)
	if got := f.orch.Messages()[3]; !got.WidgetVisible {
		t.Error("widget still hidden after the buffer elapsed")
	}
}

func TestNoRoomsIsTerminal(t *testing.T) {
	rooms := testCatalogue()
	for i := range rooms {
		rooms[i].Status = model.RoomOccupied
	}
	f := newFixture(t, rooms)

	if _, err := f.orch.Send(bookingText); err != nil {
		t.Fatal(err)
	}
	msgs := f.orch.Messages()
	f.sched.Advance(f.typingTotal(msgs[1].Text))

	thinking := f.orch.Messages()[2]
	f.sched.Advance(f.timings.ThinkingFirst +
		f.timings.ThinkingStep*time.Duration(len(thinking.Thinking.Lines)-1))

	msgs = f.orch.Messages()
	last := msgs[len(msgs)-1]
	if last.Kind != model.KindReply || last.Suggestions != nil {
		t.Fatalf("terminal message kind = %s, want plain reply", last.Kind)
	}

	// Nothing further happens, ever.
	f.sched.Advance(f.typingTotal(last.Text) + time.Hour)
	if got := len(f.orch.Messages()); got != len(msgs) {
		t.Errorf("messages grew from %d to %d after terminal reply", len(msgs), got)
	}
}

func TestCannedReplies(t *testing.T) {
	t.Run("map", func(t *testing.T) {
		f := newFixture(t, testCatalogue())
		f.orch.Send("where is the Aurora room?")
		f.sched.Advance(f.timings.ReplyDelay)

		msgs := f.orch.Messages()
		if len(msgs) != 2 || !strings.Contains(msgs[1].Text, "floor map") {
			t.Fatalf("unexpected reply: %+v", msgs[len(msgs)-1])
		}
	})

	t.Run("ticket", func(t *testing.T) {
		f := newFixture(t, testCatalogue())
		f.orch.Send("the projector is broken")
		f.sched.Advance(f.timings.ReplyDelay)

		msgs := f.orch.Messages()
		if len(msgs) != 2 || !strings.Contains(msgs[1].Text, "TKT-") {
			t.Fatalf("reply does not carry a ticket id: %q", msgs[1].Text)
		}
		if !f.bus.hasType(events.TypeTicketCreated) {
			t.Error("no ticket_created event published")
		}
	})

	t.Run("catering", func(t *testing.T) {
		f := newFixture(t, testCatalogue())
		f.orch.Send("can we get coffee?")
		f.sched.Advance(f.timings.ReplyDelay)

		msgs := f.orch.Messages()
		if msgs[1].Kind != model.KindOptions || len(msgs[1].Options) == 0 {
			t.Fatalf("want cuisine options, got %+v", msgs[1])
		}
	})

	t.Run("meetings", func(t *testing.T) {
		rooms := testCatalogue()
		rooms[0].Meetings = []model.Meeting{
			{ID: "m-future", Title: "Later", StartTime: 13, Duration: 1},
			{ID: "m-past", Title: "Earlier", StartTime: 8, Duration: 1},
		}
		f := newFixture(t, rooms)
		f.orch.Send("what's on my schedule today?")
		f.sched.Advance(f.timings.ReplyDelay)

		msgs := f.orch.Messages()
		if msgs[1].Kind != model.KindMeetingList {
			t.Fatalf("want meeting list, got %s", msgs[1].Kind)
		}
		if len(msgs[1].Meetings) != 1 || msgs[1].Meetings[0].ID != "m-future" {
			t.Errorf("meetings = %+v, want only the upcoming one", msgs[1].Meetings)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		f := newFixture(t, testCatalogue())
		f.orch.Send("hello there")
		f.sched.Advance(f.timings.ReplyDelay)

		msgs := f.orch.Messages()
		if !strings.Contains(msgs[1].Text, "book a meeting room") {
			t.Errorf("unexpected fallback: %q", msgs[1].Text)
		}
	})
}

func TestEditPausesAndRegenerates(t *testing.T) {
	f := newFixture(t, testCatalogue())

	user, err := f.orch.Send(bookingText)
	if err != nil {
		t.Fatal(err)
	}

	// Let the ack reveal partially.
	f.sched.Advance(f.timings.TypingDots + f.timings.PerCharacter*4)
	frozenChars := f.orch.Messages()[1].RevealedChars

	if err := f.orch.BeginEdit(user.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.orch.Messages()[1].Reveal; got != model.RevealPaused {
		t.Fatalf("ack reveal = %s, want paused", got)
	}

	// Frozen means frozen: time passing changes nothing.
	f.sched.Advance(time.Hour)
	if got := f.orch.Messages()[1].RevealedChars; got != frozenChars {
		t.Errorf("paused reveal advanced from %d to %d chars", frozenChars, got)
	}

	if err := f.orch.SaveEdit(user.ID, "I need a room for 2 people at 9am"); err != nil {
		t.Fatal(err)
	}

	msgs := f.orch.Messages()
	if msgs[0].Text != "I need a room for 2 people at 9am" {
		t.Errorf("edited text not applied: %q", msgs[0].Text)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages after save, want user + fresh ack", len(msgs))
	}
	if msgs[1].Reveal != model.RevealRunning {
		t.Errorf("fresh ack reveal = %s, want revealing", msgs[1].Reveal)
	}

	// The regenerated pipeline runs from the new text.
	f.sched.Advance(f.typingTotal(msgs[1].Text))
	thinking := f.orch.Messages()[2]
	f.sched.Advance(f.timings.ThinkingFirst +
		f.timings.ThinkingStep*time.Duration(len(thinking.Thinking.Lines)-1))

	carousel := f.orch.Messages()[3]
	if carousel.Suggestions.Requirements.Attendees != 2 {
		t.Errorf("regenerated attendees = %d, want 2", carousel.Suggestions.Requirements.Attendees)
	}
}

func TestCancelEditKeepsFrozenState(t *testing.T) {
	f := newFixture(t, testCatalogue())

	user, _ := f.orch.Send(bookingText)
	f.sched.Advance(f.timings.TypingDots + f.timings.PerCharacter*4)

	if err := f.orch.BeginEdit(user.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.orch.CancelEdit(user.ID); err != nil {
		t.Fatal(err)
	}

	msgs := f.orch.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages changed on cancel: %d", len(msgs))
	}
	if msgs[1].Reveal != model.RevealPaused {
		t.Errorf("ack reveal = %s, want still paused", msgs[1].Reveal)
	}
}

func TestEditRejectsAssistantMessages(t *testing.T) {
	f := newFixture(t, testCatalogue())
	f.orch.Send(bookingText)

	ack := f.orch.Messages()[1]
	if err := f.orch.BeginEdit(ack.ID); err != ErrNotEditable {
		t.Errorf("err = %v, want ErrNotEditable", err)
	}
	if err := f.orch.SaveEdit(ack.ID, "new"); err != ErrNotEditable {
		t.Errorf("err = %v, want ErrNotEditable", err)
	}
}

func TestResetArchivesAndClears(t *testing.T) {
	f := newFixture(t, testCatalogue())
	f.orch.Send(bookingText)

	if err := f.orch.Reset(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	if got := len(f.orch.Messages()); got != 0 {
		t.Errorf("messages after reset = %d, want 0", got)
	}
	if f.sched.Pending() != 0 {
		t.Errorf("pending timers after reset = %d, want 0", f.sched.Pending())
	}
	sessions, _ := f.history.List(context.Background())
	if len(sessions) != 1 {
		t.Fatalf("archived sessions = %d, want 1", len(sessions))
	}
	if !strings.HasPrefix(bookingText, sessions[0].Title) {
		t.Errorf("session title = %q", sessions[0].Title)
	}

	// No mutation arrives later from the discarded turn.
	f.sched.Advance(time.Hour)
	if got := len(f.orch.Messages()); got != 0 {
		t.Errorf("discarded timers appended %d messages", got)
	}

	// Resetting an empty conversation archives nothing.
	if err := f.orch.Reset(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	sessions, _ = f.history.List(context.Background())
	if len(sessions) != 1 {
		t.Errorf("archived sessions = %d, want 1", len(sessions))
	}
}

func TestRestoreReplacesLiveConversation(t *testing.T) {
	f := newFixture(t, testCatalogue())
	f.runPipeline(t)
	archivedLen := len(f.orch.Messages())

	if err := f.orch.Reset(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	sessions, _ := f.history.List(context.Background())
	if len(sessions) != 1 {
		t.Fatalf("archived sessions = %d, want 1", len(sessions))
	}

	f.orch.Send("hello there")

	if err := f.orch.Restore(context.Background(), sessions[0].ID); err != nil {
		t.Fatal(err)
	}

	msgs := f.orch.Messages()
	if len(msgs) != archivedLen {
		t.Fatalf("restored messages = %d, want %d", len(msgs), archivedLen)
	}
	for _, m := range msgs {
		if m.Reveal != model.RevealComplete || m.Typing != model.TypingComplete {
			t.Errorf("restored message %s not fully revealed", m.ID)
		}
		if m.Suggestions != nil && !m.Suggestions.Closed {
			t.Errorf("restored carousel %s is still open", m.ID)
		}
	}
	if f.sched.Pending() != 0 {
		t.Errorf("pending timers after restore = %d, want 0", f.sched.Pending())
	}

	// The interrupted conversation was archived before the switch.
	sessions, _ = f.history.List(context.Background())
	if len(sessions) != 2 {
		t.Errorf("archived sessions = %d, want 2", len(sessions))
	}

	if err := f.orch.Restore(context.Background(), "no-such-session"); err != ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSelectRoomBooksAndClosesCarousel(t *testing.T) {
	f := newFixture(t, testCatalogue())
	f.runPipeline(t)

	if err := f.orch.SelectRoom("cascade"); err != nil {
		t.Fatal(err)
	}

	msgs := f.orch.Messages()
	carousel := msgs[3]
	if !carousel.Suggestions.Closed || carousel.Suggestions.SelectedRoomID != "cascade" {
		t.Errorf("carousel not closed on selection: %+v", carousel.Suggestions)
	}

	// Recap plus confirmation appended.
	if len(msgs) != 6 {
		t.Fatalf("got %d messages, want 6", len(msgs))
	}
	if msgs[4].Kind != model.KindUser || msgs[5].Kind != model.KindReply {
		t.Errorf("kinds = %s, %s", msgs[4].Kind, msgs[5].Kind)
	}

	room, err := f.rooms.Room("cascade")
	if err != nil {
		t.Fatal(err)
	}
	if len(room.Meetings) != 1 {
		t.Fatalf("room meetings = %d, want 1", len(room.Meetings))
	}
	meeting := room.Meetings[0]
	if meeting.StartTime != 15 || meeting.Duration != 2 || meeting.Attendees != 8 {
		t.Errorf("meeting = %+v", meeting)
	}
	if !meeting.Syncing {
		t.Error("fresh booking should still be syncing")
	}

	if !f.bus.hasType(events.TypeBookingCommitted) || !f.bus.hasType(events.TypeRoomSelected) {
		t.Error("booking events not published")
	}

	// The sync grace window clears the flag.
	f.sched.Advance(f.timings.SyncGrace)
	room, _ = f.rooms.Room("cascade")
	if room.Meetings[0].Syncing {
		t.Error("meeting still syncing after the grace window")
	}
	if !f.bus.hasType(events.TypeBookingSynced) {
		t.Error("no booking_synced event published")
	}
}

func TestSelectRoomValidation(t *testing.T) {
	f := newFixture(t, testCatalogue())
	if err := f.orch.SelectRoom("cascade"); err != ErrNoSuggestions {
		t.Errorf("err = %v, want ErrNoSuggestions", err)
	}

	f.runPipeline(t)
	if err := f.orch.SelectRoom("not-in-carousel"); err != ErrUnknownRoom {
		t.Errorf("err = %v, want ErrUnknownRoom", err)
	}
}

func TestPreviewWrapsCyclically(t *testing.T) {
	f := newFixture(t, testCatalogue())
	f.runPipeline(t)

	n := len(f.orch.Messages()[3].Suggestions.Items)

	// Stepping backwards from the first wraps to the last.
	if err := f.orch.PreviewPrevious(); err != nil {
		t.Fatal(err)
	}
	if got := f.orch.Messages()[3].Suggestions.PreviewIndex; got != n-1 {
		t.Errorf("preview index = %d, want %d", got, n-1)
	}

	// Stepping forward wraps back to the first.
	if err := f.orch.PreviewNext(); err != nil {
		t.Fatal(err)
	}
	if got := f.orch.Messages()[3].Suggestions.PreviewIndex; got != 0 {
		t.Errorf("preview index = %d, want 0", got)
	}

	if !f.bus.hasType(events.TypeMeetingPreview) || !f.bus.hasType(events.TypeHighlightRoom) {
		t.Error("preview events not published")
	}
}

func TestUpdateTitlePropagatesToCarousel(t *testing.T) {
	f := newFixture(t, testCatalogue())

	if err := f.orch.UpdateTitle("Quarterly Review"); err != ErrNoSuggestions {
		t.Fatalf("err = %v, want ErrNoSuggestions before any pipeline run", err)
	}

	f.runPipeline(t)
	if err := f.orch.UpdateTitle("Quarterly Review"); err != nil {
		t.Fatal(err)
	}

	if got := f.orch.Requirements().Title; got != "Quarterly Review" {
		t.Errorf("requirements title = %q", got)
	}
	if got := f.orch.Messages()[3].Suggestions.Requirements.Title; got != "Quarterly Review" {
		t.Errorf("carousel title = %q", got)
	}
}
