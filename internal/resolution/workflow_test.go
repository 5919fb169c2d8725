package resolution

import (
	"testing"

	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/internal/store"
)

func offlineCatalogue() []model.Room {
	return []model.Room{
		{
			ID: "workshop", Name: "Workshop Room", Status: model.RoomOffline,
			Capacity: 8,
			Meetings: []model.Meeting{
				{ID: "m-late", Title: "Planning", StartTime: 13, Duration: 1},
				{ID: "m-done", Title: "Retro", StartTime: 8, Duration: 1},
				{ID: "m-soon", Title: "Standup", StartTime: 10, Duration: 1},
			},
		},
		{ID: "spare", Name: "Spare", Status: model.RoomAvailable, Capacity: 8},
		{
			ID: "busy", Name: "Busy", Status: model.RoomAvailable, Capacity: 8,
			Meetings: []model.Meeting{
				{ID: "m-other", StartTime: 10, Duration: 4},
			},
		},
		{ID: "dark", Name: "Dark", Status: model.RoomOffline, Capacity: 8},
	}
}

func newTestWorkflow(clockHours float64) (*Workflow, *store.RoomStore) {
	rooms := store.NewRoomStore(offlineCatalogue(), clockHours, nil)
	return New(rooms, nil, nil), rooms
}

func TestScanCollectsNonElapsedMeetingsInStartOrder(t *testing.T) {
	w, _ := newTestWorkflow(10.0)

	state := w.State()
	if state == nil {
		t.Fatal("no session opened")
	}

	// The 8:00 meeting has fully elapsed at 10:00; the ongoing 10:00 one
	// and the 13:00 one are affected, ascending by start.
	if len(state.Affected) != 2 {
		t.Fatalf("affected = %d, want 2", len(state.Affected))
	}
	if state.Affected[0].Meeting.ID != "m-soon" || state.Affected[1].Meeting.ID != "m-late" {
		t.Errorf("order = %s, %s", state.Affected[0].Meeting.ID, state.Affected[1].Meeting.ID)
	}
	if state.CurrentIndex != 0 {
		t.Errorf("current index = %d, want 0", state.CurrentIndex)
	}
}

func TestScanExcludesOngoingOnceElapsed(t *testing.T) {
	w, _ := newTestWorkflow(11.0)

	state := w.State()
	if state == nil {
		t.Fatal("no session opened")
	}
	if len(state.Affected) != 1 || state.Affected[0].Meeting.ID != "m-late" {
		t.Errorf("affected = %+v, want only m-late", state.Affected)
	}
}

func TestNoSessionWhenNothingAffected(t *testing.T) {
	rooms := store.NewRoomStore([]model.Room{
		{ID: "spare", Status: model.RoomAvailable, Capacity: 4},
	}, 10, nil)
	w := New(rooms, nil, nil)

	if w.State() != nil {
		t.Error("session opened with nothing affected")
	}
	if err := w.Next(); err != ErrNoSession {
		t.Errorf("Next err = %v, want ErrNoSession", err)
	}
	if err := w.Move(); err != ErrNoSession {
		t.Errorf("Move err = %v, want ErrNoSession", err)
	}
}

func TestNextPreviousWrapAndResetSelection(t *testing.T) {
	w, _ := newTestWorkflow(10.0)

	if err := w.SelectAlternative("spare"); err != nil {
		t.Fatal(err)
	}
	if got := w.State().SelectedID; got != "spare" {
		t.Fatalf("selected = %q", got)
	}

	if err := w.Next(); err != nil {
		t.Fatal(err)
	}
	state := w.State()
	if state.CurrentIndex != 1 {
		t.Errorf("index = %d, want 1", state.CurrentIndex)
	}
	if state.SelectedID != "" {
		t.Error("stepping must reset the pending selection")
	}

	// Wrap forward past the end, then wrap backwards.
	w.Next()
	if got := w.State().CurrentIndex; got != 0 {
		t.Errorf("index after wrap = %d, want 0", got)
	}
	w.Previous()
	if got := w.State().CurrentIndex; got != 1 {
		t.Errorf("index after backward wrap = %d, want 1", got)
	}
}

func TestSelectAlternativeRejectsUnusableRooms(t *testing.T) {
	w, _ := newTestWorkflow(10.0)

	// Offline room.
	if err := w.SelectAlternative("dark"); err != ErrBadAlternative {
		t.Errorf("offline target err = %v, want ErrBadAlternative", err)
	}
	// Conflicting slot: the current meeting runs 10:00-11:00, busy holds
	// 10:00-14:00.
	if err := w.SelectAlternative("busy"); err != ErrBadAlternative {
		t.Errorf("conflicting target err = %v, want ErrBadAlternative", err)
	}
	// Unknown room.
	if err := w.SelectAlternative("ghost"); err != store.ErrRoomNotFound {
		t.Errorf("unknown target err = %v, want ErrRoomNotFound", err)
	}

	if err := w.SelectAlternative("spare"); err != nil {
		t.Errorf("valid target err = %v", err)
	}
}

func TestMoveRequiresSelection(t *testing.T) {
	w, _ := newTestWorkflow(10.0)
	if err := w.Move(); err != ErrNoSelection {
		t.Errorf("err = %v, want ErrNoSelection", err)
	}
}

func TestMoveRelocatesAndAdvances(t *testing.T) {
	w, rooms := newTestWorkflow(10.0)

	if err := w.SelectAlternative("spare"); err != nil {
		t.Fatal(err)
	}
	if err := w.Move(); err != nil {
		t.Fatal(err)
	}

	// The meeting moved rooms through the shared commit path.
	spare, _ := rooms.Room("spare")
	if len(spare.Meetings) != 1 || spare.Meetings[0].ID != "m-soon" {
		t.Fatalf("spare meetings = %+v", spare.Meetings)
	}
	workshop, _ := rooms.Room("workshop")
	for _, m := range workshop.Meetings {
		if m.ID == "m-soon" {
			t.Error("meeting still in the offline room")
		}
	}

	// The session continues with the remaining meeting.
	state := w.State()
	if state == nil {
		t.Fatal("session closed with one meeting left")
	}
	if len(state.Affected) != 1 || state.Affected[0].Meeting.ID != "m-late" {
		t.Errorf("affected = %+v, want only m-late", state.Affected)
	}
	if state.SelectedID != "" {
		t.Error("selection survived the move")
	}
}

func TestMovingLastMeetingClosesSession(t *testing.T) {
	w, _ := newTestWorkflow(11.0) // only m-late affected

	if err := w.SelectAlternative("spare"); err != nil {
		t.Fatal(err)
	}
	if err := w.Move(); err != nil {
		t.Fatal(err)
	}

	if w.State() != nil {
		t.Error("session still open after relocating the last meeting")
	}
}

func TestSkipRemovesWithoutRelocating(t *testing.T) {
	w, rooms := newTestWorkflow(10.0)

	if err := w.Skip(); err != nil {
		t.Fatal(err)
	}

	state := w.State()
	if state == nil || len(state.Affected) != 1 || state.Affected[0].Meeting.ID != "m-late" {
		t.Fatalf("state after skip = %+v", state)
	}

	// Skipped meetings stay where they were.
	workshop, _ := rooms.Room("workshop")
	found := false
	for _, m := range workshop.Meetings {
		if m.ID == "m-soon" {
			found = true
		}
	}
	if !found {
		t.Error("skipped meeting left its room")
	}

	// Skipping the rest closes the session.
	if err := w.Skip(); err != nil {
		t.Fatal(err)
	}
	if w.State() != nil {
		t.Error("session still open after skipping everything")
	}
}

func TestRoomBackOnlineClosesSession(t *testing.T) {
	w, rooms := newTestWorkflow(10.0)

	if err := rooms.SetStatus("workshop", model.RoomAvailable); err != nil {
		t.Fatal(err)
	}

	if w.State() != nil {
		t.Error("session still open after the room came back online")
	}
}

func TestSessionReopensAfterClose(t *testing.T) {
	w, rooms := newTestWorkflow(10.0)

	// Close by bringing the room back, then take it offline again: the
	// earlier skip bookkeeping must not leak into the new session.
	if err := w.Skip(); err != nil {
		t.Fatal(err)
	}
	if err := rooms.SetStatus("workshop", model.RoomAvailable); err != nil {
		t.Fatal(err)
	}
	if err := rooms.SetStatus("workshop", model.RoomOffline); err != nil {
		t.Fatal(err)
	}

	state := w.State()
	if state == nil {
		t.Fatal("no session reopened")
	}
	if len(state.Affected) != 2 {
		t.Errorf("affected = %d, want 2 (skip must not persist across sessions)", len(state.Affected))
	}
}
