// Package resolution detects meetings stranded in offline rooms and walks
// the user through relocating or skipping them, one meeting at a time. At
// most one session is live per workflow; it opens when a scan finds
// stranded meetings and closes when the list empties.
package resolution

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/match"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/internal/store"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
	"github.com/roomflow-ai/booking-platform/pkg/metrics"
)

var (
	// ErrNoSession is returned when no resolution session is active.
	ErrNoSession = errors.New("no active resolution session")
	// ErrNoSelection is returned when Move is called before a room is chosen.
	ErrNoSelection = errors.New("no alternative room selected")
	// ErrBadAlternative is returned when the chosen room cannot host the meeting.
	ErrBadAlternative = errors.New("room cannot host this meeting")
)

// AffectedMeeting is one stranded meeting with its offline room.
type AffectedMeeting struct {
	Meeting  model.Meeting `json:"meeting"`
	RoomID   string        `json:"room_id"`
	RoomName string        `json:"room_name"`
}

// State is the live session snapshot exposed to the resolution banner.
type State struct {
	Affected     []AffectedMeeting `json:"affected_meetings"`
	CurrentIndex int               `json:"current_index"`
	SelectedID   string            `json:"selected_alternative_room_id,omitempty"`
}

// Workflow owns the single resolution session. It re-scans on every
// catalogue or clock change.
type Workflow struct {
	mu      sync.Mutex
	rooms   *store.RoomStore
	pub     events.Publisher
	logger  *logger.Logger
	state   *State
	skipped map[string]bool
	newID   func() string
}

// New creates the workflow and subscribes it to catalogue changes.
func New(rooms *store.RoomStore, pub events.Publisher, log *logger.Logger) *Workflow {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	w := &Workflow{
		rooms:   rooms,
		pub:     pub,
		logger:  log,
		skipped: make(map[string]bool),
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	rooms.OnChange(w.Rescan)
	w.Rescan()
	return w
}

// Rescan rebuilds the affected list from the catalogue: every meeting in
// an offline room whose interval has not fully elapsed, ascending by
// start time. Opens, updates, or closes the session accordingly.
func (w *Workflow) Rescan() {
	rooms := w.rooms.Snapshot()
	clock := w.rooms.ClockHours()

	w.mu.Lock()
	var affected []AffectedMeeting
	for _, room := range rooms {
		if room.Status != model.RoomOffline {
			continue
		}
		for _, m := range room.Meetings {
			if m.EndTime() <= clock {
				continue
			}
			if w.skipped[m.ID] {
				continue
			}
			affected = append(affected, AffectedMeeting{
				Meeting:  m,
				RoomID:   room.ID,
				RoomName: room.Name,
			})
		}
	}
	sort.SliceStable(affected, func(i, j int) bool {
		return affected[i].Meeting.StartTime < affected[j].Meeting.StartTime
	})

	changed := false
	switch {
	case len(affected) == 0:
		if w.state != nil {
			w.state = nil
			w.skipped = make(map[string]bool)
			changed = true
			w.logger.Info("resolution session closed")
		}
	case w.state == nil:
		w.state = &State{Affected: affected}
		changed = true
		w.logger.Info("resolution session opened", zap.Int("affected", len(affected)))
	default:
		// Keep the user's place: follow the current meeting into the new
		// list, else clamp and drop the pending selection.
		currentID := w.state.Affected[w.state.CurrentIndex].Meeting.ID
		idx := -1
		for i, a := range affected {
			if a.Meeting.ID == currentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			idx = w.state.CurrentIndex
			if idx >= len(affected) {
				idx = 0
			}
			w.state.SelectedID = ""
		}
		w.state.Affected = affected
		w.state.CurrentIndex = idx
		changed = true
	}

	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	if w.stateActive(snapshot) {
		metrics.ResolutionSessionsActive.Set(1)
	} else {
		metrics.ResolutionSessionsActive.Set(0)
	}
	if changed {
		w.emitState(snapshot)
	}
}

// State returns a copy of the live session, or nil when none is active.
func (w *Workflow) State() *State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Next steps to the next affected meeting, wrapping around, and resets the
// pending selection.
func (w *Workflow) Next() error {
	return w.step(1)
}

// Previous steps back, wrapping around, and resets the pending selection.
func (w *Workflow) Previous() error {
	return w.step(-1)
}

func (w *Workflow) step(delta int) error {
	w.mu.Lock()
	if w.state == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	n := len(w.state.Affected)
	w.state.CurrentIndex = ((w.state.CurrentIndex+delta)%n + n) % n
	w.state.SelectedID = ""
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.emitState(snapshot)
	return nil
}

// SelectAlternative records a relocation target without committing it. The
// room must be available and conflict-free for the current meeting's slot.
func (w *Workflow) SelectAlternative(roomID string) error {
	room, err := w.rooms.Room(roomID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.state == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	current := w.state.Affected[w.state.CurrentIndex]
	if room.Status != model.RoomAvailable ||
		!match.RoomFree(room, current.Meeting.StartTime, current.Meeting.Duration) {
		w.mu.Unlock()
		return ErrBadAlternative
	}
	w.state.SelectedID = roomID
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.emitState(snapshot)
	return nil
}

// Move commits the pending relocation through the shared booking commit
// path. The catalogue change triggers a rescan, which drops the moved
// meeting and advances or closes the session.
func (w *Workflow) Move() error {
	w.mu.Lock()
	if w.state == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	if w.state.SelectedID == "" {
		w.mu.Unlock()
		return ErrNoSelection
	}
	current := w.state.Affected[w.state.CurrentIndex]
	target := w.state.SelectedID
	w.state.SelectedID = ""
	w.mu.Unlock()

	if err := w.rooms.Relocate(current.Meeting.ID, current.RoomID, target); err != nil {
		return err
	}

	metrics.MeetingsRelocated.Inc()
	w.logger.Info("meeting relocated",
		zap.String("meeting_id", current.Meeting.ID),
		zap.String("from_room", current.RoomID),
		zap.String("to_room", target),
	)
	return nil
}

// Skip drops the current meeting from the session without relocating it.
func (w *Workflow) Skip() error {
	w.mu.Lock()
	if w.state == nil {
		w.mu.Unlock()
		return ErrNoSession
	}
	current := w.state.Affected[w.state.CurrentIndex]
	w.skipped[current.Meeting.ID] = true
	w.mu.Unlock()

	w.Rescan()
	return nil
}

func (w *Workflow) snapshotLocked() *State {
	if w.state == nil {
		return nil
	}
	copyState := State{
		Affected:     append([]AffectedMeeting(nil), w.state.Affected...),
		CurrentIndex: w.state.CurrentIndex,
		SelectedID:   w.state.SelectedID,
	}
	return &copyState
}

func (w *Workflow) stateActive(s *State) bool {
	return s != nil
}

func (w *Workflow) emitState(s *State) {
	w.pub.Publish(events.Event{
		ID:        w.newID(),
		Type:      events.TypeResolutionUpdated,
		CreatedAt: time.Now(),
		Payload:   s,
	})
}
