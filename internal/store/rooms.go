// Package store holds the shared mutable state of the booking platform:
// the room catalogue with its simulated clock, and the chat history
// archive. All catalogue writes are whole-catalogue replacements, so no
// partial room state is ever observable.
package store

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/roomflow-ai/booking-platform/internal/match"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/pkg/logger"
)

var (
	// ErrRoomNotFound is returned when a room id is not in the catalogue.
	ErrRoomNotFound = errors.New("room not found")
	// ErrMeetingNotFound is returned when a meeting id is not in the room.
	ErrMeetingNotFound = errors.New("meeting not found")
	// ErrConflict is returned when a commit would double-book a room.
	ErrConflict = errors.New("room already booked for that slot")
)

// RoomStore owns the room catalogue and the simulated hours-of-day clock.
// Mutations go through commit methods only; every change notifies the
// registered listeners (the offline resolution workflow re-scans on each).
type RoomStore struct {
	mu         sync.RWMutex
	rooms      []model.Room
	clockHours float64
	listeners  []func()
	logger     *logger.Logger
}

// NewRoomStore creates a store seeded with the given catalogue.
func NewRoomStore(rooms []model.Room, clockHours float64, log *logger.Logger) *RoomStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &RoomStore{
		rooms:      cloneRooms(rooms),
		clockHours: clockHours,
		logger:     log,
	}
}

// OnChange registers a listener invoked after every catalogue or clock
// mutation. Listeners run outside the store lock.
func (s *RoomStore) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the catalogue.
func (s *RoomStore) Snapshot() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRooms(s.rooms)
}

// Room returns a copy of one room.
func (s *RoomStore) Room(roomID string) (model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rooms {
		if r.ID == roomID {
			return cloneRoom(r), nil
		}
	}
	return model.Room{}, ErrRoomNotFound
}

// ClockHours returns the simulated hour of day.
func (s *RoomStore) ClockHours() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clockHours
}

// SetClockHours moves the simulated clock.
func (s *RoomStore) SetClockHours(h float64) {
	s.mu.Lock()
	s.clockHours = h
	s.mu.Unlock()
	s.notify()
}

// Replace swaps in a whole new catalogue.
func (s *RoomStore) Replace(rooms []model.Room) {
	s.mu.Lock()
	s.rooms = cloneRooms(rooms)
	s.mu.Unlock()

	s.logger.Info("room catalogue replaced", zap.Int("rooms", len(rooms)))
	s.notify()
}

// SetStatus changes one room's status (the manual offline toggle).
func (s *RoomStore) SetStatus(roomID string, status model.RoomStatus) error {
	s.mu.Lock()
	idx := s.indexLocked(roomID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrRoomNotFound
	}

	next := cloneRooms(s.rooms)
	next[idx].Status = status
	s.rooms = next
	s.mu.Unlock()

	s.logger.Info("room status changed",
		zap.String("room_id", roomID),
		zap.String("status", string(status)),
	)
	s.notify()
	return nil
}

// Book commits a meeting into a room. The slot must be conflict-free; a
// request-only room marks the meeting pending approval. This is the single
// commit path shared by carousel bookings and relocations.
func (s *RoomStore) Book(roomID string, meeting model.Meeting) error {
	s.mu.Lock()
	idx := s.indexLocked(roomID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrRoomNotFound
	}

	if !match.RoomFree(s.rooms[idx], meeting.StartTime, meeting.Duration) {
		s.mu.Unlock()
		return ErrConflict
	}

	next := cloneRooms(s.rooms)
	meeting.Rooms = []string{roomID}
	if next[idx].RequestOnly {
		meeting.PendingApproval = true
	}
	next[idx].Meetings = append(next[idx].Meetings, meeting)
	s.rooms = next
	s.mu.Unlock()

	s.logger.Info("meeting booked",
		zap.String("room_id", roomID),
		zap.String("meeting_id", meeting.ID),
		zap.Float64("start", meeting.StartTime),
	)
	s.notify()
	return nil
}

// Relocate moves a meeting between rooms through the same commit semantics
// as Book: the target slot must be conflict-free, and the meeting leaves
// the old room only once the new room accepted it.
func (s *RoomStore) Relocate(meetingID, fromRoomID, toRoomID string) error {
	s.mu.Lock()
	fromIdx := s.indexLocked(fromRoomID)
	toIdx := s.indexLocked(toRoomID)
	if fromIdx < 0 || toIdx < 0 {
		s.mu.Unlock()
		return ErrRoomNotFound
	}

	meetingIdx := -1
	for i, m := range s.rooms[fromIdx].Meetings {
		if m.ID == meetingID {
			meetingIdx = i
			break
		}
	}
	if meetingIdx < 0 {
		s.mu.Unlock()
		return ErrMeetingNotFound
	}

	meeting := s.rooms[fromIdx].Meetings[meetingIdx]
	if !match.RoomFree(s.rooms[toIdx], meeting.StartTime, meeting.Duration) {
		s.mu.Unlock()
		return ErrConflict
	}

	next := cloneRooms(s.rooms)
	next[fromIdx].Meetings = append(
		next[fromIdx].Meetings[:meetingIdx],
		next[fromIdx].Meetings[meetingIdx+1:]...,
	)
	meeting.Rooms = []string{toRoomID}
	if next[toIdx].RequestOnly {
		meeting.PendingApproval = true
	}
	next[toIdx].Meetings = append(next[toIdx].Meetings, meeting)
	s.rooms = next
	s.mu.Unlock()

	s.logger.Info("meeting relocated",
		zap.String("meeting_id", meetingID),
		zap.String("from_room", fromRoomID),
		zap.String("to_room", toRoomID),
	)
	s.notify()
	return nil
}

// MarkSynced clears the syncing flag on a meeting once the grace window
// elapses. Missing meetings are a silent no-op: the booking may have been
// discarded in the meantime.
func (s *RoomStore) MarkSynced(meetingID string) {
	s.mu.Lock()
	changed := false
	for ri := range s.rooms {
		for mi := range s.rooms[ri].Meetings {
			if s.rooms[ri].Meetings[mi].ID == meetingID && s.rooms[ri].Meetings[mi].Syncing {
				next := cloneRooms(s.rooms)
				next[ri].Meetings[mi].Syncing = false
				s.rooms = next
				changed = true
			}
		}
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *RoomStore) indexLocked(roomID string) int {
	for i, r := range s.rooms {
		if r.ID == roomID {
			return i
		}
	}
	return -1
}

func (s *RoomStore) notify() {
	s.mu.RLock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

func cloneRooms(rooms []model.Room) []model.Room {
	out := make([]model.Room, len(rooms))
	for i, r := range rooms {
		out[i] = cloneRoom(r)
	}
	return out
}

func cloneRoom(r model.Room) model.Room {
	clone := r
	clone.Features = append([]string(nil), r.Features...)
	clone.Meetings = make([]model.Meeting, len(r.Meetings))
	for i, m := range r.Meetings {
		clone.Meetings[i] = m
		clone.Meetings[i].Rooms = append([]string(nil), m.Rooms...)
	}
	return clone
}
