// Package sched provides the deferred-callback scheduler that drives every
// staged animation and delayed reply in the conversation. All waiting in
// the system is modeled as timers owned by a message id; cancellation by
// owner is synchronous, so once an edit or reset has cancelled an owner's
// timers none of their callbacks can run afterwards.
package sched

import (
	"sort"
	"sync"
	"time"
)

// TimerID identifies a scheduled callback.
type TimerID uint64

// Scheduler schedules callbacks after a delay and cancels them by id or by
// owning message id.
type Scheduler interface {
	// AfterFunc arms fn to run after d, owned by owner.
	AfterFunc(owner string, d time.Duration, fn func()) TimerID
	// Cancel disarms a single timer. Returns false if it already fired or
	// was cancelled.
	Cancel(id TimerID) bool
	// CancelOwner disarms every timer owned by owner and returns how many
	// were still pending.
	CancelOwner(owner string) int
	// CancelAll disarms everything.
	CancelAll() int
}

type realEntry struct {
	owner string
	timer *time.Timer
}

// RealScheduler runs callbacks on wall-clock time via time.AfterFunc. A
// firing callback re-checks its registration under the scheduler mutex
// before running, so Cancel and CancelOwner guarantee the callback body
// never starts after they return.
type RealScheduler struct {
	mu      sync.Mutex
	nextID  TimerID
	entries map[TimerID]*realEntry
}

// NewReal creates a wall-clock scheduler.
func NewReal() *RealScheduler {
	return &RealScheduler{entries: make(map[TimerID]*realEntry)}
}

// AfterFunc arms fn to run after d, owned by owner.
func (s *RealScheduler) AfterFunc(owner string, d time.Duration, fn func()) TimerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID

	entry := &realEntry{owner: owner}
	entry.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.entries[id]
		delete(s.entries, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	s.entries[id] = entry

	return id
}

// Cancel disarms a single timer.
func (s *RealScheduler) Cancel(id TimerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)
	entry.timer.Stop()
	return true
}

// CancelOwner disarms every timer owned by owner.
func (s *RealScheduler) CancelOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := 0
	for id, entry := range s.entries {
		if entry.owner == owner {
			delete(s.entries, id)
			entry.timer.Stop()
			cancelled++
		}
	}
	return cancelled
}

// CancelAll disarms everything.
func (s *RealScheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cancelled := len(s.entries)
	for id, entry := range s.entries {
		delete(s.entries, id)
		entry.timer.Stop()
	}
	return cancelled
}

type manualEntry struct {
	id    TimerID
	owner string
	due   time.Duration
	fn    func()
}

// ManualScheduler is a virtual-time scheduler for tests. Nothing runs until
// Advance moves the clock; due callbacks run in (due time, arm order).
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  TimerID
	pending []*manualEntry
}

// NewManual creates a virtual-time scheduler starting at zero.
func NewManual() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc arms fn to run once the virtual clock passes now+d.
func (s *ManualScheduler) AfterFunc(owner string, d time.Duration, fn func()) TimerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry := &manualEntry{id: s.nextID, owner: owner, due: s.now + d, fn: fn}
	s.pending = append(s.pending, entry)
	return entry.id
}

// Cancel disarms a single timer.
func (s *ManualScheduler) Cancel(id TimerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(func(e *manualEntry) bool { return e.id == id }) > 0
}

// CancelOwner disarms every timer owned by owner.
func (s *ManualScheduler) CancelOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(func(e *manualEntry) bool { return e.owner == owner })
}

// CancelAll disarms everything.
func (s *ManualScheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pending)
	s.pending = nil
	return n
}

// Now returns the current virtual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns how many timers are armed.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Advance moves the virtual clock forward and runs every callback that
// falls due, in due order. Callbacks may arm new timers; those fire too if
// they fall inside the advanced window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	for {
		entry := s.popDueLocked(target)
		if entry == nil {
			break
		}
		if entry.due > s.now {
			s.now = entry.due
		}
		s.mu.Unlock()
		entry.fn()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

func (s *ManualScheduler) popDueLocked(target time.Duration) *manualEntry {
	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].due != s.pending[j].due {
			return s.pending[i].due < s.pending[j].due
		}
		return s.pending[i].id < s.pending[j].id
	})
	if len(s.pending) == 0 || s.pending[0].due > target {
		return nil
	}
	entry := s.pending[0]
	s.pending = s.pending[1:]
	return entry
}

func (s *ManualScheduler) removeLocked(match func(*manualEntry) bool) int {
	kept := s.pending[:0]
	removed := 0
	for _, e := range s.pending {
		if match(e) {
			removed++
		} else {
			kept = append(kept, e)
		}
	}
	s.pending = kept
	return removed
}
