package sched

import (
	"sync"
	"testing"
	"time"
)

func TestManualRunsInDueOrder(t *testing.T) {
	s := NewManual()

	var order []string
	s.AfterFunc("a", 300*time.Millisecond, func() { order = append(order, "late") })
	s.AfterFunc("b", 100*time.Millisecond, func() { order = append(order, "early") })
	s.AfterFunc("c", 100*time.Millisecond, func() { order = append(order, "early-second") })

	s.Advance(time.Second)

	want := []string{"early", "early-second", "late"}
	if len(order) != len(want) {
		t.Fatalf("ran %d callbacks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestManualDoesNotRunBeforeDue(t *testing.T) {
	s := NewManual()

	ran := false
	s.AfterFunc("a", 100*time.Millisecond, func() { ran = true })

	s.Advance(99 * time.Millisecond)
	if ran {
		t.Fatal("callback ran before its due time")
	}

	s.Advance(time.Millisecond)
	if !ran {
		t.Fatal("callback did not run at its due time")
	}
}

func TestManualChainedTimersFireInWindow(t *testing.T) {
	s := NewManual()

	var fired []time.Duration
	s.AfterFunc("a", 100*time.Millisecond, func() {
		fired = append(fired, s.Now())
		s.AfterFunc("a", 50*time.Millisecond, func() {
			fired = append(fired, s.Now())
		})
	})

	s.Advance(200 * time.Millisecond)

	if len(fired) != 2 {
		t.Fatalf("fired %d times, want 2", len(fired))
	}
	if fired[0] != 100*time.Millisecond || fired[1] != 150*time.Millisecond {
		t.Errorf("fired at %v, want [100ms 150ms]", fired)
	}
}

func TestManualCancelOwner(t *testing.T) {
	s := NewManual()

	ran := false
	s.AfterFunc("keep", 100*time.Millisecond, func() {})
	s.AfterFunc("drop", 100*time.Millisecond, func() { ran = true })
	s.AfterFunc("drop", 200*time.Millisecond, func() { ran = true })

	if n := s.CancelOwner("drop"); n != 2 {
		t.Errorf("cancelled %d timers, want 2", n)
	}
	s.Advance(time.Second)

	if ran {
		t.Error("cancelled callback ran")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}

func TestManualCancelSingle(t *testing.T) {
	s := NewManual()

	id := s.AfterFunc("a", time.Millisecond, func() { t.Error("cancelled callback ran") })
	if !s.Cancel(id) {
		t.Error("first cancel should report true")
	}
	if s.Cancel(id) {
		t.Error("second cancel should report false")
	}
	s.Advance(time.Second)
}

func TestManualCancelAll(t *testing.T) {
	s := NewManual()
	for i := 0; i < 5; i++ {
		s.AfterFunc("a", time.Millisecond, func() { t.Error("cancelled callback ran") })
	}
	if n := s.CancelAll(); n != 5 {
		t.Errorf("cancelled %d, want 5", n)
	}
	s.Advance(time.Second)
}

func TestRealSchedulerFiresAndCancels(t *testing.T) {
	s := NewReal()

	var mu sync.Mutex
	fired := make(map[string]bool)
	done := make(chan struct{})

	s.AfterFunc("a", 5*time.Millisecond, func() {
		mu.Lock()
		fired["a"] = true
		mu.Unlock()
		close(done)
	})
	s.AfterFunc("b", 5*time.Millisecond, func() {
		mu.Lock()
		fired["b"] = true
		mu.Unlock()
	})
	if n := s.CancelOwner("b"); n != 1 {
		t.Errorf("cancelled %d timers, want 1", n)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer a never fired")
	}

	// b's timer window has long passed; its callback must not have run.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if !fired["a"] {
		t.Error("timer a did not fire")
	}
	if fired["b"] {
		t.Error("cancelled timer b fired")
	}
}
