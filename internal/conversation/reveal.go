package conversation

import (
	"time"
	"unicode/utf8"

	"github.com/roomflow-ai/booking-platform/internal/events"
	"github.com/roomflow-ai/booking-platform/internal/model"
	"github.com/roomflow-ai/booking-platform/pkg/metrics"
)

// The reveal protocols. Both are idempotent against double starts (guarded
// by the message's reveal state), are driven entirely by message-id-owned
// timers, and stop scheduling the moment their message leaves the live
// conversation or is paused by an edit.
//
// Dots-then-type: an indeterminate indicator for TypingDots, then one
// character every PerCharacter, then a TypingHold before completion. The
// visible-to-complete duration is exactly
// TypingDots + PerCharacter*len(text) + TypingHold; any attached widget
// shows WidgetBuffer after that.
//
// Thinking: the first non-blank line after ThinkingFirst, one more line
// every ThinkingStep. Pausing keeps the already-revealed lines; there is
// no resume.

// stageFunc runs under the orchestrator lock when a reveal completes and
// returns the events to publish. It typically appends the next pipeline
// stage, which guarantees a later stage is only armed after the message it
// depends on exists.
type stageFunc func() []events.Event

// beginTypingLocked starts the dots-then-type protocol.
func (o *Orchestrator) beginTypingLocked(msgID string, onComplete stageFunc) {
	m := o.messageLocked(msgID)
	if m == nil || m.Reveal != model.RevealNotStarted {
		return
	}
	m.Reveal = model.RevealRunning
	m.Typing = model.TypingPendingDots

	o.scheduler.AfterFunc(msgID, o.timings.TypingDots, func() {
		o.advanceTyping(msgID, onComplete)
	})
}

func (o *Orchestrator) advanceTyping(msgID string, onComplete stageFunc) {
	o.mu.Lock()
	m := o.messageLocked(msgID)
	if m == nil || m.Reveal != model.RevealRunning {
		o.mu.Unlock()
		return
	}

	if m.Typing == model.TypingPendingDots {
		m.Typing = model.TypingActive
	} else if m.RevealedChars < utf8.RuneCountInString(m.Text) {
		m.RevealedChars++
	}

	if m.RevealedChars < utf8.RuneCountInString(m.Text) {
		o.scheduler.AfterFunc(msgID, o.timings.PerCharacter, func() {
			o.advanceTyping(msgID, onComplete)
		})
	} else {
		o.scheduler.AfterFunc(msgID, o.timings.TypingHold, func() {
			o.completeTyping(msgID, onComplete)
		})
	}

	evs := []events.Event{o.messageEvent(events.TypeMessageUpdated, m)}
	o.mu.Unlock()
	o.emit(evs...)
}

func (o *Orchestrator) completeTyping(msgID string, onComplete stageFunc) {
	o.mu.Lock()
	m := o.messageLocked(msgID)
	if m == nil || m.Reveal != model.RevealRunning {
		o.mu.Unlock()
		return
	}

	m.Typing = model.TypingComplete
	m.Reveal = model.RevealComplete

	total := o.timings.TypingDots +
		o.timings.PerCharacter*time.Duration(utf8.RuneCountInString(m.Text)) +
		o.timings.TypingHold
	metrics.RevealDuration.WithLabelValues("typing").Observe(total.Seconds())

	if m.Suggestions != nil || len(m.Meetings) > 0 || len(m.Options) > 0 {
		o.scheduler.AfterFunc(msgID, o.timings.WidgetBuffer, func() {
			o.showWidget(msgID)
		})
	}

	evs := []events.Event{o.messageEvent(events.TypeMessageUpdated, m)}
	if onComplete != nil {
		evs = append(evs, onComplete()...)
	}
	o.mu.Unlock()
	o.emit(evs...)
}

func (o *Orchestrator) showWidget(msgID string) {
	o.mu.Lock()
	m := o.messageLocked(msgID)
	if m == nil || m.Reveal != model.RevealComplete {
		o.mu.Unlock()
		return
	}
	m.WidgetVisible = true
	evs := []events.Event{o.messageEvent(events.TypeMessageUpdated, m)}
	o.mu.Unlock()
	o.emit(evs...)
}

// beginThinkingLocked starts the line-by-line thinking reveal.
func (o *Orchestrator) beginThinkingLocked(msgID string, onComplete stageFunc) {
	m := o.messageLocked(msgID)
	if m == nil || m.Thinking == nil || m.Reveal != model.RevealNotStarted {
		return
	}
	m.Reveal = model.RevealRunning

	o.scheduler.AfterFunc(msgID, o.timings.ThinkingFirst, func() {
		o.revealThinkingLine(msgID, onComplete)
	})
}

func (o *Orchestrator) revealThinkingLine(msgID string, onComplete stageFunc) {
	o.mu.Lock()
	m := o.messageLocked(msgID)
	if m == nil || m.Thinking == nil || m.Reveal != model.RevealRunning {
		o.mu.Unlock()
		return
	}

	if m.Thinking.Revealed < len(m.Thinking.Lines) {
		m.Thinking.Revealed++
	}

	var evs []events.Event
	if m.Thinking.Revealed < len(m.Thinking.Lines) {
		o.scheduler.AfterFunc(msgID, o.timings.ThinkingStep, func() {
			o.revealThinkingLine(msgID, onComplete)
		})
		evs = append(evs, o.messageEvent(events.TypeMessageUpdated, m))
	} else {
		m.Reveal = model.RevealComplete

		total := o.timings.ThinkingFirst +
			o.timings.ThinkingStep*time.Duration(len(m.Thinking.Lines)-1)
		metrics.RevealDuration.WithLabelValues("thinking").Observe(total.Seconds())

		evs = append(evs, o.messageEvent(events.TypeMessageUpdated, m))
		if onComplete != nil {
			evs = append(evs, onComplete()...)
		}
	}
	o.mu.Unlock()
	o.emit(evs...)
}

// pauseFromLocked freezes every message from index idx onward: pending
// timers are cancelled synchronously and running reveals flip to paused,
// keeping whatever they already revealed. Returns update events.
func (o *Orchestrator) pauseFromLocked(idx int, cause string) []events.Event {
	var evs []events.Event
	cancelled := 0
	for i := idx; i < len(o.msgs); i++ {
		m := o.msgs[i]
		cancelled += o.scheduler.CancelOwner(m.ID)
		if m.Reveal == model.RevealRunning {
			m.Reveal = model.RevealPaused
			evs = append(evs, o.messageEvent(events.TypeMessageUpdated, m))
		}
	}
	if cancelled > 0 {
		metrics.TimersCancelled.WithLabelValues(cause).Add(float64(cancelled))
	}
	return evs
}
