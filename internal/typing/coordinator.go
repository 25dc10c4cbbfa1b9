// Package typing coordinates debounced "user is typing" indicators.
package typing

import (
	"sync"
	"time"
)

// Coordinator tracks a per-session typing flag with an idle expiry timer.
// Repeated typing signals within the idle window re-arm the timer without
// announcing again; when the window elapses with no further signal, the
// session is marked not-typing and the stop callback fires.
type Coordinator struct {
	mu     sync.Mutex
	idle   time.Duration
	onStop func(sessionID string)
	states map[string]*state
}

type state struct {
	timer *time.Timer
	gen   uint64
}

// New creates a Coordinator. onStop is invoked, outside the coordinator's
// lock, whenever a session's typing indicator expires on its own.
func New(idle time.Duration, onStop func(sessionID string)) *Coordinator {
	return &Coordinator{
		idle:   idle,
		onStop: onStop,
		states: make(map[string]*state),
	}
}

// Set records a typing signal for a session. It returns true when the call
// transitioned the session's typing flag, meaning peers should be told; a
// re-armed timer or a redundant false reports nothing.
func (c *Coordinator) Set(sessionID string, isTyping bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[sessionID]

	if !isTyping {
		if !ok {
			return false
		}
		st.timer.Stop()
		delete(c.states, sessionID)
		return true
	}

	if ok {
		// Debounce: re-arm without announcing again. The generation guard
		// keeps an already-fired timer from clearing the re-armed state.
		st.timer.Stop()
		st.gen++
		gen := st.gen
		st.timer = time.AfterFunc(c.idle, func() { c.expire(sessionID, gen) })
		return false
	}

	st = &state{}
	gen := st.gen
	st.timer = time.AfterFunc(c.idle, func() { c.expire(sessionID, gen) })
	c.states[sessionID] = st
	return true
}

// IsTyping reports whether a session is currently marked typing.
func (c *Coordinator) IsTyping(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.states[sessionID]
	return ok
}

// Cancel drops any pending timer for a session without firing the stop
// callback. Cancelling an absent, already-fired, or already-cancelled timer
// is a safe no-op.
func (c *Coordinator) Cancel(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.states[sessionID]; ok {
		st.timer.Stop()
		delete(c.states, sessionID)
	}
}

func (c *Coordinator) expire(sessionID string, gen uint64) {
	c.mu.Lock()
	st, ok := c.states[sessionID]
	fired := ok && st.gen == gen
	if fired {
		delete(c.states, sessionID)
	}
	c.mu.Unlock()

	// The callback runs with no locks held so it may freely re-enter the
	// coordinator or take the engine's serialization lock.
	if fired && c.onStop != nil {
		c.onStop(sessionID)
	}
}
