package bot

import (
	"sync"
	"time"

	"github.com/davidromeor/telegram-agenda-bot/internal/platform/observability"
	"github.com/davidromeor/telegram-agenda-bot/internal/platform/schedule"
)

// Transition is the outcome of observing the clock against the night
// window.
type Transition int

const (
	// TransitionNone means the mode did not change.
	TransitionNone Transition = iota

	// TransitionToNight fires once when the window opens.
	TransitionToNight

	// TransitionToDay fires once when the window closes.
	TransitionToDay
)

type nightState int

const (
	stateDay nightState = iota
	stateNight
)

// NightMode is an explicit two-state machine over the configured window.
// Transitions are observed at defined points (incoming group messages and
// the minute ticker), never through shared mutable flags.
type NightMode struct {
	window schedule.NightWindow

	mu    sync.Mutex
	state nightState
}

// NewNightMode creates the state machine, seeded from the current time so
// a restart inside the window does not re-announce it.
func NewNightMode(window schedule.NightWindow, now time.Time) *NightMode {
	mode := &NightMode{window: window}
	if window.Contains(now) {
		mode.state = stateNight
	}

	return mode
}

// Observe advances the state machine and reports the transition, if any.
func (n *NightMode) Observe(now time.Time) Transition {
	n.mu.Lock()
	defer n.mu.Unlock()

	inside := n.window.Contains(now)

	switch {
	case inside && n.state == stateDay:
		n.state = stateNight
		observability.NightModeTransitions.WithLabelValues("night").Inc()

		return TransitionToNight
	case !inside && n.state == stateNight:
		n.state = stateDay
		observability.NightModeTransitions.WithLabelValues("day").Inc()

		return TransitionToDay
	}

	return TransitionNone
}

// Active reports whether the window currently applies.
func (n *NightMode) Active(now time.Time) bool {
	return n.window.Contains(now)
}

// RestrictedUntil returns when a restriction applied now should expire.
func (n *NightMode) RestrictedUntil(now time.Time) time.Time {
	return n.window.End(now)
}
