// Package monitor bounds every turn and the whole battle in wall-clock
// time. It owns the turn and battle clocks, counts stalls and
// fallbacks, retries oracle calls within the turn budget and surfaces
// diagnostics to the session caller.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBattleTimeoutExceeded terminates the session with a forced
// forfeit once the cumulative battle budget is spent.
var ErrBattleTimeoutExceeded = errors.New("battle timeout exceeded")

// Policy holds the timeout configuration of one battle session.
type Policy struct {
	// TurnDeadline bounds a single decision pipeline run.
	TurnDeadline time.Duration
	// BattleDeadline bounds the cumulative elapsed time of the battle.
	BattleDeadline time.Duration
	// OracleMaxRetries bounds retries of a transiently failing oracle
	// call. Retries never extend the turn deadline.
	OracleMaxRetries int
	// RetryBackoff is the pause between oracle retries.
	RetryBackoff time.Duration
	// StallFactor times TurnDeadline is the transport inactivity window
	// after which the session is marked degraded.
	StallFactor float64
}

// DefaultPolicy mirrors the budgets the agent has been run with.
func DefaultPolicy() Policy {
	return Policy{
		TurnDeadline:     15 * time.Second,
		BattleDeadline:   5 * time.Minute,
		OracleMaxRetries: 2,
		RetryBackoff:     500 * time.Millisecond,
		StallFactor:      3.0,
	}
}

// EventType classifies a diagnostic event.
type EventType string

const (
	EventStall    EventType = "stall"
	EventFallback EventType = "fallback"
	EventDegraded EventType = "degraded"
	EventForfeit  EventType = "forfeit"
)

// Event is one diagnostic surfaced to the session caller.
type Event struct {
	Type    EventType `json:"type"`
	Turn    int       `json:"turn"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Monitor tracks the clocks and counters of a single battle session.
// It is safe for the session goroutine and the stall watchdog to use
// concurrently.
type Monitor struct {
	policy Policy
	emit   func(Event)

	mu           sync.Mutex
	battleStart  time.Time
	started      bool
	stalls       int
	fallbacks    int
	degraded     bool
	lastActivity time.Time
}

// New returns a monitor with the given policy. emit may be nil.
func New(policy Policy, emit func(Event)) *Monitor {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Monitor{policy: policy, emit: emit}
}

// Policy returns the monitor's timeout policy.
func (m *Monitor) Policy() Policy { return m.policy }

// StartBattle starts the cumulative battle clock.
func (m *Monitor) StartBattle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		m.started = true
		now := time.Now()
		m.battleStart = now
		m.lastActivity = now
	}
}

// Elapsed returns time spent since StartBattle.
func (m *Monitor) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return 0
	}
	return time.Since(m.battleStart)
}

// Remaining returns the unused battle budget.
func (m *Monitor) Remaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return m.policy.BattleDeadline
	}
	return m.policy.BattleDeadline - time.Since(m.battleStart)
}

// TurnBudget returns the deadline for the next turn, clamped so that a
// turn never exceeds the remaining battle budget. It returns
// ErrBattleTimeoutExceeded once the battle budget is exhausted.
func (m *Monitor) TurnBudget() (time.Duration, error) {
	remaining := m.Remaining()
	if remaining <= 0 {
		return 0, ErrBattleTimeoutExceeded
	}
	budget := m.policy.TurnDeadline
	if budget > remaining {
		budget = remaining
	}
	return budget, nil
}

// TurnContext derives a context carrying the turn deadline.
func (m *Monitor) TurnContext(parent context.Context) (context.Context, context.CancelFunc, error) {
	budget, err := m.TurnBudget()
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(parent, budget)
	return ctx, cancel, nil
}

// RecordStall notes a turn that hit its deadline before resolving.
func (m *Monitor) RecordStall(turn int, msg string) {
	m.mu.Lock()
	m.stalls++
	m.mu.Unlock()
	m.emit(Event{Type: EventStall, Turn: turn, Message: msg, At: time.Now()})
}

// RecordFallback notes a turn resolved by the deterministic fallback.
func (m *Monitor) RecordFallback(turn int, msg string) {
	m.mu.Lock()
	m.fallbacks++
	m.mu.Unlock()
	m.emit(Event{Type: EventFallback, Turn: turn, Message: msg, At: time.Now()})
}

// RecordForfeit surfaces a forced forfeiture.
func (m *Monitor) RecordForfeit(turn int, msg string) {
	m.emit(Event{Type: EventForfeit, Turn: turn, Message: msg, At: time.Now()})
}

// Stalls returns the stall count so far.
func (m *Monitor) Stalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stalls
}

// Fallbacks returns the fallback count so far.
func (m *Monitor) Fallbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks
}

// Degraded reports whether the session was marked degraded by the
// stall watchdog.
func (m *Monitor) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Touch records transport activity for stall detection.
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
}

// WatchStalls periodically checks for transport inactivity and marks
// the session degraded when no snapshot has arrived within StallFactor
// turn deadlines. It does not alter in-turn logic. Blocks until ctx is
// cancelled; run it on its own goroutine.
func (m *Monitor) WatchStalls(ctx context.Context) {
	window := time.Duration(m.policy.StallFactor * float64(m.policy.TurnDeadline))
	if window <= 0 {
		return
	}
	ticker := time.NewTicker(window / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			idle := time.Since(m.lastActivity)
			already := m.degraded
			if idle > window {
				m.degraded = true
			}
			nowDegraded := m.degraded
			m.mu.Unlock()
			if nowDegraded && !already {
				m.emit(Event{Type: EventDegraded, Message: "no transport activity within stall window", At: time.Now()})
			}
		}
	}
}
