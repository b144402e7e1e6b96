// Package transport delivers battle-state snapshots from the external
// simulator and carries the engine's chosen actions back. The Showdown
// implementation speaks the sim's websocket protocol; the Transport
// interface keeps the session testable with in-memory fakes.
package transport

import (
	"context"
	"errors"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

// ErrDisconnected means the transport connection was lost. The
// execution monitor treats it as battle-fatal.
var ErrDisconnected = errors.New("transport disconnected")

// Turn is one delivery from the simulator: either a decision point
// (Snapshot set) or the end of the battle (Finished set). Events holds
// the confirmed resolutions observed since the previous delivery; the
// session applies them to memory before deciding.
type Turn struct {
	Snapshot *battle.Snapshot
	Events   []battle.Event

	Finished bool
	// Won is meaningful only when Finished is set.
	Won bool
}

// Transport is the battle I/O boundary consumed by the session.
type Transport interface {
	// NextTurn blocks until the next decision point or battle end.
	// Returns ErrDisconnected when the connection is lost.
	NextTurn(ctx context.Context) (*Turn, error)
	// Send submits the chosen action for the current turn.
	Send(action battle.CandidateAction) error
	// SendDefault asks the simulator for its default order, used when
	// no legal candidate exists (e.g. only Struggle remains).
	SendDefault() error
	// Forfeit concedes the battle.
	Forfeit() error
	Close() error
}
