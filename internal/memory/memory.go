// Package memory accumulates confirmed observations about the opponent
// (and the agent's own move outcomes) over the course of a single
// battle. A Memory is owned by exactly one session and is discarded
// when the session ends.
package memory

import (
	"fmt"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

// MoveStats counts outcomes observed for one move.
type MoveStats struct {
	Used      int
	Hit       int
	Missed    int
	Effective int
	Resisted  int
}

// Profile tracks one opposing species seen so far in the battle.
// Profiles are created on first sighting and never deleted mid-battle.
type Profile struct {
	Species       string
	FirstSeenTurn int
	Moves         map[string]*MoveStats
	SwitchIns     int
	LastStatus    battle.Status
}

// Memory is the per-battle observation store. Events are applied in
// turn order; a duplicate delivery of the same turn's event is a no-op.
type Memory struct {
	profiles map[string]*Profile
	// ownMoves tracks the agent's own move outcomes for risk scoring.
	ownMoves map[string]*MoveStats
	// seen guards idempotency: one entry per applied event identity.
	seen     map[string]struct{}
	lastTurn int
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{
		profiles: make(map[string]*Profile),
		ownMoves: make(map[string]*MoveStats),
		seen:     make(map[string]struct{}),
	}
}

func eventKey(ev battle.Event) string {
	return fmt.Sprintf("%d|%s|%t|%s|%s|%s", ev.Turn, ev.Type, ev.Mine, battle.Normalize(ev.Species), battle.Normalize(ev.MoveID), ev.Status)
}

// Observe applies one confirmed turn-resolution event. Events are
// append-only; replaying an already-applied event leaves the memory
// unchanged.
func (m *Memory) Observe(ev battle.Event) {
	key := eventKey(ev)
	if _, dup := m.seen[key]; dup {
		return
	}
	m.seen[key] = struct{}{}
	if ev.Turn > m.lastTurn {
		m.lastTurn = ev.Turn
	}

	if ev.Mine {
		if ev.Type == battle.EventMoveUsed && ev.MoveID != "" {
			m.recordOwnMove(ev)
		}
		return
	}

	p := m.profile(ev.Species, ev.Turn)
	switch ev.Type {
	case battle.EventMoveUsed:
		id := battle.Normalize(ev.MoveID)
		if id == "" {
			return
		}
		st, ok := p.Moves[id]
		if !ok {
			st = &MoveStats{}
			p.Moves[id] = st
		}
		st.Used++
		if ev.Hit {
			st.Hit++
			if ev.Effective {
				st.Effective++
			} else {
				st.Resisted++
			}
		} else {
			st.Missed++
		}
	case battle.EventSwitchIn:
		p.SwitchIns++
	case battle.EventStatusApplied:
		p.LastStatus = ev.Status
	}
}

func (m *Memory) recordOwnMove(ev battle.Event) {
	id := battle.Normalize(ev.MoveID)
	st, ok := m.ownMoves[id]
	if !ok {
		st = &MoveStats{}
		m.ownMoves[id] = st
	}
	st.Used++
	if ev.Hit {
		st.Hit++
		if ev.Effective {
			st.Effective++
		} else {
			st.Resisted++
		}
	} else {
		st.Missed++
	}
}

func (m *Memory) profile(species string, turn int) *Profile {
	key := battle.Normalize(species)
	p, ok := m.profiles[key]
	if !ok {
		p = &Profile{
			Species:       species,
			FirstSeenTurn: turn,
			Moves:         make(map[string]*MoveStats),
		}
		m.profiles[key] = p
	}
	return p
}

// LastTurn returns the highest turn number observed so far.
func (m *Memory) LastTurn() int { return m.lastTurn }

// OwnMoveRisk returns how often the agent's own move has been resisted
// or missed, used by the scorer as a risk penalty.
func (m *Memory) OwnMoveRisk(moveID string) (resisted, missed int) {
	if st, ok := m.ownMoves[battle.Normalize(moveID)]; ok {
		return st.Resisted, st.Missed
	}
	return 0, 0
}
