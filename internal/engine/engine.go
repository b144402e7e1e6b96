// Package engine implements the per-turn decision pipeline as an
// explicit state machine: classify the battle phase and rank the legal
// actions, short-circuit through the fast path when a safe choice is
// evident, otherwise consult the oracle and validate its answer against
// the current candidate set. The engine holds no state across turns; it
// is a pure function of (snapshot, memory, advisor).
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/logging"
	"github.com/schoemantian/pokemon-agent/internal/memory"
	"github.com/schoemantian/pokemon-agent/internal/oracle"
	"github.com/schoemantian/pokemon-agent/internal/scorer"
)

// State names one stage of the per-turn pipeline.
type State string

const (
	StateAwaitingSnapshot State = "awaiting_snapshot"
	StateClassifying      State = "classifying"
	StateFastPath         State = "fast_path"
	StateOracleConsult    State = "oracle_consult"
	StateValidating       State = "validating"
	StateResolved         State = "resolved"
)

var (
	// ErrNoCandidates means no legal action exists this turn; the
	// transport falls back to the simulator's default order.
	ErrNoCandidates = errors.New("no legal candidate actions")
	// ErrIllegalAction is a defensive invariant check before emitting
	// an action. It must never fire if validation is correct.
	ErrIllegalAction = errors.New("illegal action attempted")
)

// Config holds the engine's tunable thresholds.
type Config struct {
	// CriticalHPFraction is the HP fraction below which the active
	// combatant is considered at critical health.
	CriticalHPFraction float64
	// AssumedOpponentTeamSize is used for phase classification while
	// the opponent's team is only partially revealed.
	AssumedOpponentTeamSize int
}

// DefaultConfig mirrors the thresholds the agent has been tuned with.
func DefaultConfig() Config {
	return Config{CriticalHPFraction: 0.25, AssumedOpponentTeamSize: 6}
}

// Decision is the resolved outcome of one turn.
type Decision struct {
	Action    battle.CandidateAction
	Phase     battle.Phase
	Ranked    []scorer.ScoredAction
	Rationale string

	// FastPath is set when a heuristic rule short-circuited the oracle.
	FastPath bool
	// UsedFallback is set when the oracle failed or answered with an
	// action outside the legal set and the top-ranked candidate was
	// substituted.
	UsedFallback bool
	OracleCalls  int
	Trace        []State
}

// Engine decides one turn at a time.
type Engine struct {
	scorer *scorer.Scorer
	cfg    Config
}

// New returns an engine using the given scorer and config.
func New(sc *scorer.Scorer, cfg Config) *Engine {
	if cfg.AssumedOpponentTeamSize <= 0 {
		cfg.AssumedOpponentTeamSize = 6
	}
	return &Engine{scorer: sc, cfg: cfg}
}

// Decide runs the state machine for one snapshot. The context bounds
// the oracle consult; on context expiry or any oracle failure the
// decision degrades to the top-ranked candidate and the turn still
// resolves. Only ErrNoCandidates is returned as an error.
func (e *Engine) Decide(ctx context.Context, snap *battle.Snapshot, mem *memory.Memory, advisor oracle.Advisor) (*Decision, error) {
	d := &Decision{Trace: []State{StateAwaitingSnapshot, StateClassifying}}

	d.Phase = battle.ClassifyPhase(snap.Turn, snap.RemainingOwn(), snap.RemainingOpponent(e.cfg.AssumedOpponentTeamSize))
	d.Ranked = e.scorer.Rank(snap, d.Phase, mem)
	if len(d.Ranked) == 0 {
		return nil, ErrNoCandidates
	}

	if act, reason, ok := e.fastPath(snap, d.Ranked); ok {
		d.Trace = append(d.Trace, StateFastPath, StateResolved)
		d.Action = act
		d.FastPath = true
		d.Rationale = reason
		return e.emit(snap, d)
	}

	d.Trace = append(d.Trace, StateOracleConsult)
	req := e.buildRequest(snap, d, mem)
	d.OracleCalls = 1
	answer, err := advisor.Advise(ctx, req)

	d.Trace = append(d.Trace, StateValidating)
	if err != nil {
		logging.Warn("oracle consult failed; using scored fallback", logging.Fields{
			constants.LogFieldBattleTag: snap.BattleTag,
			constants.LogFieldTurn:      snap.Turn,
			"reason":                    err.Error(),
		})
		d.Action = d.Ranked[0].CandidateAction
		d.UsedFallback = true
		d.Rationale = "oracle failure fallback: " + d.Ranked[0].Rationale
	} else if matched, ok := e.validate(answer, d.Ranked); ok {
		d.Action = matched
		d.Rationale = answer.Rationale
	} else {
		logging.Warn("oracle decision not in legal set; using scored fallback", logging.Fields{
			constants.LogFieldBattleTag: snap.BattleTag,
			constants.LogFieldTurn:      snap.Turn,
			"oracle_kind":               string(answer.Kind),
			"oracle_name":               answer.Name,
		})
		d.Action = d.Ranked[0].CandidateAction
		d.UsedFallback = true
		d.Rationale = "oracle named illegal action: " + d.Ranked[0].Rationale
	}

	d.Trace = append(d.Trace, StateResolved)
	return e.emit(snap, d)
}

// fastPath applies the heuristic rules in fixed priority order.
func (e *Engine) fastPath(snap *battle.Snapshot, ranked []scorer.ScoredAction) (battle.CandidateAction, string, bool) {
	// Rule 1: a safe guaranteed knockout. The attack must be certain to
	// hit, have an effect, and remove at least the defender's remaining
	// HP, while the attacker is not itself facing a guaranteed knockout.
	if !snap.ForceSwitch && snap.Opponent.Species != "" {
		atRisk := e.scorer.IncomingDamageFraction(&snap.Opponent, &snap.Active) >= snap.Active.HPFraction
		if !atRisk {
			for _, sa := range ranked {
				if sa.Kind != battle.ActionAttack || sa.Move == nil {
					continue
				}
				if sa.Accuracy < 1.0 {
					continue
				}
				dmg := e.scorer.ExpectedDamageFraction(sa.Move, &snap.Active, &snap.Opponent)
				if dmg > 0 && dmg >= snap.Opponent.HPFraction {
					return sa.CandidateAction, fmt.Sprintf("guaranteed knockout with %s", sa.Move.ID), true
				}
			}
		}
	}

	// Rule 2: at critical HP, prefer the best switch that is not
	// type-disadvantaged against the opponent's plausible attacks.
	if snap.Active.HPFraction < e.cfg.CriticalHPFraction {
		for _, sa := range ranked {
			if sa.Kind != battle.ActionSwitch || sa.Switch == nil {
				continue
			}
			if e.scorer.IncomingMultiplier(sa.Switch, &snap.Opponent) <= 1.0 {
				return sa.CandidateAction, fmt.Sprintf("critical HP, safe switch to %s", sa.Switch.Species), true
			}
		}
	}

	return battle.CandidateAction{}, "", false
}

func (e *Engine) buildRequest(snap *battle.Snapshot, d *Decision, mem *memory.Memory) *oracle.Request {
	req := &oracle.Request{
		BattleTag: snap.BattleTag,
		Turn:      snap.Turn,
		Phase:     d.Phase,
		StateText: oracle.FormatBattleState(snap),
	}
	if mem != nil {
		req.MemoryText = mem.Summarize().Format()
	}
	for _, sa := range d.Ranked {
		c := oracle.Candidate{Kind: sa.Kind, Score: sa.Score, Detail: sa.Rationale}
		switch sa.Kind {
		case battle.ActionAttack:
			c.Name = sa.Move.ID
		case battle.ActionSwitch:
			c.Name = sa.Switch.Species
		}
		req.Candidates = append(req.Candidates, c)
	}
	return req
}

// validate maps the oracle's answer back into the current legal set by
// normalized identity. Indexes or names echoed by the oracle are never
// trusted directly.
func (e *Engine) validate(answer *oracle.Decision, ranked []scorer.ScoredAction) (battle.CandidateAction, bool) {
	if answer == nil {
		return battle.CandidateAction{}, false
	}
	want := battle.Normalize(answer.Name)
	if want == "" {
		return battle.CandidateAction{}, false
	}
	for _, sa := range ranked {
		if sa.Kind == answer.Kind && sa.Key() == want {
			return sa.CandidateAction, true
		}
	}
	return battle.CandidateAction{}, false
}

// emit performs the final defensive legality check before handing the
// action back to the caller.
func (e *Engine) emit(snap *battle.Snapshot, d *Decision) (*Decision, error) {
	key := d.Action.Key()
	for _, c := range snap.Candidates() {
		if c.Key() == key && c.Kind == d.Action.Kind {
			return d, nil
		}
	}
	logging.Error("resolved action not in legal set", ErrIllegalAction, logging.Fields{
		constants.LogFieldBattleTag: snap.BattleTag,
		constants.LogFieldTurn:      snap.Turn,
		"action":                    d.Action.Describe(),
	})
	return nil, ErrIllegalAction
}
