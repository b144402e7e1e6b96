// Package session runs one battle end to end: it wires the transport,
// decision engine, opponent memory and execution monitor together and
// guarantees the battle concludes with a definite outcome. Sessions are
// mutually independent; nothing mutable is shared across them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/engine"
	"github.com/schoemantian/pokemon-agent/internal/logging"
	"github.com/schoemantian/pokemon-agent/internal/memory"
	"github.com/schoemantian/pokemon-agent/internal/monitor"
	"github.com/schoemantian/pokemon-agent/internal/oracle"
	"github.com/schoemantian/pokemon-agent/internal/storage"
	"github.com/schoemantian/pokemon-agent/internal/transport"
)

// Outcome is the definite result a session always concludes with.
type Outcome string

const (
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
	OutcomeForfeit Outcome = "forfeit"
)

// Result summarizes a finished session.
type Result struct {
	Outcome   Outcome       `json:"outcome"`
	Turns     int           `json:"turns"`
	Stalls    int           `json:"stalls"`
	Fallbacks int           `json:"fallbacks"`
	Degraded  bool          `json:"degraded"`
	Duration  time.Duration `json:"duration"`
}

// Session drives one battle. Construct with New, run with Run.
type Session struct {
	id         string
	format     string
	oracleName string

	tr      transport.Transport
	eng     *engine.Engine
	advisor oracle.Advisor
	mon     *monitor.Monitor
	mem     *memory.Memory
	repo    storage.Repository
	bus     *eventBus

	mu     sync.Mutex
	result *Result
	turns  int
}

// New assembles a session. repo may be nil when results should not be
// persisted. The advisor is wrapped with the monitor's bounded retry.
func New(id, format string, tr transport.Transport, eng *engine.Engine, advisor oracle.Advisor, mon *monitor.Monitor, repo storage.Repository, bus *eventBus) *Session {
	return &Session{
		id:         id,
		format:     format,
		oracleName: advisor.Name(),
		tr:         tr,
		eng:        eng,
		advisor:    mon.WrapAdvisor(advisor),
		mon:        mon,
		mem:        memory.New(),
		repo:       repo,
		bus:        bus,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Result returns the final result, or nil while the battle runs.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Monitor exposes the session's execution monitor (read-only use).
func (s *Session) Monitor() *monitor.Monitor { return s.mon }

// Subscribe attaches a diagnostics listener. The returned func detaches
// it.
func (s *Session) Subscribe() (<-chan monitor.Event, func()) {
	return s.bus.subscribe()
}

// Run executes the battle until it concludes. The returned error is
// non-nil only for caller-context cancellation; every battle-internal
// failure still produces a definite Result.
func (s *Session) Run(ctx context.Context) error {
	s.mon.StartBattle()
	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go s.mon.WatchStalls(watchCtx)
	defer s.bus.close()

	for {
		if _, err := s.mon.TurnBudget(); err != nil {
			return s.forfeit(ctx, "battle budget exhausted")
		}

		turn, err := s.nextTurn(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.conclude(OutcomeForfeit, "caller cancelled")
				return ctx.Err()
			}
			if errors.Is(err, monitor.ErrBattleTimeoutExceeded) {
				return s.forfeit(ctx, "battle budget exhausted")
			}
			// Transport loss is battle-fatal.
			logging.Error("transport failed", err, logging.Fields{constants.LogFieldBattleID: s.id})
			s.conclude(OutcomeForfeit, "transport disconnected")
			return nil
		}
		s.mon.Touch()

		for _, ev := range turn.Events {
			s.mem.Observe(ev)
		}

		if turn.Finished {
			if turn.Won {
				s.conclude(OutcomeWin, "battle won")
			} else {
				s.conclude(OutcomeLoss, "battle lost")
			}
			return nil
		}

		s.mu.Lock()
		s.turns = turn.Snapshot.Turn
		s.mu.Unlock()

		if err := s.decideAndSend(ctx, turn.Snapshot); err != nil {
			if errors.Is(err, monitor.ErrBattleTimeoutExceeded) {
				return s.forfeit(ctx, "battle budget exhausted")
			}
			logging.Error("failed to submit action", err, logging.Fields{
				constants.LogFieldBattleID: s.id,
				constants.LogFieldTurn:     turn.Snapshot.Turn,
			})
			s.conclude(OutcomeForfeit, "transport disconnected")
			return nil
		}
	}
}

// nextTurn waits for the next delivery, bounded by the remaining battle
// budget so a silent transport cannot outlive the battle clock.
func (s *Session) nextTurn(ctx context.Context) (*transport.Turn, error) {
	remaining := s.mon.Remaining()
	if remaining <= 0 {
		return nil, monitor.ErrBattleTimeoutExceeded
	}
	waitCtx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()
	turn, err := s.tr.NextTurn(waitCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, monitor.ErrBattleTimeoutExceeded
	}
	return turn, err
}

func (s *Session) decideAndSend(ctx context.Context, snap *battle.Snapshot) error {
	tctx, cancel, err := s.mon.TurnContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	dec, derr := s.eng.Decide(tctx, snap, s.mem, s.advisor)

	// Turn-clock expiry during the decision is a stall: the engine has
	// already degraded to the deterministic fallback by then.
	if tctx.Err() != nil && ctx.Err() == nil {
		s.mon.RecordStall(snap.Turn, "turn deadline expired during decision")
	}

	if derr != nil {
		if errors.Is(derr, engine.ErrNoCandidates) {
			logging.Warn("no legal candidates; requesting default order", logging.Fields{
				constants.LogFieldBattleID: s.id,
				constants.LogFieldTurn:     snap.Turn,
			})
			return s.tr.SendDefault()
		}
		// Defensive invariant violation: fall back to the simulator's
		// default order rather than emit an illegal action.
		logging.Error("decision rejected", derr, logging.Fields{constants.LogFieldBattleID: s.id})
		return s.tr.SendDefault()
	}

	if dec.UsedFallback {
		s.mon.RecordFallback(snap.Turn, dec.Rationale)
	}
	logging.Debug("turn resolved", logging.Fields{
		constants.LogFieldBattleID: s.id,
		constants.LogFieldTurn:     snap.Turn,
		"action":                   dec.Action.Describe(),
		"fast_path":                dec.FastPath,
		"fallback":                 dec.UsedFallback,
	})
	return s.tr.Send(dec.Action)
}

// forfeit concedes the battle and concludes the session.
func (s *Session) forfeit(ctx context.Context, reason string) error {
	s.mon.RecordForfeit(s.turnCount(), reason)
	if err := s.tr.Forfeit(); err != nil {
		logging.Warn("forfeit command failed", logging.Fields{
			constants.LogFieldBattleID: s.id, "reason": err.Error(),
		})
	}
	s.conclude(OutcomeForfeit, reason)
	return nil
}

func (s *Session) turnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

func (s *Session) conclude(outcome Outcome, reason string) {
	s.mu.Lock()
	if s.result != nil {
		s.mu.Unlock()
		return
	}
	res := &Result{
		Outcome:   outcome,
		Turns:     s.turns,
		Stalls:    s.mon.Stalls(),
		Fallbacks: s.mon.Fallbacks(),
		Degraded:  s.mon.Degraded(),
		Duration:  s.mon.Elapsed(),
	}
	s.result = res
	s.mu.Unlock()

	_ = s.tr.Close()
	logging.Info("battle concluded", logging.Fields{
		constants.LogFieldBattleID: s.id,
		"outcome":                  string(outcome),
		"reason":                   reason,
		"turns":                    res.Turns,
		"stalls":                   res.Stalls,
		"fallbacks":                res.Fallbacks,
	})

	if s.repo != nil {
		err := s.repo.SaveResult(&storage.BattleRecord{
			BattleTag:  s.id,
			Format:     s.format,
			Oracle:     s.oracleName,
			Outcome:    string(outcome),
			Turns:      res.Turns,
			Stalls:     res.Stalls,
			Fallbacks:  res.Fallbacks,
			Degraded:   res.Degraded,
			DurationMS: res.Duration.Milliseconds(),
		})
		if err != nil {
			logging.Error("failed to persist battle result", err, logging.Fields{constants.LogFieldBattleID: s.id})
		}
	}
}
