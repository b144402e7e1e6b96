package session

import (
	"context"
	"testing"

	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/engine"
	"github.com/schoemantian/pokemon-agent/internal/scorer"
	"github.com/schoemantian/pokemon-agent/internal/transport"
)

func testManager(factory TransportFactory) *Manager {
	return NewManager(context.Background(), &fakeRepo{}, factory, Defaults{
		Format:  "gen9randombattle",
		Oracle:  constants.OracleScripted,
		Weights: scorer.DefaultWeights(),
		Engine:  engine.DefaultConfig(),
	})
}

func TestManagerStart_ZeroPolicyFallsBackToDefaults(t *testing.T) {
	factory := func(format string, onActivity func()) (transport.Transport, error) {
		return &fakeTransport{turns: []*transport.Turn{
			{Snapshot: decisionSnapshot(1)},
			{Finished: true, Won: true},
		}}, nil
	}
	m := testManager(factory)

	s, err := m.Start(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Wait(); err != nil {
		t.Fatalf("session failed: %v", err)
	}

	// An unset policy must not mean a zero battle budget.
	res := s.Result()
	if res == nil || res.Outcome != OutcomeWin {
		t.Fatalf("expected win under default budgets, got %+v", res)
	}
}

func TestManagerStart_RegistersSession(t *testing.T) {
	factory := func(format string, onActivity func()) (transport.Transport, error) {
		return &fakeTransport{turns: []*transport.Turn{{Finished: true, Won: false}}}, nil
	}
	m := testManager(factory)

	s, err := m.Start(Options{Oracle: constants.OracleScripted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := m.Get(s.ID()); !ok || got != s {
		t.Fatalf("expected session registered under %q", s.ID())
	}
	if err := m.Wait(); err != nil {
		t.Fatalf("session failed: %v", err)
	}
}
