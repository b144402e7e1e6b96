package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/engine"
	"github.com/schoemantian/pokemon-agent/internal/monitor"
	"github.com/schoemantian/pokemon-agent/internal/oracle"
	"github.com/schoemantian/pokemon-agent/internal/scorer"
	"github.com/schoemantian/pokemon-agent/internal/storage"
	"github.com/schoemantian/pokemon-agent/internal/transport"
)

// fakeTransport serves a scripted sequence of turns.
type fakeTransport struct {
	mu        sync.Mutex
	turns     []*transport.Turn
	sent      []battle.CandidateAction
	defaults  int
	forfeited bool
	closed    bool
	// block makes NextTurn hang once the script is exhausted.
	block bool
}

func (f *fakeTransport) NextTurn(ctx context.Context) (*transport.Turn, error) {
	f.mu.Lock()
	if len(f.turns) > 0 {
		turn := f.turns[0]
		f.turns = f.turns[1:]
		f.mu.Unlock()
		return turn, nil
	}
	block := f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, transport.ErrDisconnected
}

func (f *fakeTransport) Send(action battle.CandidateAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, action)
	return nil
}

func (f *fakeTransport) SendDefault() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.defaults++
	return nil
}

func (f *fakeTransport) Forfeit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forfeited = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeRepo collects saved battle records.
type fakeRepo struct {
	mu    sync.Mutex
	saved []*storage.BattleRecord
}

func (r *fakeRepo) SaveResult(rec *storage.BattleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, rec)
	return nil
}

func (r *fakeRepo) ListResults(limit int) ([]storage.BattleRecord, error) { return nil, nil }
func (r *fakeRepo) Stats() (*storage.AgentStats, error)                  { return &storage.AgentStats{}, nil }

// slowAdvisor blocks until the turn deadline cancels it.
type slowAdvisor struct{}

func (slowAdvisor) Advise(ctx context.Context, req *oracle.Request) (*oracle.Decision, error) {
	<-ctx.Done()
	return nil, oracle.ErrTimeout
}

func (slowAdvisor) Name() string { return "slow" }

func decisionSnapshot(turn int) *battle.Snapshot {
	return &battle.Snapshot{
		BattleTag: "battle-test-1",
		Turn:      turn,
		Active:    battle.Combatant{Species: "Pikachu", Types: []battle.Type{battle.TypeElectric}, HPFraction: 1},
		Opponent:  battle.Combatant{Species: "Gyarados", Types: []battle.Type{battle.TypeWater, battle.TypeFlying}, HPFraction: 0.4},
		AvailableMoves: []battle.Move{
			{ID: "thunderbolt", Type: battle.TypeElectric, Category: battle.CategorySpecial, BasePower: 90, Accuracy: 1, PP: 10},
		},
	}
}

func testPolicy() monitor.Policy {
	return monitor.Policy{
		TurnDeadline:     100 * time.Millisecond,
		BattleDeadline:   5 * time.Second,
		OracleMaxRetries: 0,
		RetryBackoff:     time.Millisecond,
		StallFactor:      100,
	}
}

func newTestSession(tr transport.Transport, advisor oracle.Advisor, repo storage.Repository, policy monitor.Policy) *Session {
	bus := NewEventBus()
	mon := monitor.New(policy, bus.Emit)
	eng := engine.New(scorer.New(scorer.DefaultWeights()), engine.DefaultConfig())
	return New("battle-test-1", "gen9randombattle", tr, eng, advisor, mon, repo, bus)
}

func TestRun_WinConcludesAndPersists(t *testing.T) {
	tr := &fakeTransport{turns: []*transport.Turn{
		{Snapshot: decisionSnapshot(1)},
		{Finished: true, Won: true},
	}}
	repo := &fakeRepo{}
	s := newTestSession(tr, oracle.ScriptedAdvisor{}, repo, testPolicy())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := s.Result()
	if res == nil || res.Outcome != OutcomeWin {
		t.Fatalf("expected win result, got %+v", res)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("expected one submitted action, got %d", len(tr.sent))
	}
	if !tr.closed {
		t.Fatal("transport must be closed after conclusion")
	}
	if len(repo.saved) != 1 || repo.saved[0].Outcome != string(OutcomeWin) {
		t.Fatalf("expected persisted win record, got %+v", repo.saved)
	}
}

func TestRun_LossConcludes(t *testing.T) {
	tr := &fakeTransport{turns: []*transport.Turn{
		{Finished: true, Won: false},
	}}
	repo := &fakeRepo{}
	s := newTestSession(tr, oracle.ScriptedAdvisor{}, repo, testPolicy())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res := s.Result(); res == nil || res.Outcome != OutcomeLoss {
		t.Fatalf("expected loss result, got %+v", res)
	}
}

func TestRun_BattleBudgetExhaustedForfeits(t *testing.T) {
	policy := testPolicy()
	policy.BattleDeadline = 50 * time.Millisecond

	tr := &fakeTransport{block: true}
	repo := &fakeRepo{}
	s := newTestSession(tr, oracle.ScriptedAdvisor{}, repo, policy)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := s.Result()
	if res == nil || res.Outcome != OutcomeForfeit {
		t.Fatalf("expected forfeit result, got %+v", res)
	}
	if !tr.forfeited {
		t.Fatal("expected forfeit command on the transport")
	}
	if len(repo.saved) != 1 || repo.saved[0].Outcome != string(OutcomeForfeit) {
		t.Fatalf("expected persisted forfeit record, got %+v", repo.saved)
	}
}

func TestRun_SlowOracleStallsButBattleContinues(t *testing.T) {
	policy := testPolicy()
	policy.TurnDeadline = 20 * time.Millisecond

	// A snapshot without a guaranteed knockout forces the oracle path.
	snap := decisionSnapshot(1)
	snap.Opponent.HPFraction = 1
	snap.AvailableMoves[0].BasePower = 20

	tr := &fakeTransport{turns: []*transport.Turn{
		{Snapshot: snap},
		{Finished: true, Won: true},
	}}
	s := newTestSession(tr, slowAdvisor{}, &fakeRepo{}, policy)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := s.Result()
	if res == nil || res.Outcome != OutcomeWin {
		t.Fatalf("expected win despite slow oracle, got %+v", res)
	}
	if res.Stalls != 1 {
		t.Fatalf("expected one recorded stall, got %d", res.Stalls)
	}
	if res.Fallbacks != 1 {
		t.Fatalf("expected one recorded fallback, got %d", res.Fallbacks)
	}
	// The deterministic fallback still produced a legal action.
	if len(tr.sent) != 1 || tr.sent[0].Key() != "thunderbolt" {
		t.Fatalf("expected fallback thunderbolt, got %v", tr.sent)
	}
}

func TestRun_TransportLossConcludesForfeit(t *testing.T) {
	tr := &fakeTransport{} // empty script, not blocking: next call disconnects
	s := newTestSession(tr, oracle.ScriptedAdvisor{}, &fakeRepo{}, testPolicy())

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("transport loss must not surface as a run error, got %v", err)
	}
	if res := s.Result(); res == nil || res.Outcome != OutcomeForfeit {
		t.Fatalf("expected forfeit on transport loss, got %+v", res)
	}
}

func TestSubscribe_ReceivesDiagnostics(t *testing.T) {
	policy := testPolicy()
	policy.TurnDeadline = 20 * time.Millisecond

	snap := decisionSnapshot(1)
	snap.Opponent.HPFraction = 1
	snap.AvailableMoves[0].BasePower = 20

	tr := &fakeTransport{turns: []*transport.Turn{
		{Snapshot: snap},
		{Finished: true, Won: false},
	}}
	s := newTestSession(tr, slowAdvisor{}, &fakeRepo{}, policy)

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	var got []monitor.Event
	go func() {
		for ev := range events {
			got = append(got, ev)
		}
		close(done)
	}()

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-done

	var sawStall, sawFallback bool
	for _, ev := range got {
		switch ev.Type {
		case monitor.EventStall:
			sawStall = true
		case monitor.EventFallback:
			sawFallback = true
		}
	}
	if !sawStall || !sawFallback {
		t.Fatalf("expected stall and fallback diagnostics, got %v", got)
	}
}
