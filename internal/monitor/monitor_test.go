package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/schoemantian/pokemon-agent/internal/oracle"
)

func testPolicy() Policy {
	return Policy{
		TurnDeadline:     50 * time.Millisecond,
		BattleDeadline:   200 * time.Millisecond,
		OracleMaxRetries: 2,
		RetryBackoff:     time.Millisecond,
		StallFactor:      3.0,
	}
}

func TestTurnBudget_ClampedToBattleBudget(t *testing.T) {
	p := testPolicy()
	p.TurnDeadline = time.Hour
	m := New(p, nil)
	m.StartBattle()

	budget, err := m.TurnBudget()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if budget > p.BattleDeadline {
		t.Fatalf("turn budget %v must not exceed battle budget %v", budget, p.BattleDeadline)
	}
}

func TestTurnBudget_ExhaustedBattle(t *testing.T) {
	p := testPolicy()
	p.BattleDeadline = time.Millisecond
	m := New(p, nil)
	m.StartBattle()
	time.Sleep(5 * time.Millisecond)

	if _, err := m.TurnBudget(); !errors.Is(err, ErrBattleTimeoutExceeded) {
		t.Fatalf("expected ErrBattleTimeoutExceeded, got %v", err)
	}
	if _, _, err := m.TurnContext(context.Background()); !errors.Is(err, ErrBattleTimeoutExceeded) {
		t.Fatalf("expected ErrBattleTimeoutExceeded from TurnContext, got %v", err)
	}
}

func TestCountersAndEvents(t *testing.T) {
	var events []Event
	m := New(testPolicy(), func(ev Event) { events = append(events, ev) })
	m.StartBattle()

	m.RecordStall(3, "slow turn")
	m.RecordStall(4, "slow turn")
	m.RecordFallback(4, "oracle failed")
	m.RecordForfeit(5, "budget exhausted")

	if m.Stalls() != 2 {
		t.Fatalf("expected 2 stalls, got %d", m.Stalls())
	}
	if m.Fallbacks() != 1 {
		t.Fatalf("expected 1 fallback, got %d", m.Fallbacks())
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 emitted events, got %d", len(events))
	}
	if events[0].Type != EventStall || events[2].Type != EventFallback || events[3].Type != EventForfeit {
		t.Fatalf("unexpected event order: %v", events)
	}
}

func TestWatchStalls_MarksDegraded(t *testing.T) {
	p := testPolicy()
	p.TurnDeadline = 5 * time.Millisecond
	p.StallFactor = 2.0

	got := make(chan Event, 1)
	m := New(p, func(ev Event) {
		if ev.Type == EventDegraded {
			select {
			case got <- ev:
			default:
			}
		}
	})
	m.StartBattle()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.WatchStalls(ctx)

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("expected degraded event after transport inactivity")
	}
	if !m.Degraded() {
		t.Fatal("monitor must report degraded")
	}
}

// flakyAdvisor fails transiently a fixed number of times before
// answering.
type flakyAdvisor struct {
	failures int
	calls    int
	err      error
}

func (f *flakyAdvisor) Advise(ctx context.Context, req *oracle.Request) (*oracle.Decision, error) {
	f.calls++
	if f.calls <= f.failures {
		if f.err != nil {
			return nil, f.err
		}
		return nil, oracle.ErrUnavailable
	}
	return &oracle.Decision{Name: "thunderbolt"}, nil
}

func (f *flakyAdvisor) Name() string { return "flaky" }

func TestWrapAdvisor_RetriesTransientFailures(t *testing.T) {
	m := New(testPolicy(), nil)
	inner := &flakyAdvisor{failures: 2}
	adv := m.WrapAdvisor(inner)

	d, err := adv.Advise(context.Background(), &oracle.Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "thunderbolt" {
		t.Fatalf("unexpected decision: %+v", d)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestWrapAdvisor_RetryBoundExhausted(t *testing.T) {
	m := New(testPolicy(), nil)
	inner := &flakyAdvisor{failures: 10}
	if _, err := m.WrapAdvisor(inner).Advise(context.Background(), &oracle.Request{}); !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after retry bound, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected retries+1 = 3 attempts, got %d", inner.calls)
	}
}

func TestWrapAdvisor_NonTransientNotRetried(t *testing.T) {
	m := New(testPolicy(), nil)
	inner := &flakyAdvisor{failures: 10, err: oracle.ErrInvalidResponse}
	if _, err := m.WrapAdvisor(inner).Advise(context.Background(), &oracle.Request{}); !errors.Is(err, oracle.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("malformed responses must not be retried, got %d attempts", inner.calls)
	}
}

func TestWrapAdvisor_ContextExpiryIsTimeout(t *testing.T) {
	m := New(testPolicy(), nil)
	inner := &flakyAdvisor{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.WrapAdvisor(inner).Advise(ctx, &oracle.Request{}); !errors.Is(err, oracle.ErrTimeout) {
		t.Fatalf("expected ErrTimeout on cancelled context, got %v", err)
	}
}
