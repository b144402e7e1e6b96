// Package oracle defines the external strategy-advice interface and
// its implementations. The oracle is consulted at most once per turn,
// bounded by the caller's context deadline, and its answers are never
// trusted as legal: the decision engine validates them against the
// current candidate set.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

var (
	// ErrUnavailable marks transient transport or service failures;
	// callers may retry within the turn budget.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrTimeout marks a call cancelled by the turn deadline.
	ErrTimeout = errors.New("oracle timeout")
	// ErrInvalidResponse marks an answer that could not be parsed into
	// a decision at all.
	ErrInvalidResponse = errors.New("oracle invalid response")
)

// Candidate is the oracle-facing view of one legal action.
type Candidate struct {
	Kind   battle.ActionKind
	Name   string
	Score  float64
	Detail string
}

// Request is an immutable snapshot of everything the oracle may see:
// formatted battle state, memory summary, phase and the ranked legal
// candidates.
type Request struct {
	BattleTag  string
	Turn       int
	Phase      battle.Phase
	StateText  string
	MemoryText string
	Candidates []Candidate
}

// Decision is the oracle's answer: the kind and name of the action it
// recommends, plus optional free-form rationale. Name refers to a move
// or species by name; the engine maps it back to a candidate by
// normalized identity.
type Decision struct {
	Kind      battle.ActionKind
	Name      string
	Rationale string
}

// Advisor is the strategy oracle consumed by the decision engine.
type Advisor interface {
	// Advise returns a decision for the request or an error. The call
	// must honor ctx cancellation; a late result is discarded by the
	// caller.
	Advise(ctx context.Context, req *Request) (*Decision, error)
	Name() string
}

// New builds a named advisor. Supported names: "openai" (default) and
// "scripted" (deterministic, offline).
func New(name string) (Advisor, error) {
	switch name {
	case "", "openai":
		return NewOpenAIAdvisor(""), nil
	case "scripted":
		return ScriptedAdvisor{}, nil
	default:
		return nil, fmt.Errorf("unknown oracle %q", name)
	}
}

// ScriptedAdvisor echoes the top-ranked candidate. It is used for
// offline runs and as a test double: battles driven by it exercise the
// whole pipeline without network access.
type ScriptedAdvisor struct{}

func (ScriptedAdvisor) Name() string { return "scripted" }

func (ScriptedAdvisor) Advise(ctx context.Context, req *Request) (*Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrTimeout
	}
	if len(req.Candidates) == 0 {
		return nil, ErrInvalidResponse
	}
	top := req.Candidates[0]
	return &Decision{Kind: top.Kind, Name: top.Name, Rationale: "top-ranked deterministic choice"}, nil
}
