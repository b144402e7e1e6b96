package memory

import (
	"strings"
	"testing"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

func TestObserve_ReplayIsIdempotent(t *testing.T) {
	m := New()
	ev := battle.Event{
		Turn: 3, Type: battle.EventMoveUsed,
		Species: "Garchomp", MoveID: "earthquake", Hit: true, Effective: true,
	}

	m.Observe(ev)
	m.Observe(ev)
	m.Observe(ev)

	sum := m.Summarize()
	if len(sum.Species) != 1 {
		t.Fatalf("expected one profiled species, got %d", len(sum.Species))
	}
	if sum.Species[0].MostUsedMove != "earthquake" {
		t.Fatalf("expected earthquake as most used move, got %q", sum.Species[0].MostUsedMove)
	}
	// A duplicate delivery must not inflate usage counts: two distinct
	// uses on later turns should dominate the replayed single use.
	m.Observe(battle.Event{Turn: 4, Type: battle.EventMoveUsed, Species: "Garchomp", MoveID: "outrage", Hit: true, Effective: true})
	m.Observe(battle.Event{Turn: 5, Type: battle.EventMoveUsed, Species: "Garchomp", MoveID: "outrage", Hit: true, Effective: true})
	if got := m.Summarize().Species[0].MostUsedMove; got != "outrage" {
		t.Fatalf("expected outrage (2 uses) over earthquake (1 use), got %q", got)
	}
}

func TestObserve_OwnMoveRisk(t *testing.T) {
	m := New()
	m.Observe(battle.Event{Turn: 1, Type: battle.EventMoveUsed, Mine: true, Species: "Pikachu", MoveID: "Thunderbolt", Hit: true, Effective: false})
	m.Observe(battle.Event{Turn: 2, Type: battle.EventMoveUsed, Mine: true, Species: "Pikachu", MoveID: "Thunderbolt", Hit: false})

	resisted, missed := m.OwnMoveRisk("thunderbolt")
	if resisted != 1 || missed != 1 {
		t.Fatalf("expected (1 resisted, 1 missed), got (%d, %d)", resisted, missed)
	}
	// Own events never create opponent profiles.
	if len(m.Summarize().Species) != 0 {
		t.Fatal("own events must not create opponent profiles")
	}
}

func TestObserve_StatusAndSwitches(t *testing.T) {
	m := New()
	m.Observe(battle.Event{Turn: 1, Type: battle.EventSwitchIn, Species: "Toxapex"})
	m.Observe(battle.Event{Turn: 2, Type: battle.EventSwitchIn, Species: "Toxapex"})
	m.Observe(battle.Event{Turn: 3, Type: battle.EventStatusApplied, Species: "Toxapex", Status: battle.StatusBurn})

	sum := m.Summarize()
	if len(sum.Species) != 1 {
		t.Fatalf("expected one profile, got %d", len(sum.Species))
	}
	if sum.Species[0].LastStatus != string(battle.StatusBurn) {
		t.Fatalf("expected burn status, got %q", sum.Species[0].LastStatus)
	}
	if sum.Species[0].SwitchRate < 0.66 || sum.Species[0].SwitchRate > 0.67 {
		t.Fatalf("expected switch rate 2/3, got %v", sum.Species[0].SwitchRate)
	}
	if m.LastTurn() != 3 {
		t.Fatalf("expected last turn 3, got %d", m.LastTurn())
	}
}

func TestSummarize_DeterministicOrderAndFormat(t *testing.T) {
	m := New()
	m.Observe(battle.Event{Turn: 1, Type: battle.EventMoveUsed, Species: "Zapdos", MoveID: "voltswitch", Hit: true, Effective: true})
	m.Observe(battle.Event{Turn: 2, Type: battle.EventMoveUsed, Species: "Articuno", MoveID: "icebeam", Hit: true, Effective: true})

	first := m.Summarize()
	for i := 0; i < 5; i++ {
		again := m.Summarize()
		for j := range first.Species {
			if first.Species[j].Species != again.Species[j].Species {
				t.Fatalf("summary order changed between calls: %v vs %v", first.Species, again.Species)
			}
		}
	}

	text := first.Format()
	if !strings.Contains(text, "Zapdos") || !strings.Contains(text, "Articuno") {
		t.Fatalf("formatted summary missing species: %q", text)
	}
	if empty := New().Summarize().Format(); empty != "" {
		t.Fatalf("empty memory must format to empty string, got %q", empty)
	}
}
