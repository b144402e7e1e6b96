package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

func TestScriptedAdvisor_EchoesTopCandidate(t *testing.T) {
	req := &Request{Candidates: []Candidate{
		{Kind: battle.ActionAttack, Name: "thunderbolt", Score: 12.5},
		{Kind: battle.ActionSwitch, Name: "Snorlax", Score: 2.1},
	}}
	d, err := ScriptedAdvisor{}.Advise(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Kind != battle.ActionAttack || d.Name != "thunderbolt" {
		t.Fatalf("expected top candidate echoed, got %+v", d)
	}

	if _, err := (ScriptedAdvisor{}).Advise(context.Background(), &Request{}); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for empty candidates, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (ScriptedAdvisor{}).Advise(ctx, req); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout on cancelled context, got %v", err)
	}
}

func TestDecisionFromCall(t *testing.T) {
	d, err := decisionFromCall("choose_move", "Thunderbolt", "")
	if err != nil || d.Kind != battle.ActionAttack || d.Name != "Thunderbolt" {
		t.Fatalf("unexpected: %+v, %v", d, err)
	}
	d, err = decisionFromCall("choose_switch", "", "Snorlax")
	if err != nil || d.Kind != battle.ActionSwitch || d.Name != "Snorlax" {
		t.Fatalf("unexpected: %+v, %v", d, err)
	}
	if _, err := decisionFromCall("choose_move", "", ""); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if _, err := decisionFromCall("use_item", "", ""); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for unknown function, got %v", err)
	}
}

func TestExtractFunctionCall(t *testing.T) {
	content := "I recommend attacking.\n```json\n{\"name\": \"choose_move\", \"arguments\": {\"move_name\": \"Ice Beam\"}}\n```"
	d := extractFunctionCall(content)
	if d == nil || d.Kind != battle.ActionAttack || d.Name != "Ice Beam" {
		t.Fatalf("expected extracted move decision, got %+v", d)
	}

	if d := extractFunctionCall("no structured content here"); d != nil {
		t.Fatalf("expected nil for plain prose, got %+v", d)
	}
	if d := extractFunctionCall("```json\n{\"name\": \"use_item\", \"arguments\": {\"move_name\": \"x\"}}\n```"); d != nil {
		t.Fatalf("expected nil for unknown function, got %+v", d)
	}
}

func TestFormatBattleState(t *testing.T) {
	snap := &battle.Snapshot{
		Turn: 4,
		Active: battle.Combatant{
			Species: "Pikachu", Types: []battle.Type{battle.TypeElectric},
			HPFraction: 0.75, Status: battle.StatusParalysis,
		},
		Opponent: battle.Combatant{
			Species: "Gyarados", Types: []battle.Type{battle.TypeWater, battle.TypeFlying}, HPFraction: 1,
		},
		AvailableMoves: []battle.Move{
			{ID: "thunderbolt", Name: "Thunderbolt", Type: battle.TypeElectric, BasePower: 90, Accuracy: 1, PP: 10, MaxPP: 24},
		},
		AvailableSwitches: []battle.Combatant{
			{Species: "Snorlax", Types: []battle.Type{battle.TypeNormal}, HPFraction: 1},
		},
	}
	text := FormatBattleState(snap)
	for _, want := range []string{"Pikachu", "Gyarados", "thunderbolt", "Snorlax"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted state missing %q:\n%s", want, text)
		}
	}
}

func TestUserPrompt_IncludesRankingAndMemory(t *testing.T) {
	req := &Request{
		Turn:       7,
		Phase:      battle.PhaseMid,
		StateText:  "state here",
		MemoryText: "memory here",
		Candidates: []Candidate{
			{Kind: battle.ActionAttack, Name: "thunderbolt", Score: 12.5, Detail: "STAB, super effective"},
			{Kind: battle.ActionSwitch, Name: "Snorlax", Score: 2.1, Detail: "switch matchup"},
		},
	}
	text := userPrompt(req)
	for _, want := range []string{"state here", "memory here", "thunderbolt", "Snorlax"} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
}
