package oracle

import (
	"fmt"
	"strings"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

const systemPrompt = "You are a competitive Pokémon battle expert. Your task is to make optimal decisions " +
	"in a Pokémon battle based on the current state. Analyze the types, moves, and status " +
	"of both your active Pokémon and the opponent's. Consider type advantages, remaining HP, " +
	"status conditions, and available moves/switches.\n\n" +
	"You MUST respond using the provided tools. Do not provide explanations or additional text."

// FormatBattleState renders a snapshot as the textual state block of an
// oracle request.
func FormatBattleState(snap *battle.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Your active Pokemon: %s (Type: %s) HP: %.1f%% Status: %s Boosts: %v\n",
		snap.Active.Species, joinTypes(snap.Active.Types),
		snap.Active.HPFraction*100, statusOrNone(snap.Active.Status), snap.Active.Boosts)

	if snap.Opponent.Species != "" {
		fmt.Fprintf(&b, "Opponent's active Pokemon: %s (Type: %s) HP: %.1f%% Status: %s Boosts: %v\n",
			snap.Opponent.Species, joinTypes(snap.Opponent.Types),
			snap.Opponent.HPFraction*100, statusOrNone(snap.Opponent.Status), snap.Opponent.Boosts)
	} else {
		b.WriteString("Opponent's active Pokemon: Unknown\n")
	}

	b.WriteString("\nAvailable moves:\n")
	if len(snap.AvailableMoves) == 0 {
		b.WriteString("- None (Must switch or Struggle)\n")
	}
	for _, m := range snap.AvailableMoves {
		fmt.Fprintf(&b, "- %s (Type: %s, BP: %d, Acc: %.0f%%, PP: %d/%d, Cat: %s)\n",
			m.ID, m.Type, m.BasePower, m.Accuracy*100, m.PP, m.MaxPP, m.Category)
	}

	b.WriteString("\nAvailable switches:\n")
	if len(snap.AvailableSwitches) == 0 {
		b.WriteString("- None\n")
	}
	for _, p := range snap.AvailableSwitches {
		fmt.Fprintf(&b, "- %s (HP: %.1f%%, Status: %s)\n",
			p.Species, p.HPFraction*100, statusOrNone(p.Status))
	}

	if snap.Weather != "" {
		fmt.Fprintf(&b, "\nWeather: %s\n", snap.Weather)
	}
	if len(snap.SideConditions) > 0 {
		fmt.Fprintf(&b, "Your Side Conditions: %s\n", strings.Join(snap.SideConditions, ", "))
	}
	if len(snap.OppConditions) > 0 {
		fmt.Fprintf(&b, "Opponent Side Conditions: %s\n", strings.Join(snap.OppConditions, ", "))
	}
	return strings.TrimSpace(b.String())
}

// userPrompt renders the full request body sent to the model.
func userPrompt(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current battle state (turn %d, %s game):\n%s\n", req.Turn, req.Phase, req.StateText)
	if req.MemoryText != "" {
		b.WriteString("\n" + req.MemoryText)
	}
	if len(req.Candidates) > 0 {
		b.WriteString("\nHeuristic ranking of your options:\n")
		for i, c := range req.Candidates {
			fmt.Fprintf(&b, "%d. [%s] %s (score %.2f) %s\n", i+1, c.Kind, c.Name, c.Score, c.Detail)
		}
	}
	b.WriteString("\nPlease make a decision for this turn.")
	return b.String()
}

func joinTypes(types []battle.Type) string {
	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, "/")
}

func statusOrNone(s battle.Status) string {
	if s == battle.StatusNone {
		return "None"
	}
	return string(s)
}
