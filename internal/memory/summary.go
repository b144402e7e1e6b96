package memory

import (
	"fmt"
	"sort"
	"strings"
)

// SpeciesSummary is the compact per-species view handed to the scorer
// and the oracle request builder.
type SpeciesSummary struct {
	Species      string
	MostUsedMove string
	ThreatScore  float64
	SwitchRate   float64
	LastStatus   string
}

// Summary is a point-in-time condensation of the memory. It is a value
// type: mutating it does not touch the underlying Memory.
type Summary struct {
	Species []SpeciesSummary
	// TurnsObserved is the number of turns with at least one event.
	TurnsObserved int
}

// Summarize condenses the profiles into a deterministic, stable-ordered
// summary. Threat score weighs how often a species' moves landed
// effectively; switch rate estimates switch-ins per observed turn.
func (m *Memory) Summarize() Summary {
	out := Summary{TurnsObserved: m.lastTurn}
	keys := make([]string, 0, len(m.profiles))
	for k := range m.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := m.profiles[k]
		ss := SpeciesSummary{Species: p.Species, LastStatus: string(p.LastStatus)}

		bestUse := 0
		moveIDs := make([]string, 0, len(p.Moves))
		for id := range p.Moves {
			moveIDs = append(moveIDs, id)
		}
		sort.Strings(moveIDs)
		for _, id := range moveIDs {
			st := p.Moves[id]
			if st.Used > bestUse {
				bestUse = st.Used
				ss.MostUsedMove = id
			}
			ss.ThreatScore += float64(st.Effective)*1.0 + float64(st.Hit)*0.25
		}
		if m.lastTurn > 0 {
			ss.SwitchRate = float64(p.SwitchIns) / float64(m.lastTurn)
		}
		out.Species = append(out.Species, ss)
	}
	return out
}

// Format renders the summary as prose for the oracle prompt. An empty
// memory renders to an empty string so the prompt omits the section.
func (s Summary) Format() string {
	if len(s.Species) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Battle Memory Analysis:\n")
	b.WriteString("Opponent's Team Knowledge:\n")
	for _, sp := range s.Species {
		b.WriteString(fmt.Sprintf("- %s: most used move: %s, threat: %.2f, switch rate: %.2f",
			sp.Species, orUnknown(sp.MostUsedMove), sp.ThreatScore, sp.SwitchRate))
		if sp.LastStatus != "" {
			b.WriteString(", status: " + sp.LastStatus)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
