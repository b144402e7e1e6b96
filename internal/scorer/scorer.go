// Package scorer ranks the legal candidate actions of a turn. Scoring
// is fully deterministic: the same snapshot, memory and weights always
// produce the same ordering, which the decision engine's fast path and
// fallback both rely on.
package scorer

import (
	"sort"
	"strings"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/memory"
	"github.com/schoemantian/pokemon-agent/internal/typechart"
)

// PhaseProfile holds the strategy weights for one battle phase.
type PhaseProfile struct {
	Setup     float64 `yaml:"setup" json:"setup"`
	Offensive float64 `yaml:"offensive" json:"offensive"`
	Defensive float64 `yaml:"defensive" json:"defensive"`
}

// Profiles maps each phase to its weight profile. Phases are a closed
// set, so a missing profile is impossible by construction.
type Profiles struct {
	Early PhaseProfile `yaml:"early" json:"early"`
	Mid   PhaseProfile `yaml:"mid" json:"mid"`
	Late  PhaseProfile `yaml:"late" json:"late"`
}

// For returns the profile for the given phase.
func (p Profiles) For(phase battle.Phase) PhaseProfile {
	switch phase {
	case battle.PhaseEarly:
		return p.Early
	case battle.PhaseLate:
		return p.Late
	default:
		return p.Mid
	}
}

// Weights are the tunable scoring constants. They are configuration
// inputs, not hardcoded: sessions may run with different weights
// concurrently.
type Weights struct {
	TypeAdvantage float64  `yaml:"type_advantage" json:"type_advantage"`
	STABFactor    float64  `yaml:"stab_factor" json:"stab_factor"`
	RiskWeight    float64  `yaml:"risk_weight" json:"risk_weight"`
	DamageScale   float64  `yaml:"damage_scale" json:"damage_scale"`
	SwitchMatchup float64  `yaml:"switch_matchup" json:"switch_matchup"`
	SwitchHP      float64  `yaml:"switch_hp" json:"switch_hp"`
	Profiles      Profiles `yaml:"profiles" json:"profiles"`
}

// DefaultWeights mirrors the tuning the agent has been run with.
func DefaultWeights() Weights {
	return Weights{
		TypeAdvantage: 2.0,
		STABFactor:    1.5,
		RiskWeight:    0.5,
		DamageScale:   1.0,
		SwitchMatchup: 0.7,
		SwitchHP:      0.3,
		Profiles: Profiles{
			Early: PhaseProfile{Setup: 1.5, Offensive: 1.0, Defensive: 0.8},
			Mid:   PhaseProfile{Setup: 0.7, Offensive: 1.5, Defensive: 1.0},
			Late:  PhaseProfile{Setup: 0.3, Offensive: 2.0, Defensive: 1.2},
		},
	}
}

// ScoredAction is a candidate with its score and explanation.
type ScoredAction struct {
	battle.CandidateAction
	Score     float64
	Rationale string
}

// Scorer ranks candidates using an immutable weight set.
type Scorer struct {
	w Weights
}

// New returns a Scorer using the given weights.
func New(w Weights) *Scorer { return &Scorer{w: w} }

// Weights returns the scorer's weight set.
func (s *Scorer) Weights() Weights { return s.w }

// assumedBasePower is used when an opponent move's power is unknown.
const assumedBasePower = 80

// maxPowerScore caps the contribution of raw base power so that type
// effectiveness dominates power when STAB is equal.
const maxPowerScore = 3.0

var setupMoveWords = []string{"swordsdance", "nastyplot", "dragondance", "quiverdance", "bulkup", "calmmind", "boost"}
var statusMoveWords = []string{"toxic", "thunderwave", "willowisp", "spore", "hypnosis", "confuseray"}
var hazardMoveWords = []string{"spikes", "toxicspikes", "stealthrock", "stickyweb"}
var recoveryMoveWords = []string{"recover", "roost", "softboiled", "synthesis", "moonlight", "wish", "protect", "substitute"}

func containsAny(id string, words []string) bool {
	for _, w := range words {
		if strings.Contains(id, w) {
			return true
		}
	}
	return false
}

// Rank scores every candidate and returns them in descending order.
// Ties are broken by higher base power, then by the opponent's weaker
// best response, then by stable original ordering.
func (s *Scorer) Rank(snap *battle.Snapshot, phase battle.Phase, mem *memory.Memory) []ScoredAction {
	profile := s.w.Profiles.For(phase)
	candidates := snap.Candidates()
	out := make([]ScoredAction, 0, len(candidates))

	for _, c := range candidates {
		switch c.Kind {
		case battle.ActionAttack:
			out = append(out, s.scoreAttack(c, snap, phase, profile, mem))
		case battle.ActionSwitch:
			out = append(out, s.scoreSwitch(c, snap))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].BasePower != out[j].BasePower {
			return out[i].BasePower > out[j].BasePower
		}
		ri := s.bestResponseAgainst(snap, out[i])
		rj := s.bestResponseAgainst(snap, out[j])
		return ri < rj
	})
	return out
}

func (s *Scorer) scoreAttack(c battle.CandidateAction, snap *battle.Snapshot, phase battle.Phase, profile PhaseProfile, mem *memory.Memory) ScoredAction {
	move := c.Move
	eff := typechart.Multiplier(move.Type, snap.Opponent.Types...)
	c.Multiplier = eff

	var reasons []string
	score := 0.0

	if move.Category == battle.CategoryStatus {
		id := battle.Normalize(move.ID)
		switch {
		case containsAny(id, setupMoveWords):
			score += 2.0 * profile.Setup
			reasons = append(reasons, "stat boosting move")
		case containsAny(id, hazardMoveWords):
			if phase == battle.PhaseEarly {
				score += 3.0
			} else {
				score += 1.0
			}
			reasons = append(reasons, "entry hazard move")
		case containsAny(id, statusMoveWords):
			score += 1.5 * profile.Defensive
			reasons = append(reasons, "status effect move")
		case containsAny(id, recoveryMoveWords):
			score += (2.0 - snap.Active.HPFraction) * profile.Defensive
			reasons = append(reasons, "support/healing move")
		default:
			score += 1.0
			reasons = append(reasons, "status move")
		}
	} else {
		stab := 1.0
		if snap.Active.HasType(move.Type) {
			stab = s.w.STABFactor
			reasons = append(reasons, "STAB")
		}
		score += eff * stab * s.w.TypeAdvantage

		powerScore := float64(move.BasePower) / 40.0
		if powerScore > maxPowerScore {
			powerScore = maxPowerScore
		}
		score += powerScore

		switch {
		case eff > 1:
			reasons = append(reasons, "super effective")
		case eff == 0:
			reasons = append(reasons, "no effect")
		case eff < 1:
			reasons = append(reasons, "not very effective")
		}

		score *= profile.Offensive
	}

	if mem != nil {
		resisted, missed := mem.OwnMoveRisk(move.ID)
		if penalty := float64(resisted+missed) * s.w.RiskWeight; penalty > 0 {
			score -= penalty
			reasons = append(reasons, "historically risky")
		}
	}
	if move.PP > 0 && move.PP <= 5 {
		score -= 0.3
		reasons = append(reasons, "low PP")
	}

	return ScoredAction{CandidateAction: c, Score: score, Rationale: strings.Join(reasons, ", ")}
}

func (s *Scorer) scoreSwitch(c battle.CandidateAction, snap *battle.Snapshot) ScoredAction {
	target := c.Switch
	outgoing := s.BestOutgoing(target, &snap.Opponent)
	incoming := s.IncomingMultiplier(target, &snap.Opponent)

	matchup := outgoing - incoming
	c.MatchupScore = matchup
	score := matchup*s.w.SwitchMatchup + target.HPFraction*s.w.SwitchHP

	return ScoredAction{CandidateAction: c, Score: score, Rationale: "switch matchup"}
}

// BestOutgoing returns the best effectiveness multiplier the combatant
// can achieve against the defender, across its known damaging moves, or
// its own types when no moves are known.
func (s *Scorer) BestOutgoing(c *battle.Combatant, defender *battle.Combatant) float64 {
	best := 0.0
	found := false
	for i := range c.Moves {
		m := &c.Moves[i]
		if m.Category == battle.CategoryStatus || !m.Usable() {
			continue
		}
		found = true
		if eff := typechart.Multiplier(m.Type, defender.Types...); eff > best {
			best = eff
		}
	}
	if !found {
		for _, t := range c.Types {
			if eff := typechart.Multiplier(t, defender.Types...); eff > best {
				best = eff
			}
		}
	}
	return best
}

// IncomingMultiplier returns the worst-case effectiveness the attacker
// can plausibly achieve against the combatant, across the attacker's
// known moves or, failing that, its own attacking types.
func (s *Scorer) IncomingMultiplier(c *battle.Combatant, attacker *battle.Combatant) float64 {
	worst := 0.0
	found := false
	for i := range attacker.Moves {
		m := &attacker.Moves[i]
		if m.Category == battle.CategoryStatus {
			continue
		}
		found = true
		if eff := typechart.Multiplier(m.Type, c.Types...); eff > worst {
			worst = eff
		}
	}
	if !found {
		for _, t := range attacker.Types {
			if eff := typechart.Multiplier(t, c.Types...); eff > worst {
				worst = eff
			}
		}
	}
	return worst
}

// ExpectedDamageFraction estimates the fraction of the defender's max
// HP a move removes. The estimate is intentionally coarse; the engine
// only uses it for knockout and lethal-risk checks.
func (s *Scorer) ExpectedDamageFraction(move *battle.Move, attacker, defender *battle.Combatant) float64 {
	if move.BasePower <= 0 || move.Category == battle.CategoryStatus {
		return 0
	}
	eff := typechart.Multiplier(move.Type, defender.Types...)
	stab := 1.0
	if attacker.HasType(move.Type) {
		stab = s.w.STABFactor
	}
	return float64(move.BasePower) / 150.0 * eff * stab * s.w.DamageScale
}

// IncomingDamageFraction estimates the strongest single hit the
// attacker can land on the defender this turn. Unknown movesets assume
// a typed move of default power.
func (s *Scorer) IncomingDamageFraction(attacker, defender *battle.Combatant) float64 {
	worst := 0.0
	found := false
	for i := range attacker.Moves {
		m := &attacker.Moves[i]
		if m.Category == battle.CategoryStatus || m.BasePower <= 0 {
			continue
		}
		found = true
		if f := s.ExpectedDamageFraction(m, attacker, defender); f > worst {
			worst = f
		}
	}
	if !found {
		for _, t := range attacker.Types {
			assumed := battle.Move{Type: t, BasePower: assumedBasePower, Category: battle.CategoryPhysical}
			if f := s.ExpectedDamageFraction(&assumed, attacker, defender); f > worst {
				worst = f
			}
		}
	}
	return worst
}

// bestResponseAgainst estimates the opponent's strongest reply to a
// candidate: against our active combatant for attacks, against the
// incoming combatant for switches.
func (s *Scorer) bestResponseAgainst(snap *battle.Snapshot, a ScoredAction) float64 {
	target := &snap.Active
	if a.Kind == battle.ActionSwitch && a.Switch != nil {
		target = a.Switch
	}
	return s.IncomingDamageFraction(&snap.Opponent, target)
}
