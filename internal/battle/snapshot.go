package battle

// Snapshot is the immutable view of the battle delivered by the
// transport at the start of a turn. The engine treats it as read-only.
type Snapshot struct {
	BattleTag string
	Turn      int

	Active   Combatant
	Opponent Combatant

	// Bench holds the deciding side's non-active team members; only
	// non-fainted, non-trapped members appear in AvailableSwitches.
	Bench         []Combatant
	OpponentBench []Combatant

	AvailableMoves    []Move
	AvailableSwitches []Combatant

	// ForceSwitch is set when the simulator demands a switch (the
	// active combatant fainted or was dragged out).
	ForceSwitch bool

	Weather        string
	SideConditions []string
	OppConditions  []string
}

// RemainingOwn counts the deciding side's non-fainted combatants,
// including the active one.
func (s *Snapshot) RemainingOwn() int {
	n := 0
	if !s.Active.Fainted {
		n++
	}
	for i := range s.Bench {
		if !s.Bench[i].Fainted {
			n++
		}
	}
	return n
}

// RemainingOpponent counts the opponent's non-fainted combatants as far
// as they have been revealed. Unrevealed team members count as alive
// through the assumed team size.
func (s *Snapshot) RemainingOpponent(teamSize int) int {
	revealed := 0
	fainted := 0
	if s.Opponent.Species != "" {
		revealed++
		if s.Opponent.Fainted {
			fainted++
		}
	}
	for i := range s.OpponentBench {
		revealed++
		if s.OpponentBench[i].Fainted {
			fainted++
		}
	}
	if revealed < teamSize {
		return teamSize - fainted
	}
	return revealed - fainted
}

// ActionKind tags a candidate action.
type ActionKind string

const (
	ActionAttack ActionKind = "attack"
	ActionSwitch ActionKind = "switch"
	// ActionForfeit is only ever produced by the execution monitor.
	ActionForfeit ActionKind = "forfeit"
)

// CandidateAction is one legal choice for the current turn: either an
// attack with its expected effectiveness, or a switch with its matchup
// score. Exactly one of Move/Switch is set according to Kind.
type CandidateAction struct {
	Kind ActionKind

	Move       *Move
	Multiplier float64
	BasePower  int
	Accuracy   float64

	Switch       *Combatant
	MatchupScore float64
}

// Key returns the identity the action is matched by: the normalized
// move ID for attacks, the normalized species for switches.
func (a CandidateAction) Key() string {
	switch a.Kind {
	case ActionAttack:
		if a.Move != nil {
			return Normalize(a.Move.ID)
		}
	case ActionSwitch:
		if a.Switch != nil {
			return a.Switch.Key()
		}
	}
	return ""
}

// Describe returns a short human-readable form used in logs and
// diagnostics.
func (a CandidateAction) Describe() string {
	switch a.Kind {
	case ActionAttack:
		if a.Move != nil {
			return "move " + a.Move.ID
		}
	case ActionSwitch:
		if a.Switch != nil {
			return "switch " + a.Switch.Species
		}
	case ActionForfeit:
		return "forfeit"
	}
	return "none"
}

// Candidates builds the legal action set for the snapshot: usable moves
// (unless a switch is forced) and available switches when not trapped.
// Effectiveness numbers are left to the scorer.
func (s *Snapshot) Candidates() []CandidateAction {
	out := make([]CandidateAction, 0, len(s.AvailableMoves)+len(s.AvailableSwitches))
	if !s.ForceSwitch {
		for i := range s.AvailableMoves {
			m := &s.AvailableMoves[i]
			if !m.Usable() {
				continue
			}
			out = append(out, CandidateAction{
				Kind:      ActionAttack,
				Move:      m,
				BasePower: m.BasePower,
				Accuracy:  m.Accuracy,
			})
		}
	}
	if !s.Active.Trapped || s.ForceSwitch {
		for i := range s.AvailableSwitches {
			c := &s.AvailableSwitches[i]
			if c.Fainted {
				continue
			}
			out = append(out, CandidateAction{Kind: ActionSwitch, Switch: c})
		}
	}
	return out
}
