package battle

// Phase is the coarse stage of a battle. It is derived from the turn
// number and remaining team sizes every turn and never stored.
type Phase string

const (
	PhaseEarly Phase = "early"
	PhaseMid   Phase = "mid"
	PhaseLate  Phase = "late"
)

// EarlyPhaseTurns is the last turn still classified as early game.
const EarlyPhaseTurns = 2

// LatePhaseRemaining is the team size at or below which either side
// pushes the battle into the late game.
const LatePhaseRemaining = 2

// ClassifyPhase derives the battle phase from the turn number and the
// remaining combatants per side.
func ClassifyPhase(turn, ownRemaining, oppRemaining int) Phase {
	switch {
	case turn <= EarlyPhaseTurns:
		return PhaseEarly
	case ownRemaining <= LatePhaseRemaining || oppRemaining <= LatePhaseRemaining:
		return PhaseLate
	default:
		return PhaseMid
	}
}
