package battle

// EventType identifies a confirmed turn-resolution observation.
type EventType string

const (
	EventMoveUsed      EventType = "move-used"
	EventSwitchIn      EventType = "switch-in"
	EventStatusApplied EventType = "status-applied"
)

// Event is one confirmed observation from a resolved turn, delivered by
// the transport after the simulator reports what actually happened.
// Mine marks events caused by the deciding side's own combatant (used
// for move-risk bookkeeping); all other events describe the opponent.
type Event struct {
	Turn    int
	Type    EventType
	Mine    bool
	Species string
	MoveID  string
	Hit     bool
	// Effective is true when the move dealt super-effective damage and
	// false when it was resisted or had no effect; only meaningful for
	// EventMoveUsed with Hit set.
	Effective bool
	Status    Status
}
