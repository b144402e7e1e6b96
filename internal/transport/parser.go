package transport

import (
	"strconv"
	"strings"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/dex"
)

// tracker folds protocol lines into the opponent's observed state and
// the confirmed resolution events of the current turn. The deciding
// side's own state comes from request messages, not from the log.
type tracker struct {
	dx       *dex.Dex
	username string
	side     string // "p1" or "p2", learned from the player line
	turn     int

	opponent battle.Combatant
	oppBench []battle.Combatant

	myBoosts  map[string]int
	oppBoosts map[string]int

	events []battle.Event

	finished bool
	won      bool
}

func newTracker(dx *dex.Dex, username string) *tracker {
	return &tracker{
		dx:        dx,
		username:  username,
		myBoosts:  make(map[string]int),
		oppBoosts: make(map[string]int),
	}
}

// drainEvents returns the accumulated events and resets the buffer.
func (t *tracker) drainEvents() []battle.Event {
	out := t.events
	t.events = nil
	return out
}

// isOpponent reports whether a protocol position ("p2a: Name") belongs
// to the other side.
func (t *tracker) isOpponent(position string) bool {
	if len(position) < 2 || t.side == "" {
		return false
	}
	return !strings.HasPrefix(position, t.side)
}

func positionName(position string) string {
	if i := strings.Index(position, ": "); i >= 0 {
		return position[i+2:]
	}
	return position
}

// parseCondition parses a Showdown HP string like "211/311", "45/100
// brn" or "0 fnt" into a fraction, status and fainted flag.
func parseCondition(cond string) (frac float64, status battle.Status, fainted bool) {
	frac = 1.0
	fields := strings.Fields(cond)
	if len(fields) == 0 {
		return
	}
	if hp := strings.Split(fields[0], "/"); len(hp) == 2 {
		cur, err1 := strconv.ParseFloat(hp[0], 64)
		max, err2 := strconv.ParseFloat(hp[1], 64)
		if err1 == nil && err2 == nil && max > 0 {
			frac = cur / max
		}
	} else if fields[0] == "0" {
		frac = 0
	}
	if len(fields) > 1 {
		switch fields[1] {
		case "fnt":
			fainted = true
			frac = 0
		default:
			status = battle.Status(fields[1])
		}
	}
	return
}

func speciesFromDetails(details string) string {
	return strings.TrimSpace(strings.Split(details, ",")[0])
}

// processLine applies one protocol line. Lines for rooms other than
// the battle are filtered by the caller.
func (t *tracker) processLine(line string) {
	parts := strings.Split(strings.TrimSpace(line), "|")
	if len(parts) < 2 {
		return
	}
	switch parts[1] {
	case "player":
		if len(parts) >= 4 && battle.Normalize(parts[3]) == battle.Normalize(t.username) {
			t.side = parts[2]
		}
	case "turn":
		if len(parts) >= 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				t.turn = n
			}
		}
	case "switch", "drag":
		if len(parts) >= 4 {
			t.handleSwitch(parts)
		}
	case "move":
		if len(parts) >= 4 {
			t.handleMove(parts)
		}
	case "-miss":
		t.patchLastMove(func(ev *battle.Event) { ev.Hit = false })
	case "-supereffective":
		t.patchLastMove(func(ev *battle.Event) { ev.Effective = true })
	case "-resisted", "-immune":
		t.patchLastMove(func(ev *battle.Event) { ev.Effective = false })
	case "-status":
		if len(parts) >= 4 {
			t.handleStatus(parts[2], battle.Status(parts[3]))
		}
	case "-curestatus":
		if len(parts) >= 3 && t.isOpponent(parts[2]) {
			t.opponent.Status = battle.StatusNone
		}
	case "-damage", "-heal":
		if len(parts) >= 4 && t.isOpponent(parts[2]) {
			frac, status, fainted := parseCondition(parts[3])
			t.opponent.HPFraction = frac
			t.opponent.Fainted = fainted
			if status != battle.StatusNone {
				t.opponent.Status = status
			}
		}
	case "-boost", "-unboost":
		if len(parts) >= 5 {
			t.handleBoost(parts[1] == "-boost", parts[2], parts[3], parts[4])
		}
	case "faint":
		if len(parts) >= 3 && t.isOpponent(parts[2]) {
			t.opponent.Fainted = true
			t.opponent.HPFraction = 0
		}
	case "win":
		t.finished = true
		if len(parts) >= 3 {
			t.won = battle.Normalize(parts[2]) == battle.Normalize(t.username)
		}
	case "tie":
		t.finished = true
	}
}

func (t *tracker) handleSwitch(parts []string) {
	position := parts[2]
	species := speciesFromDetails(parts[3])
	if !t.isOpponent(position) {
		// Our own switch resolutions still matter for memory risk
		// bookkeeping and boost resets.
		t.myBoosts = make(map[string]int)
		return
	}

	t.oppBoosts = make(map[string]int)
	// Bench the previous active combatant, keyed by species.
	if t.opponent.Species != "" && battle.Normalize(t.opponent.Species) != battle.Normalize(species) {
		t.benchOpponent()
	}

	frac := 1.0
	var status battle.Status
	var fainted bool
	if len(parts) >= 5 {
		frac, status, fainted = parseCondition(parts[4])
	}
	c := t.takeFromBench(species)
	c.Species = species
	c.Types = t.dx.PokemonTypes(species)
	c.HPFraction = frac
	c.Status = status
	c.Fainted = fainted
	t.opponent = c

	t.events = append(t.events, battle.Event{
		Turn:    t.turn,
		Type:    battle.EventSwitchIn,
		Species: species,
	})
}

func (t *tracker) benchOpponent() {
	key := battle.Normalize(t.opponent.Species)
	for i := range t.oppBench {
		if t.oppBench[i].Key() == key {
			t.oppBench[i] = t.opponent
			return
		}
	}
	t.oppBench = append(t.oppBench, t.opponent)
}

func (t *tracker) takeFromBench(species string) battle.Combatant {
	key := battle.Normalize(species)
	for i := range t.oppBench {
		if t.oppBench[i].Key() == key {
			c := t.oppBench[i]
			t.oppBench = append(t.oppBench[:i], t.oppBench[i+1:]...)
			return c
		}
	}
	return battle.Combatant{}
}

func (t *tracker) handleMove(parts []string) {
	position := parts[2]
	moveName := parts[3]
	mine := !t.isOpponent(position)
	// Protocol positions carry nicknames; profiles are keyed by the
	// true species learned from the switch details.
	species := positionName(position)
	if !mine && t.opponent.Species != "" {
		species = t.opponent.Species
	}

	if !mine {
		// Remember the opponent's revealed moves on its profile.
		md, _ := t.dx.Move(moveName)
		known := false
		for _, m := range t.opponent.Moves {
			if battle.Normalize(m.ID) == battle.Normalize(moveName) {
				known = true
				break
			}
		}
		if !known {
			t.opponent.Moves = append(t.opponent.Moves, battle.Move{
				ID:        battle.Normalize(moveName),
				Name:      md.Name,
				Type:      md.Type,
				Category:  md.Category,
				BasePower: md.BasePower,
				Accuracy:  md.Accuracy,
			})
		}
	}

	t.events = append(t.events, battle.Event{
		Turn:      t.turn,
		Type:      battle.EventMoveUsed,
		Mine:      mine,
		Species:   species,
		MoveID:    battle.Normalize(moveName),
		Hit:       true,
		Effective: true,
	})
}

// patchLastMove adjusts the most recent move event; the simulator
// reports misses and effectiveness on the lines following the move.
func (t *tracker) patchLastMove(fn func(*battle.Event)) {
	for i := len(t.events) - 1; i >= 0; i-- {
		if t.events[i].Type == battle.EventMoveUsed {
			fn(&t.events[i])
			return
		}
	}
}

func (t *tracker) handleStatus(position string, status battle.Status) {
	if !t.isOpponent(position) {
		return
	}
	t.opponent.Status = status
	species := t.opponent.Species
	if species == "" {
		species = positionName(position)
	}
	t.events = append(t.events, battle.Event{
		Turn:    t.turn,
		Type:    battle.EventStatusApplied,
		Species: species,
		Status:  status,
	})
}

func (t *tracker) handleBoost(up bool, position, stat, amount string) {
	n, err := strconv.Atoi(amount)
	if err != nil {
		return
	}
	if !up {
		n = -n
	}
	boosts := t.myBoosts
	if t.isOpponent(position) {
		boosts = t.oppBoosts
	}
	v := boosts[stat] + n
	if v > 6 {
		v = 6
	}
	if v < -6 {
		v = -6
	}
	boosts[stat] = v
}
