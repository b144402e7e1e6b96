package battle

// Type is one of the canonical attacking/defending types. Unknown or
// empty types are treated as neutral by the effectiveness table.
type Type string

const (
	TypeNormal   Type = "normal"
	TypeFire     Type = "fire"
	TypeWater    Type = "water"
	TypeElectric Type = "electric"
	TypeGrass    Type = "grass"
	TypeIce      Type = "ice"
	TypeFighting Type = "fighting"
	TypePoison   Type = "poison"
	TypeGround   Type = "ground"
	TypeFlying   Type = "flying"
	TypePsychic  Type = "psychic"
	TypeBug      Type = "bug"
	TypeRock     Type = "rock"
	TypeGhost    Type = "ghost"
	TypeDragon   Type = "dragon"
	TypeDark     Type = "dark"
	TypeSteel    Type = "steel"
	TypeFairy    Type = "fairy"
)

// Status is a non-volatile status condition in Showdown's short form.
type Status string

const (
	StatusNone      Status = ""
	StatusBurn      Status = "brn"
	StatusPoison    Status = "psn"
	StatusToxic     Status = "tox"
	StatusParalysis Status = "par"
	StatusSleep     Status = "slp"
	StatusFreeze    Status = "frz"
	// Confusion is volatile but tracked alongside the rest.
	StatusConfusion Status = "confusion"
)

// MoveCategory distinguishes damaging from status moves.
type MoveCategory string

const (
	CategoryPhysical MoveCategory = "physical"
	CategorySpecial  MoveCategory = "special"
	CategoryStatus   MoveCategory = "status"
)

// Move describes a known move of a combatant. ID is the normalized
// Showdown identifier; Accuracy is a fraction in (0,1] where 1 means the
// move cannot miss.
type Move struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      Type         `json:"type"`
	Category  MoveCategory `json:"category"`
	BasePower int          `json:"base_power"`
	Accuracy  float64      `json:"accuracy"`
	PP        int          `json:"pp"`
	MaxPP     int          `json:"max_pp"`
}

// Usable reports whether the move can be chosen this turn.
func (m Move) Usable() bool { return m.PP > 0 }

// Combatant is one Pokémon as currently known to the deciding side.
// HPFraction is in [0,1]; Boosts holds stat stages in -6..+6 keyed by
// the Showdown stat abbreviation (atk, def, spa, spd, spe).
type Combatant struct {
	Species    string         `json:"species"`
	Types      []Type         `json:"types"`
	HPFraction float64        `json:"hp_fraction"`
	Status     Status         `json:"status"`
	Boosts     map[string]int `json:"boosts,omitempty"`
	Moves      []Move         `json:"moves,omitempty"`
	Fainted    bool           `json:"fainted"`
	Trapped    bool           `json:"trapped"`
}

// HasType reports whether the combatant currently has the given type.
func (c *Combatant) HasType(t Type) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}

// Key returns the canonical identity of the combatant (normalized
// species name) used when matching oracle decisions and memory entries.
func (c *Combatant) Key() string { return Normalize(c.Species) }
