package scorer

import (
	"reflect"
	"testing"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/memory"
)

func electricSnapshot() *battle.Snapshot {
	return &battle.Snapshot{
		BattleTag: "battle-test-1",
		Turn:      5,
		Active: battle.Combatant{
			Species: "Pikachu", Types: []battle.Type{battle.TypeElectric}, HPFraction: 1,
		},
		Opponent: battle.Combatant{
			Species: "Gyarados", Types: []battle.Type{battle.TypeWater, battle.TypeFlying}, HPFraction: 1,
		},
		AvailableMoves: []battle.Move{
			{ID: "tackle", Type: battle.TypeNormal, Category: battle.CategoryPhysical, BasePower: 120, Accuracy: 1, PP: 20},
			{ID: "thunderbolt", Type: battle.TypeElectric, Category: battle.CategorySpecial, BasePower: 90, Accuracy: 1, PP: 10},
		},
	}
}

func TestRank_TypeAdvantageBeatsRawPower(t *testing.T) {
	sc := New(DefaultWeights())
	snap := electricSnapshot()

	ranked := sc.Rank(snap, battle.PhaseMid, memory.New())
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked actions, got %d", len(ranked))
	}
	// Thunderbolt is 4x effective with STAB; it must outrank the
	// stronger but neutral tackle.
	if ranked[0].Move == nil || ranked[0].Move.ID != "thunderbolt" {
		t.Fatalf("expected thunderbolt ranked first, got %s", ranked[0].Describe())
	}
	if ranked[0].Multiplier != 4.0 {
		t.Fatalf("expected 4x multiplier recorded, got %v", ranked[0].Multiplier)
	}
}

func TestRank_Deterministic(t *testing.T) {
	sc := New(DefaultWeights())
	snap := electricSnapshot()
	mem := memory.New()

	first := sc.Rank(snap, battle.PhaseMid, mem)
	for i := 0; i < 10; i++ {
		again := sc.Rank(snap, battle.PhaseMid, mem)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking is not deterministic: run %d differs", i)
		}
	}
}

func TestRank_RiskPenaltyFromMemory(t *testing.T) {
	sc := New(DefaultWeights())
	snap := electricSnapshot()

	mem := memory.New()
	// The agent's thunderbolt has repeatedly been resisted.
	for turn := 1; turn <= 4; turn++ {
		mem.Observe(battle.Event{
			Turn: turn, Type: battle.EventMoveUsed, Mine: true,
			Species: "Pikachu", MoveID: "thunderbolt", Hit: true, Effective: false,
		})
	}

	without := sc.Rank(snap, battle.PhaseMid, memory.New())
	with := sc.Rank(snap, battle.PhaseMid, mem)

	var clean, risky float64
	for _, sa := range without {
		if sa.Move != nil && sa.Move.ID == "thunderbolt" {
			clean = sa.Score
		}
	}
	for _, sa := range with {
		if sa.Move != nil && sa.Move.ID == "thunderbolt" {
			risky = sa.Score
		}
	}
	if risky >= clean {
		t.Fatalf("expected risk penalty to lower score: %v >= %v", risky, clean)
	}
}

func TestRank_PhaseProfilesShiftSetupValue(t *testing.T) {
	sc := New(DefaultWeights())
	snap := electricSnapshot()
	snap.AvailableMoves = []battle.Move{
		{ID: "swordsdance", Type: battle.TypeNormal, Category: battle.CategoryStatus, Accuracy: 1, PP: 20},
	}

	early := sc.Rank(snap, battle.PhaseEarly, nil)
	late := sc.Rank(snap, battle.PhaseLate, nil)
	if early[0].Score <= late[0].Score {
		t.Fatalf("setup move should score higher early (%v) than late (%v)", early[0].Score, late[0].Score)
	}
}

func TestScoreSwitch_PrefersResistantHealthyTarget(t *testing.T) {
	sc := New(DefaultWeights())
	snap := &battle.Snapshot{
		Active:   battle.Combatant{Species: "Charizard", Types: []battle.Type{battle.TypeFire, battle.TypeFlying}, HPFraction: 0.2},
		Opponent: battle.Combatant{Species: "Golem", Types: []battle.Type{battle.TypeRock, battle.TypeGround}, HPFraction: 1},
		AvailableSwitches: []battle.Combatant{
			{Species: "Venusaur", Types: []battle.Type{battle.TypeGrass, battle.TypePoison}, HPFraction: 1},
			{Species: "Talonflame", Types: []battle.Type{battle.TypeFire, battle.TypeFlying}, HPFraction: 0.5},
		},
	}
	ranked := sc.Rank(snap, battle.PhaseMid, nil)
	if ranked[0].Switch == nil || ranked[0].Switch.Species != "Venusaur" {
		t.Fatalf("expected Venusaur as best switch, got %s", ranked[0].Describe())
	}
}

func TestExpectedDamageFraction(t *testing.T) {
	sc := New(DefaultWeights())
	attacker := &battle.Combatant{Types: []battle.Type{battle.TypeElectric}}
	defender := &battle.Combatant{Types: []battle.Type{battle.TypeWater, battle.TypeFlying}}
	move := &battle.Move{ID: "thunderbolt", Type: battle.TypeElectric, Category: battle.CategorySpecial, BasePower: 90}

	// 90/150 * 4.0 * 1.5 = 3.6 of max HP: a guaranteed knockout range.
	got := sc.ExpectedDamageFraction(move, attacker, defender)
	if got < 3.59 || got > 3.61 {
		t.Fatalf("expected ~3.6, got %v", got)
	}

	status := &battle.Move{ID: "thunderwave", Type: battle.TypeElectric, Category: battle.CategoryStatus}
	if sc.ExpectedDamageFraction(status, attacker, defender) != 0 {
		t.Fatal("status moves deal no direct damage")
	}
}

func TestIncomingDamageFraction_AssumesTypedMoveWhenUnknown(t *testing.T) {
	sc := New(DefaultWeights())
	attacker := &battle.Combatant{Species: "Garchomp", Types: []battle.Type{battle.TypeDragon, battle.TypeGround}}
	defender := &battle.Combatant{Species: "Togekiss", Types: []battle.Type{battle.TypeFairy, battle.TypeFlying}}

	// Dragon is immune against fairy, ground has no effect on flying;
	// yet an assumed move still carries STAB so the estimate is nonzero
	// only when some typing connects. Fairy is immune to dragon and
	// flying negates ground, so this matchup is fully walled.
	if got := sc.IncomingDamageFraction(attacker, defender); got != 0 {
		t.Fatalf("expected walled matchup to estimate 0, got %v", got)
	}

	neutral := &battle.Combatant{Species: "Snorlax", Types: []battle.Type{battle.TypeNormal}}
	if got := sc.IncomingDamageFraction(attacker, neutral); got <= 0 {
		t.Fatalf("expected positive estimate against neutral target, got %v", got)
	}
}
