// Package typechart holds the static attack-type vs defense-type
// effectiveness table. Lookups never fail: any pairing not present in
// the table is neutral (1.0).
package typechart

import "github.com/schoemantian/pokemon-agent/internal/battle"

// chart lists only the non-neutral pairings, keyed by attacking type
// then defending type. Multipliers are one of 0, 0.5 or 2.
var chart = map[battle.Type]map[battle.Type]float64{
	battle.TypeNormal: {
		battle.TypeRock: 0.5, battle.TypeGhost: 0, battle.TypeSteel: 0.5,
	},
	battle.TypeFire: {
		battle.TypeFire: 0.5, battle.TypeWater: 0.5, battle.TypeGrass: 2,
		battle.TypeIce: 2, battle.TypeBug: 2, battle.TypeRock: 0.5,
		battle.TypeSteel: 2,
	},
	battle.TypeWater: {
		battle.TypeFire: 2, battle.TypeWater: 0.5, battle.TypeGrass: 0.5,
		battle.TypeGround: 2, battle.TypeRock: 2,
	},
	battle.TypeElectric: {
		battle.TypeWater: 2, battle.TypeElectric: 0.5, battle.TypeGrass: 0.5,
		battle.TypeGround: 0, battle.TypeFlying: 2,
	},
	battle.TypeGrass: {
		battle.TypeFire: 0.5, battle.TypeWater: 2, battle.TypeGrass: 0.5,
		battle.TypePoison: 0.5, battle.TypeGround: 2, battle.TypeFlying: 0.5,
		battle.TypeBug: 0.5,
	},
	battle.TypeIce: {
		battle.TypeFire: 0.5, battle.TypeWater: 0.5, battle.TypeGrass: 2,
		battle.TypeIce: 0.5, battle.TypeGround: 2, battle.TypeFlying: 2,
		battle.TypeDragon: 2,
	},
	battle.TypeFighting: {
		battle.TypeNormal: 2, battle.TypeIce: 2, battle.TypeRock: 2,
		battle.TypeDark: 2, battle.TypeSteel: 2, battle.TypePoison: 0.5,
		battle.TypeFlying: 0.5, battle.TypePsychic: 0.5, battle.TypeBug: 0.5,
		battle.TypeGhost: 0,
	},
	battle.TypePoison: {
		battle.TypeGrass: 2, battle.TypePoison: 0.5, battle.TypeGround: 0.5,
		battle.TypeRock: 0.5, battle.TypeGhost: 0.5, battle.TypeSteel: 0,
	},
	battle.TypeGround: {
		battle.TypeFire: 2, battle.TypeElectric: 2, battle.TypeGrass: 0.5,
		battle.TypePoison: 2, battle.TypeFlying: 0, battle.TypeBug: 0.5,
		battle.TypeRock: 2, battle.TypeSteel: 2,
	},
	battle.TypeFlying: {
		battle.TypeGrass: 2, battle.TypeElectric: 0.5, battle.TypeFighting: 2,
		battle.TypeBug: 2, battle.TypeRock: 0.5, battle.TypeSteel: 0.5,
	},
	battle.TypePsychic: {
		battle.TypeFighting: 2, battle.TypePoison: 2, battle.TypePsychic: 0.5,
		battle.TypeDark: 0, battle.TypeSteel: 0.5,
	},
	battle.TypeBug: {
		battle.TypeGrass: 2, battle.TypeFighting: 0.5, battle.TypePoison: 0.5,
		battle.TypeFlying: 0.5, battle.TypePsychic: 2, battle.TypeGhost: 0.5,
		battle.TypeDark: 2, battle.TypeSteel: 0.5, battle.TypeFairy: 0.5,
	},
	battle.TypeRock: {
		battle.TypeFire: 2, battle.TypeIce: 2, battle.TypeFighting: 0.5,
		battle.TypeGround: 0.5, battle.TypeFlying: 2, battle.TypeBug: 2,
		battle.TypeSteel: 0.5,
	},
	battle.TypeGhost: {
		battle.TypeNormal: 0, battle.TypeGhost: 2, battle.TypePsychic: 2,
		battle.TypeDark: 0.5,
	},
	battle.TypeDragon: {
		battle.TypeDragon: 2, battle.TypeSteel: 0.5, battle.TypeFairy: 0,
	},
	battle.TypeDark: {
		battle.TypeGhost: 2, battle.TypePsychic: 2, battle.TypeFighting: 0.5,
		battle.TypeDark: 0.5, battle.TypeFairy: 0.5,
	},
	battle.TypeSteel: {
		battle.TypeIce: 2, battle.TypeRock: 2, battle.TypeFairy: 2,
		battle.TypeSteel: 0.5, battle.TypeFire: 0.5, battle.TypeWater: 0.5,
		battle.TypeElectric: 0.5,
	},
	battle.TypeFairy: {
		battle.TypeFighting: 2, battle.TypeDragon: 2, battle.TypeDark: 2,
		battle.TypePoison: 0.5, battle.TypeSteel: 0.5, battle.TypeFire: 0.5,
	},
}

// Multiplier returns the combined effectiveness of an attacking type
// against one or two defending types. Dual typing multiplies the
// per-type lookups; unknown pairings are neutral.
func Multiplier(attack battle.Type, defense ...battle.Type) float64 {
	mult := 1.0
	row, ok := chart[attack]
	if !ok {
		return mult
	}
	for _, d := range defense {
		if d == "" {
			continue
		}
		if v, present := row[d]; present {
			mult *= v
		}
	}
	return mult
}
