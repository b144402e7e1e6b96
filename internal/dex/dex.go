// Package dex loads the static Pokémon and move data files used to
// enrich transport snapshots with types, base powers and accuracies.
package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schoemantian/pokemon-agent/internal/battle"
	"github.com/schoemantian/pokemon-agent/internal/dedupe"
)

// PokemonData is the static entry for one species.
type PokemonData struct {
	Name  string
	Types []battle.Type
}

// MoveData is the static entry for one move.
type MoveData struct {
	Name      string
	Type      battle.Type
	BasePower int
	Accuracy  float64
	Category  battle.MoveCategory
}

// Dex is an immutable lookup over the loaded data. Safe for concurrent
// use once built.
type Dex struct {
	pokemon map[string]PokemonData
	moves   map[string]MoveData
}

// DefaultMoveBasePower is assumed for moves missing from the data set.
const DefaultMoveBasePower = 80

type rawPokemon struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// rawAccuracy accepts Showdown's accuracy encoding: a number, or the
// JSON literal true for moves that cannot miss.
type rawAccuracy float64

func (a *rawAccuracy) UnmarshalJSON(b []byte) error {
	if string(b) == "true" {
		*a = 100
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = rawAccuracy(f)
	return nil
}

type rawMove struct {
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	BasePower int         `json:"basePower"`
	Accuracy  rawAccuracy `json:"accuracy"`
	Category  string      `json:"category"`
}

// Open loads pokedex.json and moves.json from dir. Concurrent opens of
// the same directory are deduplicated through a shared singleflight
// group so parallel sessions share one load.
func Open(dir string) (*Dex, error) {
	v, err, _ := dedupe.DexGroup.Do("load:"+dir, func() (interface{}, error) {
		return load(dir)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dex), nil
}

func load(dir string) (*Dex, error) {
	d := &Dex{
		pokemon: make(map[string]PokemonData),
		moves:   make(map[string]MoveData),
	}

	var rawDex map[string]rawPokemon
	if err := readJSON(filepath.Join(dir, "pokedex.json"), &rawDex); err != nil {
		return nil, fmt.Errorf("failed to load pokedex data: %w", err)
	}
	for _, p := range rawDex {
		types := make([]battle.Type, 0, len(p.Types))
		for _, t := range p.Types {
			types = append(types, battle.Type(strings.ToLower(t)))
		}
		d.pokemon[battle.Normalize(p.Name)] = PokemonData{Name: p.Name, Types: types}
	}

	var rawMoves map[string]rawMove
	if err := readJSON(filepath.Join(dir, "moves.json"), &rawMoves); err != nil {
		return nil, fmt.Errorf("failed to load move data: %w", err)
	}
	for _, m := range rawMoves {
		acc := float64(m.Accuracy) / 100.0
		if acc <= 0 || acc > 1 {
			acc = 1
		}
		d.moves[battle.Normalize(m.Name)] = MoveData{
			Name:      m.Name,
			Type:      battle.Type(strings.ToLower(m.Type)),
			BasePower: m.BasePower,
			Accuracy:  acc,
			Category:  battle.MoveCategory(strings.ToLower(m.Category)),
		}
	}
	return d, nil
}

func readJSON(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(out)
}

// PokemonTypes returns the species' types, or nil when unknown.
func (d *Dex) PokemonTypes(name string) []battle.Type {
	if p, ok := d.pokemon[battle.Normalize(name)]; ok {
		return p.Types
	}
	return nil
}

// Move returns the move's data. Unknown moves fall back to a neutral
// default so snapshots stay usable when data is incomplete.
func (d *Dex) Move(name string) (MoveData, bool) {
	if m, ok := d.moves[battle.Normalize(name)]; ok {
		return m, true
	}
	return MoveData{
		Name:      name,
		BasePower: DefaultMoveBasePower,
		Accuracy:  1,
		Category:  battle.CategoryPhysical,
	}, false
}
