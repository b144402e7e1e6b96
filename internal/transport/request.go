package transport

import (
	"encoding/json"
	"fmt"

	"github.com/schoemantian/pokemon-agent/internal/battle"
)

// requestMsg mirrors the simulator's |request| JSON payload.
type requestMsg struct {
	Active []struct {
		Moves []struct {
			Move     string `json:"move"`
			ID       string `json:"id"`
			PP       int    `json:"pp"`
			MaxPP    int    `json:"maxpp"`
			Disabled bool   `json:"disabled"`
		} `json:"moves"`
		Trapped      bool `json:"trapped"`
		MaybeTrapped bool `json:"maybeTrapped"`
	} `json:"active"`
	Side struct {
		Name    string `json:"name"`
		ID      string `json:"id"`
		Pokemon []struct {
			Ident     string   `json:"ident"`
			Details   string   `json:"details"`
			Condition string   `json:"condition"`
			Active    bool     `json:"active"`
			Moves     []string `json:"moves"`
		} `json:"pokemon"`
	} `json:"side"`
	ForceSwitch []bool `json:"forceSwitch"`
	Wait        bool   `json:"wait"`
	RQID        int    `json:"rqid"`
}

// buildSnapshot converts a request payload plus the tracker's opponent
// state into the engine's snapshot. Returns nil for wait requests (the
// other side is choosing; no decision is needed).
func (t *tracker) buildSnapshot(tag string, raw []byte) (*battle.Snapshot, int, error) {
	var req requestMsg
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, 0, fmt.Errorf("malformed request payload: %w", err)
	}
	if req.Wait {
		return nil, req.RQID, nil
	}
	if t.side == "" {
		t.side = req.Side.ID
	}

	snap := &battle.Snapshot{
		BattleTag:   tag,
		Turn:        t.turn,
		ForceSwitch: len(req.ForceSwitch) > 0 && req.ForceSwitch[0],
	}

	for _, p := range req.Side.Pokemon {
		c := battle.Combatant{Species: speciesFromDetails(p.Details)}
		c.Types = t.dx.PokemonTypes(c.Species)
		c.HPFraction, c.Status, c.Fainted = parseCondition(p.Condition)
		for _, mv := range p.Moves {
			md, _ := t.dx.Move(mv)
			c.Moves = append(c.Moves, battle.Move{
				ID:        battle.Normalize(mv),
				Name:      md.Name,
				Type:      md.Type,
				Category:  md.Category,
				BasePower: md.BasePower,
				Accuracy:  md.Accuracy,
				PP:        1,
				MaxPP:     1,
			})
		}
		if p.Active {
			c.Boosts = t.myBoosts
			snap.Active = c
		} else {
			snap.Bench = append(snap.Bench, c)
			if !c.Fainted {
				snap.AvailableSwitches = append(snap.AvailableSwitches, c)
			}
		}
	}

	if len(req.Active) > 0 && !snap.ForceSwitch {
		snap.Active.Trapped = req.Active[0].Trapped || req.Active[0].MaybeTrapped
		for _, m := range req.Active[0].Moves {
			if m.Disabled {
				continue
			}
			md, _ := t.dx.Move(m.Move)
			snap.AvailableMoves = append(snap.AvailableMoves, battle.Move{
				ID:        battle.Normalize(m.ID),
				Name:      m.Move,
				Type:      md.Type,
				Category:  md.Category,
				BasePower: md.BasePower,
				Accuracy:  md.Accuracy,
				PP:        m.PP,
				MaxPP:     m.MaxPP,
			})
		}
	}

	t.opponent.Boosts = t.oppBoosts
	snap.Opponent = t.opponent
	snap.OpponentBench = t.oppBench

	return snap, req.RQID, nil
}
