package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schoemantian/pokemon-agent/internal/engine"
	"github.com/schoemantian/pokemon-agent/internal/scorer"
)

type rawStrategy struct {
	Weights  *scorer.Weights  `yaml:"weights"`
	Profiles *scorer.Profiles `yaml:"profiles"`
	Engine   *struct {
		CriticalHPFraction      *float64 `yaml:"critical_hp_fraction"`
		AssumedOpponentTeamSize *int     `yaml:"assumed_opponent_team_size"`
	} `yaml:"engine"`
}

// Strategy bundles the scoring weights and engine thresholds a session
// runs with.
type Strategy struct {
	Weights scorer.Weights
	Engine  engine.Config
}

// DefaultStrategy returns the built-in tuning.
func DefaultStrategy() Strategy {
	return Strategy{Weights: scorer.DefaultWeights(), Engine: engine.DefaultConfig()}
}

// LoadStrategy reads a YAML strategy file. An empty path returns the
// defaults. Omitted fields keep their default values, so a file can
// override a single weight.
func LoadStrategy(path string) (Strategy, error) {
	st := DefaultStrategy()
	if path == "" {
		return st, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return st, fmt.Errorf("failed to read strategy file %s: %w", path, err)
	}
	var rs rawStrategy
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return st, fmt.Errorf("failed to parse strategy file %s: %w", path, err)
	}

	if rs.Weights != nil {
		merged := st.Weights
		if rs.Weights.TypeAdvantage > 0 {
			merged.TypeAdvantage = rs.Weights.TypeAdvantage
		}
		if rs.Weights.STABFactor > 0 {
			merged.STABFactor = rs.Weights.STABFactor
		}
		if rs.Weights.RiskWeight > 0 {
			merged.RiskWeight = rs.Weights.RiskWeight
		}
		if rs.Weights.DamageScale > 0 {
			merged.DamageScale = rs.Weights.DamageScale
		}
		if rs.Weights.SwitchMatchup > 0 {
			merged.SwitchMatchup = rs.Weights.SwitchMatchup
		}
		if rs.Weights.SwitchHP > 0 {
			merged.SwitchHP = rs.Weights.SwitchHP
		}
		st.Weights = merged
	}
	if rs.Profiles != nil {
		st.Weights.Profiles = mergeProfiles(st.Weights.Profiles, *rs.Profiles)
	}
	if rs.Engine != nil {
		if v := rs.Engine.CriticalHPFraction; v != nil {
			if *v <= 0 || *v >= 1 {
				return st, fmt.Errorf("strategy file %s: critical_hp_fraction must be in (0,1)", path)
			}
			st.Engine.CriticalHPFraction = *v
		}
		if v := rs.Engine.AssumedOpponentTeamSize; v != nil {
			if *v < 1 {
				return st, fmt.Errorf("strategy file %s: assumed_opponent_team_size must be positive", path)
			}
			st.Engine.AssumedOpponentTeamSize = *v
		}
	}
	return st, nil
}

func mergeProfiles(base, over scorer.Profiles) scorer.Profiles {
	base.Early = mergeProfile(base.Early, over.Early)
	base.Mid = mergeProfile(base.Mid, over.Mid)
	base.Late = mergeProfile(base.Late, over.Late)
	return base
}

func mergeProfile(base, over scorer.PhaseProfile) scorer.PhaseProfile {
	if over.Setup > 0 {
		base.Setup = over.Setup
	}
	if over.Offensive > 0 {
		base.Offensive = over.Offensive
	}
	if over.Defensive > 0 {
		base.Defensive = over.Defensive
	}
	return base
}
