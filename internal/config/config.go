package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/monitor"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	Showdown *struct {
		ServerURL string `json:"server_url"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		Format    string `json:"format"`
		Opponent  string `json:"opponent"`
	} `json:"showdown"`
	Oracle *struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"oracle"`
	Timeouts *struct {
		TurnSeconds      float64 `json:"turn_seconds"`
		BattleSeconds    float64 `json:"battle_seconds"`
		OracleMaxRetries *int    `json:"oracle_max_retries"`
		RetryBackoffMS   float64 `json:"retry_backoff_ms"`
		StallFactor      float64 `json:"stall_factor"`
	} `json:"timeouts"`
	DataDir      string `json:"data_dir"`
	DatabasePath string `json:"database_path"`
	StrategyPath string `json:"strategy_path"`
}

// LoadedConfig is the validated runtime configuration.
type LoadedConfig struct {
	ServerAddress string

	ShowdownURL string
	Username    string
	Password    string
	Format      string
	Opponent    string

	OracleName  string
	OracleModel string

	Policy monitor.Policy

	DataDir      string
	DatabasePath string
	StrategyPath string
}

// LoadConfig reads the configuration file at path. Every field is
// optional; missing sections fall back to defaults. The POKEMON_AGENT_DB
// environment variable overrides database_path when set.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	lc := &LoadedConfig{
		ServerAddress: ":8080",
		ShowdownURL:   constants.ShowdownServerURL,
		Format:        constants.DefaultBattleFormat,
		OracleName:    constants.OracleOpenAI,
		OracleModel:   constants.OpenAIChatModel,
		Policy:        monitor.DefaultPolicy(),
		DatabasePath:  constants.DefaultDBPath,
	}

	if rc.Server != nil && rc.Server.Address != "" {
		lc.ServerAddress = rc.Server.Address
	}
	if sd := rc.Showdown; sd != nil {
		if sd.ServerURL != "" {
			lc.ShowdownURL = sd.ServerURL
		}
		lc.Username = strings.TrimSpace(sd.Username)
		lc.Password = sd.Password
		if sd.Format != "" {
			lc.Format = sd.Format
		}
		lc.Opponent = strings.TrimSpace(sd.Opponent)
	}
	if oc := rc.Oracle; oc != nil {
		if oc.Name != "" {
			lc.OracleName = strings.ToLower(strings.TrimSpace(oc.Name))
		}
		if oc.Model != "" {
			lc.OracleModel = oc.Model
		}
	}
	if to := rc.Timeouts; to != nil {
		if to.TurnSeconds > 0 {
			lc.Policy.TurnDeadline = time.Duration(to.TurnSeconds * float64(time.Second))
		}
		if to.BattleSeconds > 0 {
			lc.Policy.BattleDeadline = time.Duration(to.BattleSeconds * float64(time.Second))
		}
		if to.OracleMaxRetries != nil && *to.OracleMaxRetries >= 0 {
			lc.Policy.OracleMaxRetries = *to.OracleMaxRetries
		}
		if to.RetryBackoffMS > 0 {
			lc.Policy.RetryBackoff = time.Duration(to.RetryBackoffMS * float64(time.Millisecond))
		}
		if to.StallFactor > 0 {
			lc.Policy.StallFactor = to.StallFactor
		}
	}
	lc.DataDir = strings.TrimSpace(rc.DataDir)
	if rc.DatabasePath != "" {
		lc.DatabasePath = rc.DatabasePath
	}
	if env := os.Getenv(constants.EnvDBPath); env != "" {
		lc.DatabasePath = env
	}
	lc.StrategyPath = strings.TrimSpace(rc.StrategyPath)

	if err := lc.validate(path); err != nil {
		return nil, err
	}
	return lc, nil
}

func (lc *LoadedConfig) validate(path string) error {
	switch lc.OracleName {
	case constants.OracleOpenAI, constants.OracleScripted:
	default:
		return fmt.Errorf("config file %s: unknown oracle '%s' (use '%s' or '%s')",
			path, lc.OracleName, constants.OracleOpenAI, constants.OracleScripted)
	}
	if lc.Policy.TurnDeadline > lc.Policy.BattleDeadline {
		return fmt.Errorf("config file %s: turn_seconds exceeds battle_seconds", path)
	}
	if lc.Username == "" {
		return fmt.Errorf("config file %s: showdown.username is required", path)
	}
	return nil
}
