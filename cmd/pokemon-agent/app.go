package main

import (
	"github.com/schoemantian/pokemon-agent/internal/config"
	"github.com/schoemantian/pokemon-agent/internal/dex"
	"github.com/schoemantian/pokemon-agent/internal/logging"
	"github.com/schoemantian/pokemon-agent/internal/session"
	"github.com/schoemantian/pokemon-agent/internal/storage"
	"github.com/schoemantian/pokemon-agent/internal/transport"
)

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Missing or invalid agent configuration", err, logging.Fields{"config_path": path})
	}
	return cfg
}

func loadStrategyOrExit(path string) config.Strategy {
	st, err := config.LoadStrategy(path)
	if err != nil {
		logging.Fatal("Invalid strategy configuration", err, logging.Fields{"strategy_path": path})
	}
	return st
}

func createRepositoryOrExit(dbPath string) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, nil)
	}
	return storage.NewSQLiteRepository(db)
}

func openDexOrExit(dir string) *dex.Dex {
	dx, err := dex.Open(dir)
	if err != nil {
		logging.Fatal("Failed to load battle data", err, logging.Fields{
			"data_dir": dir,
			"hint":     "data_dir must contain pokedex.json and moves.json",
		})
	}
	return dx
}

// newTransportFactory binds the loaded configuration and dex into the
// factory the session manager dials new battles with.
func newTransportFactory(cfg *config.LoadedConfig, dx *dex.Dex) session.TransportFactory {
	return func(format string, onActivity func()) (transport.Transport, error) {
		return transport.Dial(transport.Config{
			ServerURL:  cfg.ShowdownURL,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Format:     format,
			Opponent:   cfg.Opponent,
			Dex:        dx,
			OnActivity: onActivity,
		})
	}
}
