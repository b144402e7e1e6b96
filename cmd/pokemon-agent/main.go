package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/schoemantian/pokemon-agent/internal/api"
	"github.com/schoemantian/pokemon-agent/internal/constants"
	"github.com/schoemantian/pokemon-agent/internal/logging"
	"github.com/schoemantian/pokemon-agent/internal/session"
	"github.com/schoemantian/pokemon-agent/internal/version"
)

func main() {
	// Path may be provided via POKEMON_AGENT_CONFIG or defaults to
	// ./pokemon_agent.json in the current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = "./pokemon_agent.json"
	}
	cfg := loadConfigOrExit(configPath)

	// The OpenAI key is only required when the oracle actually calls out.
	if cfg.OracleName == constants.OracleOpenAI {
		checkEnvVars([]string{constants.EnvOpenAIAPIKey})
	}

	strategy := loadStrategyOrExit(cfg.StrategyPath)
	repo := createRepositoryOrExit(cfg.DatabasePath)
	dx := openDexOrExit(cfg.DataDir)

	manager := session.NewManager(context.Background(), repo, newTransportFactory(cfg, dx), session.Defaults{
		Format:  cfg.Format,
		Oracle:  cfg.OracleName,
		Model:   cfg.OracleModel,
		Weights: strategy.Weights,
		Engine:  strategy.Engine,
	})
	handler := api.NewAgentHandler(manager, repo, cfg.Policy)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.POST(constants.RouteBattles, handler.StartBattle)
		apiRoutes.GET(constants.RouteBattleByID, handler.GetBattle)
		apiRoutes.GET(constants.RouteBattleEvents, handler.BattleEvents)
		apiRoutes.GET(constants.RouteResults, handler.ListResults)
		apiRoutes.GET(constants.RouteStats, handler.Stats)
		apiRoutes.GET(constants.RouteHealth, func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
		apiRoutes.GET("/version", api.Version)
	}

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr:   addr,
		constants.LogFieldOracle: cfg.OracleName,
		"version":                version.Version,
	})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}
