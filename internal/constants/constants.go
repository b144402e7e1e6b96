package constants

// Centralized constants for env keys, headers, routes and external services.
const (
	// Environment variable keys
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvConfigPath   = "POKEMON_AGENT_CONFIG"
	EnvDBPath       = "POKEMON_AGENT_DB"
	EnvDebug        = "POKEMON_AGENT_DEBUG"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"

	CacheControlHeader  = "Cache-Control"
	CacheControlNoCache = "no-cache, no-store, must-revalidate"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// OpenAI API endpoints and base URL
	OpenAIBaseURL             = "https://api.openai.com"
	OpenAIChatCompletionsPath = "/v1/chat/completions"

	// Default chat model used for strategy advice
	OpenAIChatModel = "gpt-4o"

	// Pokémon Showdown simulator websocket endpoint
	ShowdownServerURL = "wss://sim.psim.us/showdown/websocket"

	// Default battle format
	DefaultBattleFormat = "gen9randombattle"

	// Oracle advisor names accepted in configuration
	OracleOpenAI   = "openai"
	OracleScripted = "scripted"

	// Default sqlite database location
	DefaultDBPath = "pokemon-agent.db"

	// API routes
	RouteAPIPrefix    = "/api"
	RouteBattles      = "/battles"
	RouteBattleByID   = "/battles/:id"
	RouteBattleEvents = "/battles/:id/events"
	RouteResults      = "/results"
	RouteStats        = "/stats"
	RouteHealth       = "/health"

	// JSON keys and API error messages
	JSONKeyError = "error"

	ErrInvalidRequest       = "Invalid request"
	ErrBattleNotFound       = "Battle not found"
	ErrFailedStartBattle    = "Failed to start battle"
	ErrFailedFetchResults   = "Failed to fetch results"
	ErrFailedFetchStats     = "Failed to fetch stats"
	ErrStreamingUnsupported = "Streaming not supported"

	// Log field names
	LogFieldBattleID  = "battle_id"
	LogFieldBattleTag = "battle_tag"
	LogFieldTurn      = "turn"
	LogFieldAddr      = "addr"
	LogFieldOracle    = "oracle"
)
