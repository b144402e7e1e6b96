package storage

import "gorm.io/gorm"

// BattleRecord is the persisted outcome of one battle session.
type BattleRecord struct {
	gorm.Model
	BattleTag string `json:"battle_tag"`
	Format    string `json:"format"`
	Oracle    string `json:"oracle"`
	// Outcome is one of win, loss, forfeit.
	Outcome    string `json:"outcome"`
	Turns      int    `json:"turns"`
	Stalls     int    `json:"stalls"`
	Fallbacks  int    `json:"fallbacks"`
	Degraded   bool   `json:"degraded"`
	DurationMS int64  `json:"duration_ms"`
}

// AgentStats aggregates all recorded battles.
type AgentStats struct {
	Battles   int64 `json:"battles"`
	Wins      int64 `json:"wins"`
	Losses    int64 `json:"losses"`
	Forfeits  int64 `json:"forfeits"`
	Stalls    int64 `json:"stalls"`
	Fallbacks int64 `json:"fallbacks"`
}

// Repository persists battle outcomes and serves aggregates.
type Repository interface {
	SaveResult(rec *BattleRecord) error
	ListResults(limit int) ([]BattleRecord, error)
	Stats() (*AgentStats, error)
}
