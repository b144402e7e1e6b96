package storage

import "gorm.io/gorm"

type sqliteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository wraps the gorm handle in the Repository
// interface.
func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) SaveResult(rec *BattleRecord) error {
	return r.db.Create(rec).Error
}

func (r *sqliteRepository) ListResults(limit int) ([]BattleRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []BattleRecord
	err := r.db.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *sqliteRepository) Stats() (*AgentStats, error) {
	var stats AgentStats
	var recs []BattleRecord
	if err := r.db.Find(&recs).Error; err != nil {
		return nil, err
	}
	for _, rec := range recs {
		stats.Battles++
		switch rec.Outcome {
		case "win":
			stats.Wins++
		case "loss":
			stats.Losses++
		case "forfeit":
			stats.Forfeits++
		}
		stats.Stalls += int64(rec.Stalls)
		stats.Fallbacks += int64(rec.Fallbacks)
	}
	return &stats, nil
}
