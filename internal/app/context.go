package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
)

// AppContext holds shared dependencies (Config, DB, Redis, Logger)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
	}
}
