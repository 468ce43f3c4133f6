package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/access"
	"github.com/oggyb/loveknot/internal/cache"
	"github.com/oggyb/loveknot/internal/config"
	"github.com/oggyb/loveknot/internal/payment"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
// created once in main and injected into every service.
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Gate       *access.Gate
	// Payments is nil when no payment gateway is configured.
	Payments payment.Gateway
}

// New creates a new AppContext
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *cache.RedisCache,
	logger *slog.Logger,
	gate *access.Gate,
	payments payment.Gateway,
) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Gate:       gate,
		Payments:   payments,
	}
}
