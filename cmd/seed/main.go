package main

import (
	"context"
	"os"

	"github.com/oggyb/loveknot/internal/cache"
	"github.com/oggyb/loveknot/internal/config"
	"github.com/oggyb/loveknot/internal/db"
	"github.com/oggyb/loveknot/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}
	defer db.Close(database)

	if err := db.SeedTestData(database); err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	// the sequence must re-read max(biodata_id) after the tables were rewritten
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.ResetSequence(context.Background(), cache.BiodataSequenceKey); err != nil {
		logger.Warn("failed to reset biodata sequence", "err", err)
	}

	logger.Info("seeding completed")
}
