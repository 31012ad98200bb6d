package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/linguapath-backend/internal/data/db"
	"github.com/yungbote/linguapath-backend/internal/observability"
	"github.com/yungbote/linguapath-backend/internal/platform/cache"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type Clients struct {
	DB      *db.Service
	Cache   cache.Store
	Metrics *observability.Metrics
}

func wireClients(ctx context.Context, cfg Config, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	dbService, err := db.NewService(cfg.DB(), log)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		_ = dbService.Close()
		return Clients{}, fmt.Errorf("automigrate: %w", err)
	}

	store, err := cache.New(ctx, cfg.CacheStore(), log)
	if err != nil {
		_ = dbService.Close()
		return Clients{}, fmt.Errorf("init cache %s: %w", cfg.Cache.Backend, err)
	}
	log.Info("Report cache ready", "backend", cfg.Cache.Backend, "versioned", cfg.Reports.CacheVersioned)

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		if sqlDB, err := dbService.DB().DB(); err == nil {
			metrics.RegisterDB(sqlDB, cfg.Database.Driver)
		}
	}

	return Clients{DB: dbService, Cache: store, Metrics: metrics}, nil
}

func (c *Clients) GormDB() *gorm.DB {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.DB()
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
