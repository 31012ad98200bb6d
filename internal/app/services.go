package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/linguapath-backend/internal/data/db"
	"github.com/yungbote/linguapath-backend/internal/modules/reports"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
	"github.com/yungbote/linguapath-backend/internal/services"
)

type Services struct {
	Aggregator       *reports.Aggregator
	Reports          reports.Service
	Invalidator      *reports.Invalidator
	Progress         services.ProgressService
	CurriculumImport services.CurriculumImportService
}

func wireServices(theDB *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	var cacheMetrics reports.CacheMetrics
	var writeMetrics services.WriteMetrics
	if clients.Metrics != nil {
		cacheMetrics = clients.Metrics
		writeMetrics = clients.Metrics
	}

	aggregator := reports.NewAggregator(reports.AggregatorDeps{
		Hierarchy:   repos.Curriculum,
		Attempts:    repos.Attempt,
		Completions: repos.UnitCompletion,
		Log:         log,
		Workers:     cfg.Reports.Workers,
	})
	cached := reports.NewCachedReports(reports.CachedReportsDeps{
		Inner:     aggregator,
		Store:     clients.Cache,
		Log:       log,
		Metrics:   cacheMetrics,
		TTL:       cfg.Reports.CacheTTL,
		Versioned: cfg.Reports.CacheVersioned,
	})
	// nested stage/unit/attempt lookups share the cache
	aggregator.UseChildReports(cached)

	invalidator := reports.NewInvalidator(reports.InvalidatorDeps{
		Hierarchy: repos.Curriculum,
		Store:     clients.Cache,
		Log:       log,
		Metrics:   cacheMetrics,
		Versioned: cfg.Reports.CacheVersioned,
	})

	tx := db.NewGormTxRunner(theDB)
	progress := services.NewProgressService(services.ProgressServiceDeps{
		Tx:                  tx,
		Log:                 log,
		Curriculum:          repos.Curriculum,
		Attempts:            repos.Attempt,
		Completions:         repos.UnitCompletion,
		Invalidator:         invalidator,
		Metrics:             writeMetrics,
		CompletionThreshold: cfg.Progress.UnitCompletionThreshold,
	})

	return Services{
		Aggregator:       aggregator,
		Reports:          cached,
		Invalidator:      invalidator,
		Progress:         progress,
		CurriculumImport: services.NewCurriculumImportService(tx, log, repos.Curriculum),
	}
}
