package app

import (
	httpH "github.com/yungbote/linguapath-backend/internal/http/handlers"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Report   *httpH.ReportHandler
	Progress *httpH.ProgressHandler
}

func wireHandlers(log *logger.Logger, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if theDB := clients.GormDB(); theDB != nil {
		if sqlDB, err := theDB.DB(); err == nil {
			pinger = sqlDB
		}
	}
	return Handlers{
		Health:   httpH.NewHealthHandler(pinger),
		Report:   httpH.NewReportHandler(log, services.Reports),
		Progress: httpH.NewProgressHandler(log, services.Progress),
	}
}
