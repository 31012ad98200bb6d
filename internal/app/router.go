package app

import (
	"github.com/yungbote/linguapath-backend/internal/http"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, clients Clients) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         clients.Metrics,
		AuthMiddleware:  middleware.Auth,
		CORSOrigins:     cfg.CORSOrigins,
		ServiceName:     serviceName,
		HealthHandler:   handlers.Health,
		ReportHandler:   handlers.Report,
		ProgressHandler: handlers.Progress,
	})
}
