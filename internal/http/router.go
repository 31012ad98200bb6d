package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/linguapath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/linguapath-backend/internal/http/middleware"
	"github.com/yungbote/linguapath-backend/internal/observability"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware
	CORSOrigins    []string

	// ServiceName enables otelgin spans when set.
	ServiceName string

	HealthHandler   *httpH.HealthHandler
	ReportHandler   *httpH.ReportHandler
	ProgressHandler *httpH.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	auth := cfg.AuthMiddleware
	if auth == nil {
		auth = httpMW.NewAuthMiddleware(cfg.Log, "")
	}

	// Reports
	if cfg.ReportHandler != nil {
		rep := r.Group("/report", auth.RequireAuth())
		self := auth.RequireSelf("userId")
		rep.GET("/program/:userId/:programId", self, cfg.ReportHandler.ProgramReport)
		rep.GET("/program/:userId/:programId/concepts", self, cfg.ReportHandler.ProgramConcepts)
		rep.GET("/user/:userId/summary", self, cfg.ReportHandler.UserSummary)
		rep.GET("/attempts/:userId/:subconceptId", self, cfg.ReportHandler.UserAttempts)
	}

	// Progress writes
	if cfg.ProgressHandler != nil {
		prog := r.Group("/progress", auth.RequireAuth())
		prog.POST("/attempts", cfg.ProgressHandler.RecordAttempt)
		prog.PUT("/completion/:userId/:unitId", auth.RequireSelf("userId"), cfg.ProgressHandler.SetUnitCompletion)
	}

	return r
}
