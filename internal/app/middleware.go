package app

import (
	httpMW "github.com/yungbote/linguapath-backend/internal/http/middleware"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	auth := httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey)
	if !auth.Enabled() {
		log.Warn("JWT_SECRET_KEY is empty; report and progress routes are unauthenticated")
	}
	return Middleware{Auth: auth}
}
