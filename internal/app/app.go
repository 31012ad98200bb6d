package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/linguapath-backend/internal/http"
	"github.com/yungbote/linguapath-backend/internal/observability"
	"github.com/yungbote/linguapath-backend/internal/platform/envutil"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *http.Server

	otelShutdown func(context.Context) error
}

// New loads configuration from the environment and wires the full server.
func New() (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	shutdown := observability.InitOTel(context.Background(), log, cfg.Otel)
	a, err := Build(context.Background(), log, cfg)
	if err != nil {
		_ = shutdown(context.Background())
		log.Sync()
		return nil, err
	}
	a.otelShutdown = shutdown
	return a, nil
}

// Build wires clients, repos, services and the HTTP server from cfg.
func Build(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	clients, err := wireClients(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	reposet := wireRepos(clients.GormDB(), log)
	serviceset := wireServices(clients.GormDB(), log, cfg, reposet, clients)
	handlerset := wireHandlers(log, serviceset, clients)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, handlerset, middleware, clients)

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
		Server:   server,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
