package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/duinokary/supplychain-backend/internal/db"
	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/observability"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	tracingShutdown func(context.Context) error
	cancel          context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	tracingShutdown, err := observability.SetupTracing(context.Background(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(serviceset)
	router := wireRouter(cfg, log, serviceset, handlerset)

	return &App{
		Log:             log,
		DB:              theDB,
		Router:          router,
		Cfg:             cfg,
		Repos:           reposet,
		Services:        serviceset,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Start launches the background ledger outbox worker.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.LedgerJobWorker != nil {
		a.Services.LedgerJobWorker.Start(ctx)
	}
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.LedgerJobWorker != nil {
		a.Services.LedgerJobWorker.Wait()
	}
	if a.Services.LedgerNameCache != nil {
		if err := a.Services.LedgerNameCache.Close(); err != nil {
			a.Log.Warn("Name cache close failed", "error", err)
		}
	}
	if a.tracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracingShutdown(ctx); err != nil {
			a.Log.Warn("Tracing shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
