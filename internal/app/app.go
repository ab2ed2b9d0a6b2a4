package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/knowledgemap-backend/internal/data/db"
	"github.com/yungbote/knowledgemap-backend/internal/data/store"
	server "github.com/yungbote/knowledgemap-backend/internal/http"
	"github.com/yungbote/knowledgemap-backend/internal/observability"
	"github.com/yungbote/knowledgemap-backend/internal/pkg/dbctx"
	"github.com/yungbote/knowledgemap-backend/internal/platform/logger"
	"github.com/yungbote/knowledgemap-backend/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *db.Service
	Store    *store.Store
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	server       *server.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log, cfg.MetricsEnabled)

	dbs, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	st := store.New(dbs.DB(), log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	hub := realtime.NewSSEHub(log)

	serviceset, err := wireServices(log, cfg, st, clients)
	if err != nil {
		_ = dbs.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, hub)
	srv := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           dbs,
		Store:        st,
		Router:       srv.Engine,
		Cfg:          cfg,
		Clients:      clients,
		Services:     serviceset,
		SSEHub:       hub,
		Metrics:      metrics,
		server:       srv,
		otelShutdown: otelShutdown,
	}, nil
}

// Start runs the background parts: the event forwarder into the SSE hub, the
// task worker and the queue depth sampler.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.Clients.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		cancel()
		a.cancel = nil
		return fmt.Errorf("start event forwarder: %w", err)
	}
	if a.Services.Worker != nil {
		a.Services.Worker.Start(ctx)
	}
	a.Metrics.StartTaskQueueCollector(ctx, a.Log, func(ctx context.Context) (map[string]int64, error) {
		return a.Store.CountTasksByStatus(dbctx.Of(ctx))
	}, 0)
	return nil
}

// Serve starts the background parts and serves HTTP until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.server.Run(ctx, a.Cfg.HTTPAddr, shutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Worker != nil {
		a.Services.Worker.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.Clients.Bus != nil {
		if err := a.Clients.Bus.Close(); err != nil {
			a.Log.Warn("event bus close failed", "error", err)
		}
	}
	if err := a.Clients.Neo4j.Close(ctx); err != nil {
		a.Log.Warn("neo4j close failed", "error", err)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	a.Log.Sync()
}
