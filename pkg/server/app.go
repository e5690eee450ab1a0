package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "AstroPull/internal/domain/repository"
	"AstroPull/internal/usecase"
	"AstroPull/pkg/cache"
	pkgch "AstroPull/pkg/clickhouse"
	"AstroPull/pkg/config"
	xhttp "AstroPull/pkg/http"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	pipeline    *usecase.Pipeline
	scoreboard  *usecase.Scoreboard
	runJob      *usecase.RunJob
	runQueue    *queue.RedisQueue
	chClient    *pkgch.Client
	redisCache  *cache.RedisCache
	publisher   domrepo.Publisher
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	scoreboard *usecase.Scoreboard,
	runJob *usecase.RunJob,
	runQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	redisCache *cache.RedisCache,
	publisher domrepo.Publisher,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		pipeline:   pipeline,
		scoreboard: scoreboard,
		runJob:     runJob,
		runQueue:   runQueue,
		chClient:   chClient,
		redisCache: redisCache,
		publisher:  publisher,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithRequestMetrics(a.l, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, serverOpts...)

	// Start the queue worker that drains run requests.
	if a.runQueue != nil {
		a.runQueue.RegisterJob(a.runJob)
		if err := a.runQueue.Start(); err != nil {
			a.l.Error("run queue start error", applogger.Error(err))
			return err
		}
	}

	// Kick off the initial run so the scoreboard is populated without
	// waiting for the first POST /api/run.
	go func() {
		initCtx, initCancel := context.WithTimeout(ctx, 30*time.Minute)
		defer initCancel()
		if err := a.runJob.Handle(initCtx, usecase.RunPayload{}); err != nil {
			a.l.Error("initial run failed", applogger.Error(err))
		}
	}()

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("astropull started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.runQueue != nil {
		if err := a.runQueue.Stop(shutdownCtx); err != nil {
			a.l.Warn("run queue stop error", applogger.Error(err))
		}
	}

	// Flush any aggregated logs before the publisher goes away.
	a.l.RemoveCollector()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
