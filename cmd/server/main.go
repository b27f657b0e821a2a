// Command server starts the interview session HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpserver "github.com/hireloop/interview-analyzer/internal/adapter/httpserver"
	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/adapter/repo/postgres"
	"github.com/hireloop/interview-analyzer/internal/adapter/repo/redisstore"
	"github.com/hireloop/interview-analyzer/internal/app"
	"github.com/hireloop/interview-analyzer/internal/config"
	"github.com/hireloop/interview-analyzer/internal/session"
	"github.com/hireloop/interview-analyzer/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()

	candRepo := postgres.NewCandidateRepo(pool)
	taskRepo := postgres.NewTaskRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)
	snapRepo := postgres.NewSnapshotRepo(pool)
	cache := redisstore.NewSessionCache(rdb, cfg.SnapshotTTL)

	registry := session.NewRegistry(cfg.SessionShards, candRepo, snapRepo, taskRepo, cache, cfg.RecordingDir)
	if restored, err := registry.Restore(ctx); err != nil {
		slog.Warn("session restore from cache failed", slog.Any("error", err))
	} else if restored > 0 {
		slog.Info("sessions restored after restart", slog.Int("count", restored))
	}
	go registry.RunSnapshotter(ctx, cfg.SnapshotInterval)

	analysisSvc := usecase.NewAnalysisService(candRepo, resultRepo)

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	redisCheck := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

	srv := httpserver.NewServer(cfg, registry, analysisSvc, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer shutdownCancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
	// Final cache flush so the next process can restore in-flight interviews.
	registry.Snapshot(shutdownCtx)
}
