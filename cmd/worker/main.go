// Command worker runs the analysis scheduler: the monitor loop and the
// bounded worker pool that turns ended interviews into analysis results.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/adapter/repo/postgres"
	"github.com/hireloop/interview-analyzer/internal/analysis"
	"github.com/hireloop/interview-analyzer/internal/config"
	"github.com/hireloop/interview-analyzer/internal/domain"
	"github.com/hireloop/interview-analyzer/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
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

	// Dedicated metrics endpoint; the worker serves no API.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	candRepo := postgres.NewCandidateRepo(pool)
	taskRepo := postgres.NewTaskRepo(pool)
	resultRepo := postgres.NewResultRepo(pool)
	snapRepo := postgres.NewSnapshotRepo(pool)

	weights, err := analysis.LoadWeightTable(cfg.ScoringWeightsFile)
	if err != nil {
		slog.Error("failed to load scoring weights", slog.Any("error", err))
		os.Exit(1)
	}
	validator := analysis.NewValidator(analysis.ValidatorPolicy{
		MinQuestions:          cfg.MinQuestions,
		MinValidAnswers:       cfg.MinValidAnswers,
		ValidityRateThreshold: cfg.ValidityRateThreshold,
		MinAnswerLength:       cfg.MinAnswerLength,
		MinUniqueWords:        cfg.MinUniqueWords,
	})
	heuristic := analysis.NewHeuristicEvaluator(validator, weights)

	var llm domain.Evaluator
	if cfg.LLMEnabled() {
		llm = analysis.NewLLMEvaluator(cfg)
		slog.Info("external evaluator enabled", slog.String("model", cfg.LLMModel))
	} else {
		slog.Info("no LLM key configured, heuristic evaluator only")
	}
	pipeline := analysis.NewPipeline(validator, heuristic, llm, weights)

	sch := scheduler.New(taskRepo, candRepo, snapRepo, resultRepo, pipeline, scheduler.Options{
		WorkerCount:        cfg.WorkerCount,
		MonitorInterval:    cfg.MonitorInterval,
		StalenessThreshold: cfg.StalenessThreshold,
		DiscoveryBatchSize: cfg.DiscoveryBatchSize,
		Retry: domain.RetryPolicy{
			MaxRetries:   cfg.RetryMaxRetries,
			InitialDelay: cfg.RetryInitialDelay,
			MaxDelay:     cfg.RetryMaxDelay,
			Multiplier:   cfg.RetryMultiplier,
			Jitter:       cfg.RetryJitter,
		},
	})

	slog.Info("analysis worker starting",
		slog.Int("workers", cfg.WorkerCount),
		slog.Duration("monitor_interval", cfg.MonitorInterval))
	sch.Run(ctx)
}
