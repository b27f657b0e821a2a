package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/analysis"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

// Scheduler owns the priority queue, the worker pool and the monitor loop.
type Scheduler struct {
	queue      *PriorityQueue
	tasks      domain.TaskRepository
	candidates domain.CandidateRepository
	snapshots  domain.SnapshotRepository
	results    domain.ResultRepository
	pipeline   *analysis.Pipeline
	retry      domain.RetryPolicy

	workerCount        int
	monitorInterval    time.Duration
	stalenessThreshold time.Duration
	discoveryBatch     int
}

// Options tunes the scheduler; zero values fall back to defaults.
type Options struct {
	WorkerCount        int
	MonitorInterval    time.Duration
	StalenessThreshold time.Duration
	DiscoveryBatchSize int
	Retry              domain.RetryPolicy
}

// New constructs a Scheduler.
func New(tasks domain.TaskRepository, candidates domain.CandidateRepository, snapshots domain.SnapshotRepository, results domain.ResultRepository, pipeline *analysis.Pipeline, opts Options) *Scheduler {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = 30 * time.Second
	}
	if opts.StalenessThreshold <= 0 {
		opts.StalenessThreshold = 10 * time.Minute
	}
	if opts.DiscoveryBatchSize <= 0 {
		opts.DiscoveryBatchSize = 50
	}
	if opts.Retry == (domain.RetryPolicy{}) {
		opts.Retry = domain.DefaultRetryPolicy()
	}
	return &Scheduler{
		queue:              NewPriorityQueue(),
		tasks:              tasks,
		candidates:         candidates,
		snapshots:          snapshots,
		results:            results,
		pipeline:           pipeline,
		retry:              opts.Retry,
		workerCount:        opts.WorkerCount,
		monitorInterval:    opts.MonitorInterval,
		stalenessThreshold: opts.StalenessThreshold,
		discoveryBatch:     opts.DiscoveryBatchSize,
	}
}

// Queue exposes the shared queue, mainly for tests.
func (s *Scheduler) Queue() *PriorityQueue { return s.queue }

// Run starts the monitor and the worker pool and blocks until ctx is
// cancelled and all in-flight tasks have finished.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runMonitor(ctx)
	}()
	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.runWorker(ctx, id)
		}(i)
	}
	wg.Wait()
	s.queue.Close()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) runWorker(ctx context.Context, id int) {
	lg := slog.Default().With(slog.Int("worker", id))
	for {
		t, ok := s.queue.TryDequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.queue.Wake():
				continue
			}
		}
		s.execute(ctx, lg, t)
		s.queue.Done(t.ID)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// execute runs one task to a terminal state. A failure at any step marks the
// task failed and schedules a retry; it never crashes the worker or blocks
// subsequent tasks.
func (s *Scheduler) execute(ctx context.Context, lg *slog.Logger, t domain.AnalysisTask) {
	start := time.Now()
	observability.TasksProcessing.Inc()
	defer observability.TasksProcessing.Dec()

	err := s.runSteps(ctx, lg, t)
	if err != nil {
		s.handleFailure(ctx, lg, t, err)
		return
	}
	observability.TasksCompletedTotal.Inc()
	observability.AnalysisDuration.Observe(time.Since(start).Seconds())
	lg.Info("analysis task completed",
		slog.String("task_id", t.ID),
		slog.String("candidate_id", t.CandidateID),
		slog.Duration("took", time.Since(start)))
}

func (s *Scheduler) runSteps(ctx context.Context, lg *slog.Logger, t domain.AnalysisTask) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: task panicked: %v", domain.ErrInternal, rec)
			lg.Error("analysis task panic recovered", slog.String("task_id", t.ID), slog.Any("panic", rec))
		}
	}()

	if uerr := s.tasks.UpdateStatus(ctx, t.ID, domain.TaskProcessing, ""); uerr != nil {
		return fmt.Errorf("op=scheduler.mark_processing: %w: %v", domain.ErrPersistence, uerr)
	}
	if uerr := s.candidates.SetAnalysisStatus(ctx, t.CandidateID, domain.AnalysisProcessing); uerr != nil {
		lg.Warn("failed to set candidate processing status", slog.Any("error", uerr))
	}

	snap, err := s.loadSnapshot(ctx, t)
	if err != nil {
		return err
	}

	result, err := s.pipeline.Analyze(ctx, snap)
	if err != nil {
		return fmt.Errorf("op=scheduler.analyze: %w", err)
	}

	if err := s.persistResult(ctx, t, result); err != nil {
		return err
	}
	if uerr := s.tasks.UpdateStatus(ctx, t.ID, domain.TaskCompleted, ""); uerr != nil {
		return fmt.Errorf("op=scheduler.mark_completed: %w: %v", domain.ErrPersistence, uerr)
	}
	return nil
}

func (s *Scheduler) loadSnapshot(ctx context.Context, t domain.AnalysisTask) (domain.InterviewSession, error) {
	if t.SessionID != "" {
		snap, err := s.snapshots.GetBySession(ctx, t.SessionID)
		if err == nil {
			return snap, nil
		}
	}
	snap, err := s.snapshots.GetLatestByCandidate(ctx, t.CandidateID)
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=scheduler.load_snapshot: %w", err)
	}
	return snap, nil
}

func (s *Scheduler) persistResult(ctx context.Context, t domain.AnalysisTask, result domain.AnalysisResult) error {
	if _, err := s.results.Create(ctx, result); err != nil {
		return fmt.Errorf("op=scheduler.persist_result: %w: %v", domain.ErrPersistence, err)
	}
	if err := s.candidates.SetScores(ctx, t.CandidateID, result.Scores, result.Feedback); err != nil {
		return fmt.Errorf("op=scheduler.persist_scores: %w: %v", domain.ErrPersistence, err)
	}
	status := domain.AnalysisCompleted
	if !result.Valid {
		status = domain.AnalysisInvalid
	}
	if err := s.candidates.SetAnalysisStatus(ctx, t.CandidateID, status); err != nil {
		return fmt.Errorf("op=scheduler.persist_status: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// handleFailure records the error, schedules a retry below the ceiling and
// permanently abandons the task beyond it.
func (s *Scheduler) handleFailure(ctx context.Context, lg *slog.Logger, t domain.AnalysisTask, cause error) {
	observability.TasksFailedTotal.Inc()
	nextRetry := t.RetryCount + 1

	if s.retry.Exhausted(nextRetry) {
		observability.TasksAbandonedTotal.Inc()
		lg.Error("analysis task abandoned past retry ceiling",
			slog.String("task_id", t.ID),
			slog.String("candidate_id", t.CandidateID),
			slog.Int("retries", t.RetryCount),
			slog.Any("error", cause))
		if err := s.tasks.UpdateStatus(ctx, t.ID, domain.TaskFailed, cause.Error()); err != nil {
			lg.Error("failed to mark task failed", slog.Any("error", err))
		}
		if err := s.candidates.SetAnalysisStatus(ctx, t.CandidateID, domain.AnalysisFailed); err != nil {
			lg.Error("failed to mark candidate analysis failed", slog.Any("error", err))
		}
		return
	}

	delay := s.retry.NextDelay(t.RetryCount)
	observability.TasksRetriedTotal.Inc()
	lg.Warn("analysis task failed, retry scheduled",
		slog.String("task_id", t.ID),
		slog.Int("retry", nextRetry),
		slog.Duration("delay", delay),
		slog.Any("error", cause))
	if err := s.tasks.ScheduleRetry(ctx, t.ID, nextRetry, time.Now().UTC().Add(delay), cause.Error()); err != nil {
		lg.Error("failed to schedule retry", slog.String("task_id", t.ID), slog.Any("error", err))
	}
}
