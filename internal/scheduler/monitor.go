package scheduler

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

// runMonitor periodically discovers analyzable interviews, recovers stale
// tasks and re-enqueues ripe retries.
func (s *Scheduler) runMonitor(ctx context.Context) {
	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("analysis monitor stopping")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	tracer := otel.Tracer("scheduler.monitor")
	ctx, span := tracer.Start(ctx, "Monitor.tick")
	defer span.End()

	discovered := s.discover(ctx)
	loaded := s.loadPending(ctx)
	recovered := s.recoverStale(ctx)
	retried := s.enqueueRetries(ctx)

	span.SetAttributes(
		attribute.Int("monitor.discovered", discovered),
		attribute.Int("monitor.loaded_pending", loaded),
		attribute.Int("monitor.recovered_stale", recovered),
		attribute.Int("monitor.retries_enqueued", retried),
	)
	if discovered+recovered+retried > 0 {
		slog.Info("monitor tick",
			slog.Int("discovered", discovered),
			slog.Int("loaded_pending", loaded),
			slog.Int("recovered_stale", recovered),
			slog.Int("retries_enqueued", retried))
	}
}

// discover creates tasks for candidates whose interview ended but whose
// analysis was never triggered, exactly once per candidate. The durable
// triggered flag guards against duplicate enqueue across ticks.
func (s *Scheduler) discover(ctx context.Context) int {
	cands, err := s.candidates.ListEndedUntriggered(ctx, s.discoveryBatch)
	if err != nil {
		slog.Error("monitor discovery failed", slog.Any("error", err))
		return 0
	}
	created := 0
	for _, c := range cands {
		won, err := s.candidates.MarkAnalysisTriggered(ctx, c.ID)
		if err != nil {
			slog.Error("failed to mark analysis triggered", slog.String("candidate_id", c.ID), slog.Any("error", err))
			continue
		}
		if !won {
			// Another tick or endSession already triggered; not an error.
			continue
		}
		endedAt := time.Now().UTC()
		if c.InterviewEndedAt != nil {
			endedAt = *c.InterviewEndedAt
		}
		t := domain.AnalysisTask{
			CandidateID:    c.ID,
			Priority:       domain.PriorityForAge(time.Since(endedAt)),
			Status:         domain.TaskPending,
			SessionEndedAt: endedAt,
			CreatedAt:      time.Now().UTC(),
		}
		id, err := s.tasks.Create(ctx, t)
		if err != nil {
			slog.Error("failed to create discovered task", slog.String("candidate_id", c.ID), slog.Any("error", err))
			continue
		}
		t.ID = id
		if err := s.candidates.SetAnalysisStatus(ctx, c.ID, domain.AnalysisPending); err != nil {
			slog.Warn("failed to set analysis status", slog.Any("error", err))
		}
		observability.TasksEnqueuedTotal.WithLabelValues(tierLabel(t.Priority)).Inc()
		s.queue.Enqueue(t)
		created++
	}
	return created
}

// loadPending pulls durable pending tasks into the in-process queue. The
// queue deduplicates by task id, so tasks already queued or in flight are
// skipped; this is also how tasks created by the API process reach the
// workers.
func (s *Scheduler) loadPending(ctx context.Context) int {
	pending, err := s.tasks.ListPending(ctx, s.discoveryBatch)
	if err != nil {
		slog.Error("monitor failed to list pending tasks", slog.Any("error", err))
		return 0
	}
	n := 0
	for _, t := range pending {
		// Recompute the tier from session age so stale pending tasks are not
		// scheduled with an outdated urgency.
		t.Priority = domain.PriorityForAge(time.Since(t.SessionEndedAt))
		if s.queue.Enqueue(t) {
			n++
		}
	}
	return n
}

// recoverStale resets tasks stuck in processing past the staleness
// threshold, presuming the worker crashed mid-task.
func (s *Scheduler) recoverStale(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-s.stalenessThreshold)
	stale, err := s.tasks.ListProcessingOlderThan(ctx, cutoff, s.discoveryBatch)
	if err != nil {
		slog.Error("monitor failed to list stale tasks", slog.Any("error", err))
		return 0
	}
	n := 0
	for _, t := range stale {
		slog.Warn("resetting stale analysis task",
			slog.String("task_id", t.ID),
			slog.Time("updated_at", t.UpdatedAt))
		if err := s.tasks.UpdateStatus(ctx, t.ID, domain.TaskPending, "reset by staleness monitor"); err != nil {
			slog.Error("failed to reset stale task", slog.String("task_id", t.ID), slog.Any("error", err))
			continue
		}
		t.Status = domain.TaskPending
		t.Priority = domain.PriorityForAge(time.Since(t.SessionEndedAt))
		s.queue.Done(t.ID) // the crashed run never released it
		if s.queue.Enqueue(t) {
			n++
		}
	}
	return n
}

// enqueueRetries re-queues failed tasks whose retry delay elapsed and whose
// retry count is below the ceiling. Tasks beyond the ceiling stay failed.
func (s *Scheduler) enqueueRetries(ctx context.Context) int {
	ripe, err := s.tasks.ListRetryable(ctx, time.Now().UTC(), s.retry.MaxRetries, s.discoveryBatch)
	if err != nil {
		slog.Error("monitor failed to list retryable tasks", slog.Any("error", err))
		return 0
	}
	n := 0
	for _, t := range ripe {
		if s.retry.Exhausted(t.RetryCount) {
			continue
		}
		if err := s.tasks.UpdateStatus(ctx, t.ID, domain.TaskPending, t.LastError); err != nil {
			slog.Error("failed to re-pend retryable task", slog.String("task_id", t.ID), slog.Any("error", err))
			continue
		}
		t.Status = domain.TaskPending
		t.Priority = domain.PriorityForAge(time.Since(t.SessionEndedAt))
		if s.queue.Enqueue(t) {
			n++
		}
	}
	return n
}
