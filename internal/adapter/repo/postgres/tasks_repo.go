package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// TaskRepo is the durable side of the analysis queue: tasks are created here
// and loaded into the in-process scheduler by the monitor.
type TaskRepo struct{ Pool PgxPool }

// NewTaskRepo constructs a TaskRepo with the given pool.
func NewTaskRepo(p PgxPool) *TaskRepo { return &TaskRepo{Pool: p} }

const taskColumns = `id, candidate_id, COALESCE(session_id,''), priority, status, retry_count,
	COALESCE(last_error,''), next_retry_at, session_ended_at, created_at, updated_at`

// Create inserts a new task and returns its id.
func (r *TaskRepo) Create(ctx context.Context, t domain.AnalysisTask) (string, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.Create")
	defer span.End()
	id := t.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO analysis_tasks (id, candidate_id, session_id, priority, status, retry_count, last_error, session_ended_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.Pool.Exec(ctx, q, id, t.CandidateID, t.SessionID, t.Priority, t.Status, t.RetryCount, t.LastError, t.SessionEndedAt.UTC(), now, now)
	if err != nil {
		return "", fmt.Errorf("op=task.create: %w: %v", domain.ErrPersistence, err)
	}
	return id, nil
}

// Get loads a task by id.
func (r *TaskRepo) Get(ctx context.Context, id string) (domain.AnalysisTask, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.Get")
	defer span.End()
	q := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE id=$1`
	t, err := scanTask(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.AnalysisTask{}, fmt.Errorf("op=task.get: %w", err)
	}
	return t, nil
}

// UpdateStatus moves a task to a new status and clears any pending retry
// schedule; abandoned tasks must never ripen again.
func (r *TaskRepo) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, lastError string) error {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.UpdateStatus")
	defer span.End()
	q := `UPDATE analysis_tasks SET status=$2, last_error=$3, next_retry_at=NULL, updated_at=$4 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, status, lastError, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=task.update_status: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// ScheduleRetry marks a task failed with a ripen time for the next attempt.
func (r *TaskRepo) ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, "tasks.ScheduleRetry")
	defer span.End()
	q := `UPDATE analysis_tasks SET status=$2, retry_count=$3, next_retry_at=$4, last_error=$5, updated_at=$6 WHERE id=$1`
	if _, err := r.Pool.Exec(ctx, q, id, domain.TaskFailed, retryCount, nextRetryAt.UTC(), lastError, time.Now().UTC()); err != nil {
		return fmt.Errorf("op=task.schedule_retry: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// ListPending returns pending tasks ordered by tier then age.
func (r *TaskRepo) ListPending(ctx context.Context, limit int) ([]domain.AnalysisTask, error) {
	q := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE status=$1 ORDER BY priority ASC, created_at ASC LIMIT $2`
	return r.list(ctx, "tasks.ListPending", "task.list_pending", q, domain.TaskPending, limit)
}

// ListProcessingOlderThan returns tasks stuck in processing since before the
// cutoff, presumed orphaned by a crashed worker.
func (r *TaskRepo) ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.AnalysisTask, error) {
	q := `SELECT ` + taskColumns + ` FROM analysis_tasks WHERE status=$1 AND updated_at < $2 ORDER BY updated_at ASC LIMIT $3`
	return r.list(ctx, "tasks.ListProcessingOlderThan", "task.list_stale", q, domain.TaskProcessing, cutoff.UTC(), limit)
}

// ListRetryable returns failed tasks whose retry has ripened and whose retry
// count is within the ceiling.
func (r *TaskRepo) ListRetryable(ctx context.Context, now time.Time, maxRetries, limit int) ([]domain.AnalysisTask, error) {
	q := `SELECT ` + taskColumns + ` FROM analysis_tasks
		WHERE status=$1 AND retry_count <= $2 AND next_retry_at IS NOT NULL AND next_retry_at <= $3
		ORDER BY next_retry_at ASC LIMIT $4`
	return r.list(ctx, "tasks.ListRetryable", "task.list_retryable", q, domain.TaskFailed, maxRetries, now.UTC(), limit)
}

func (r *TaskRepo) list(ctx context.Context, spanName, op, q string, args ...any) ([]domain.AnalysisTask, error) {
	tracer := otel.Tracer("repo.tasks")
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=%s: %w: %v", op, domain.ErrPersistence, err)
	}
	defer rows.Close()
	var out []domain.AnalysisTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("op=%s: %w", op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=%s: %w: %v", op, domain.ErrPersistence, err)
	}
	return out, nil
}

func scanTask(row pgx.Row) (domain.AnalysisTask, error) {
	var t domain.AnalysisTask
	var nextRetry *time.Time
	err := row.Scan(&t.ID, &t.CandidateID, &t.SessionID, &t.Priority, &t.Status, &t.RetryCount,
		&t.LastError, &nextRetry, &t.SessionEndedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AnalysisTask{}, err
		}
		return domain.AnalysisTask{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if nextRetry != nil {
		t.NextRetryAt = *nextRetry
	}
	return t, nil
}
