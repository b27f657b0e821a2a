package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-analyzer/internal/adapter/repo/postgres"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

func TestTaskRepo_Create(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewTaskRepo(pool)

	id, err := repo.Create(context.Background(), domain.AnalysisTask{
		CandidateID:    "cand-1",
		SessionID:      "sess-1",
		Priority:       domain.PriorityHigh,
		Status:         domain.TaskPending,
		SessionEndedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id, "id is generated when absent")

	pool.execErr = assert.AnError
	_, err = repo.Create(context.Background(), domain.AnalysisTask{CandidateID: "cand-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "op=task.create")
}

func TestTaskRepo_ScheduleRetry(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := postgres.NewTaskRepo(pool)

	ripen := time.Now().UTC().Add(4 * time.Second)
	err := repo.ScheduleRetry(context.Background(), "t1", 2, ripen, "evaluator timeout")
	require.NoError(t, err)
	require.Len(t, pool.execArgs, 1)
	assert.Equal(t, domain.TaskFailed, pool.execArgs[0][1])
	assert.Equal(t, 2, pool.execArgs[0][2])
	assert.Equal(t, ripen, pool.execArgs[0][3])
}

func TestTaskRepo_ListRetryable(t *testing.T) {
	ended := time.Now().UTC().Add(-2 * time.Hour)
	pool := &poolStub{rows: &rowsStub{scans: []func(dest ...any) error{
		func(dest ...any) error {
			set(dest[0], "t1")
			set(dest[1], "cand-1")
			set(dest[2], "sess-1")
			set(dest[3], domain.PriorityMedium)
			set(dest[4], domain.TaskFailed)
			set(dest[5], 1)
			set(dest[6], "llm 503")
			set(dest[7], ptr(time.Now().UTC().Add(-time.Minute)))
			set(dest[8], ended)
			set(dest[9], ended)
			set(dest[10], ended)
			return nil
		},
	}}}
	repo := postgres.NewTaskRepo(pool)

	tasks, err := repo.ListRetryable(context.Background(), time.Now().UTC(), 3, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, 1, tasks[0].RetryCount)
	assert.Equal(t, "llm 503", tasks[0].LastError)
	assert.False(t, tasks[0].NextRetryAt.IsZero())
}

func TestTaskRepo_ListPending_QueryError(t *testing.T) {
	pool := &poolStub{queryErr: assert.AnError}
	repo := postgres.NewTaskRepo(pool)

	_, err := repo.ListPending(context.Background(), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func ptr[T any](v T) *T { return &v }
