package postgres_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-analyzer/internal/adapter/repo/postgres"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

func TestResultRepo_Create(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewResultRepo(pool)

	id, err := repo.Create(context.Background(), domain.AnalysisResult{
		ID:          "res-1",
		CandidateID: "cand-1",
		Scores:      domain.Scores{Overall: 72},
		Valid:       true,
		Evaluator:   domain.EvaluatorHeuristic,
	})
	require.NoError(t, err)
	assert.Equal(t, "res-1", id, "caller-assigned id is kept")

	pool.execErr = assert.AnError
	_, err = repo.Create(context.Background(), domain.AnalysisResult{CandidateID: "cand-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestResultRepo_GetLatestByCandidate_NotFound(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewResultRepo(pool)

	_, err := repo.GetLatestByCandidate(context.Background(), "cand-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResultNotFound)
}
