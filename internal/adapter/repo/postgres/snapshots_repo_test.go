package postgres_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-analyzer/internal/adapter/repo/postgres"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

func TestSnapshotRepo_GetBySession(t *testing.T) {
	session := domain.InterviewSession{
		ID:          "sess-1",
		CandidateID: "cand-1",
		Status:      domain.SessionCompleted,
		Questions:   []domain.Question{{ID: "q1", Text: "Why us?", Category: domain.CategoryGeneral}},
		Answers:     []domain.Answer{{ID: "a1", QuestionID: "q1", Text: "Because the problem space is interesting."}},
	}
	payload, err := json.Marshal(session)
	require.NoError(t, err)

	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		set(dest[0], payload)
		return nil
	}}}
	repo := postgres.NewSnapshotRepo(pool)

	got, err := repo.GetBySession(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	require.Len(t, got.Answers, 1)
	assert.Equal(t, "q1", got.Answers[0].QuestionID)
}

func TestSnapshotRepo_GetBySession_NotFound(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewSnapshotRepo(pool)

	_, err := repo.GetBySession(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSnapshotRepo_Save(t *testing.T) {
	pool := &poolStub{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewSnapshotRepo(pool)

	err := repo.Save(context.Background(), domain.InterviewSession{ID: "sess-1", CandidateID: "cand-1"})
	require.NoError(t, err)
	require.Len(t, pool.execArgs, 1)
	assert.Equal(t, "sess-1", pool.execArgs[0][0])

	pool.execErr = assert.AnError
	err = repo.Save(context.Background(), domain.InterviewSession{ID: "sess-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
