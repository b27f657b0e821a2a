package session_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-analyzer/internal/adapter/repo/redisstore"
	"github.com/hireloop/interview-analyzer/internal/domain"
	"github.com/hireloop/interview-analyzer/internal/domain/mocks"
	"github.com/hireloop/interview-analyzer/internal/session"
)

// A replacement process must pick up the previous process's cached live
// sessions and carry the interviews forward.
func TestRestore_RebuiltRegistryServesSnapshottedSession(t *testing.T) {
	t.Parallel()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	cache := redisstore.NewSessionCache(rdb, time.Hour)

	candidates := &mocks.MockCandidateRepository{}
	snapshots := &mocks.MockSnapshotRepository{}
	tasks := &mocks.MockTaskRepository{}
	expectCandidate(candidates, "cand-20")

	ctx := context.Background()
	old := session.NewRegistry(4, candidates, snapshots, tasks, cache, "recordings")
	sid, err := old.Create(ctx, "cand-20")
	require.NoError(t, err)
	qid, err := old.AddQuestion(ctx, sid, session.QuestionInput{
		Text: "What broke in your last deploy?", Category: domain.CategoryTechnical,
	})
	require.NoError(t, err)
	_, err = old.AddAnswer(ctx, sid, qid, session.AnswerInput{Text: "A migration locked the tasks table."})
	require.NoError(t, err)
	old.Snapshot(ctx)

	// Simulated restart: a fresh registry over the same cache.
	reborn := session.NewRegistry(4, candidates, snapshots, tasks, cache, "recordings")
	restored, err := reborn.Restore(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, restored)

	s, err := reborn.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, s.Status)
	require.Len(t, s.Questions, 1)
	require.Len(t, s.Answers, 1)

	// The interview continues where it left off.
	_, err = reborn.AddQuestion(ctx, sid, session.QuestionInput{
		Text: "How did you unblock it?", Category: domain.CategoryTechnical,
	})
	require.NoError(t, err)
}
