package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// SnapshotRepo durably stores the full session transcript at end time.
// Workers analyze from these rows, never from live registry state.
type SnapshotRepo struct{ Pool PgxPool }

// NewSnapshotRepo constructs a SnapshotRepo with the given pool.
func NewSnapshotRepo(p PgxPool) *SnapshotRepo { return &SnapshotRepo{Pool: p} }

// Save upserts the transcript keyed by session id, so retried end-session
// calls are idempotent.
func (r *SnapshotRepo) Save(ctx context.Context, s domain.InterviewSession) error {
	tracer := otel.Tracer("repo.snapshots")
	ctx, span := tracer.Start(ctx, "snapshots.Save")
	defer span.End()
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("op=snapshot.save: %w: %v", domain.ErrInternal, err)
	}
	q := `INSERT INTO session_snapshots (session_id, candidate_id, ended_at, payload, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (session_id) DO UPDATE SET payload=EXCLUDED.payload, ended_at=EXCLUDED.ended_at`
	_, err = r.Pool.Exec(ctx, q, s.ID, s.CandidateID, s.EndedAt.UTC(), payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=snapshot.save: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetBySession loads the transcript for one session.
func (r *SnapshotRepo) GetBySession(ctx context.Context, sessionID string) (domain.InterviewSession, error) {
	tracer := otel.Tracer("repo.snapshots")
	ctx, span := tracer.Start(ctx, "snapshots.GetBySession")
	defer span.End()
	q := `SELECT payload FROM session_snapshots WHERE session_id=$1`
	return r.scanSnapshot(r.Pool.QueryRow(ctx, q, sessionID), "snapshot.get_by_session")
}

// GetLatestByCandidate loads the most recently ended transcript for a
// candidate, used when a task carries no session id.
func (r *SnapshotRepo) GetLatestByCandidate(ctx context.Context, candidateID string) (domain.InterviewSession, error) {
	tracer := otel.Tracer("repo.snapshots")
	ctx, span := tracer.Start(ctx, "snapshots.GetLatestByCandidate")
	defer span.End()
	q := `SELECT payload FROM session_snapshots WHERE candidate_id=$1 ORDER BY ended_at DESC LIMIT 1`
	return r.scanSnapshot(r.Pool.QueryRow(ctx, q, candidateID), "snapshot.get_latest")
}

func (r *SnapshotRepo) scanSnapshot(row pgx.Row, op string) (domain.InterviewSession, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InterviewSession{}, fmt.Errorf("op=%s: %w", op, domain.ErrSessionNotFound)
		}
		return domain.InterviewSession{}, fmt.Errorf("op=%s: %w: %v", op, domain.ErrPersistence, err)
	}
	var s domain.InterviewSession
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=%s: %w: %v", op, domain.ErrInternal, err)
	}
	return s, nil
}
