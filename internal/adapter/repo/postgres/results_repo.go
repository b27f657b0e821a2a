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

// ResultRepo persists finished analyses. Rows are append-only; the newest
// row per candidate is the authoritative result.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Create inserts a new result and returns its id.
func (r *ResultRepo) Create(ctx context.Context, res domain.AnalysisResult) (string, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Create")
	defer span.End()
	id := res.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	q := `INSERT INTO analysis_results
		(id, candidate_id, session_id, technical, communication, problem_solving, cultural_fit, overall,
		 feedback, strengths, weaknesses, recommendations, red_flags, recommendation, valid, invalid_reason, evaluator, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
	_, err := r.Pool.Exec(ctx, q, id, res.CandidateID, res.SessionID,
		res.Scores.Technical, res.Scores.Communication, res.Scores.ProblemSolving, res.Scores.CulturalFit, res.Scores.Overall,
		res.Feedback, res.Strengths, res.Weaknesses, res.Recommendations, res.RedFlags,
		res.Recommendation, res.Valid, res.InvalidReason, res.Evaluator, createdAt)
	if err != nil {
		return "", fmt.Errorf("op=result.create: %w: %v", domain.ErrPersistence, err)
	}
	return id, nil
}

// GetLatestByCandidate loads the newest result for a candidate.
func (r *ResultRepo) GetLatestByCandidate(ctx context.Context, candidateID string) (domain.AnalysisResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.GetLatestByCandidate")
	defer span.End()
	q := `SELECT id, candidate_id, COALESCE(session_id,''), technical, communication, problem_solving, cultural_fit, overall,
		COALESCE(feedback,''), strengths, weaknesses, recommendations, red_flags, recommendation, valid, COALESCE(invalid_reason,''), evaluator, created_at
		FROM analysis_results WHERE candidate_id=$1 ORDER BY created_at DESC LIMIT 1`
	row := r.Pool.QueryRow(ctx, q, candidateID)
	var res domain.AnalysisResult
	err := row.Scan(&res.ID, &res.CandidateID, &res.SessionID,
		&res.Scores.Technical, &res.Scores.Communication, &res.Scores.ProblemSolving, &res.Scores.CulturalFit, &res.Scores.Overall,
		&res.Feedback, &res.Strengths, &res.Weaknesses, &res.Recommendations, &res.RedFlags,
		&res.Recommendation, &res.Valid, &res.InvalidReason, &res.Evaluator, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AnalysisResult{}, fmt.Errorf("op=result.get_latest: %w", domain.ErrResultNotFound)
		}
		return domain.AnalysisResult{}, fmt.Errorf("op=result.get_latest: %w: %v", domain.ErrPersistence, err)
	}
	return res, nil
}
