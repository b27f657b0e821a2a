package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// CandidateRepo reads and writes the candidate records the pipeline anchors
// its state to.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

const candidateColumns = `id, name, job_title, company_name, interview_started_at, interview_ended_at,
	COALESCE(recording_file,''), COALESCE(recording_status,''), analysis_status, analysis_triggered,
	technical, communication, problem_solving, cultural_fit, overall, COALESCE(feedback,''), updated_at`

// Get loads a candidate by id.
func (r *CandidateRepo) Get(ctx context.Context, id string) (domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.Get")
	defer span.End()
	span.SetAttributes(attribute.String("db.sql.table", "candidates"))
	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE id=$1`
	return r.scanCandidate(r.Pool.QueryRow(ctx, q, id), "candidate.get")
}

func (r *CandidateRepo) scanCandidate(row pgx.Row, op string) (domain.Candidate, error) {
	var c domain.Candidate
	var tech, comm, prob, cult, overall *float64
	err := row.Scan(&c.ID, &c.Name, &c.JobTitle, &c.CompanyName, &c.InterviewStartedAt, &c.InterviewEndedAt,
		&c.RecordingFile, &c.RecordingStatus, &c.AnalysisStatus, &c.AnalysisTriggered,
		&tech, &comm, &prob, &cult, &overall, &c.Feedback, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, fmt.Errorf("op=%s: %w", op, domain.ErrCandidateNotFound)
		}
		return domain.Candidate{}, fmt.Errorf("op=%s: %w: %v", op, domain.ErrPersistence, err)
	}
	if overall != nil {
		c.Scores = &domain.Scores{
			Technical:      deref(tech),
			Communication:  deref(comm),
			ProblemSolving: deref(prob),
			CulturalFit:    deref(cult),
			Overall:        *overall,
		}
	}
	return c, nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// SetInterviewStarted stamps the interview start time.
func (r *CandidateRepo) SetInterviewStarted(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "candidates.SetInterviewStarted", "candidate.set_started",
		`UPDATE candidates SET interview_started_at=$2, updated_at=$3 WHERE id=$1`, id, at.UTC(), time.Now().UTC())
}

// SetInterviewEnded stamps the interview end time.
func (r *CandidateRepo) SetInterviewEnded(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "candidates.SetInterviewEnded", "candidate.set_ended",
		`UPDATE candidates SET interview_ended_at=$2, updated_at=$3 WHERE id=$1`, id, at.UTC(), time.Now().UTC())
}

// SetRecording records the artifact path and capture status.
func (r *CandidateRepo) SetRecording(ctx context.Context, id, file, status string) error {
	return r.exec(ctx, "candidates.SetRecording", "candidate.set_recording",
		`UPDATE candidates SET recording_file=$2, recording_status=$3, updated_at=$4 WHERE id=$1`, id, file, status, time.Now().UTC())
}

// SetAnalysisStatus updates the candidate-visible pipeline state.
func (r *CandidateRepo) SetAnalysisStatus(ctx context.Context, id string, status domain.AnalysisStatus) error {
	return r.exec(ctx, "candidates.SetAnalysisStatus", "candidate.set_analysis_status",
		`UPDATE candidates SET analysis_status=$2, updated_at=$3 WHERE id=$1`, id, status, time.Now().UTC())
}

// MarkAnalysisTriggered atomically flips the triggered flag. The row filter
// on the old value makes concurrent callers race safely: exactly one sees a
// row update and wins.
func (r *CandidateRepo) MarkAnalysisTriggered(ctx context.Context, id string) (bool, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.MarkAnalysisTriggered")
	defer span.End()
	q := `UPDATE candidates SET analysis_triggered=TRUE, updated_at=$2 WHERE id=$1 AND analysis_triggered=FALSE`
	tag, err := r.Pool.Exec(ctx, q, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("op=candidate.mark_triggered: %w: %v", domain.ErrPersistence, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SetScores writes the final scores and generated feedback.
func (r *CandidateRepo) SetScores(ctx context.Context, id string, s domain.Scores, feedback string) error {
	return r.exec(ctx, "candidates.SetScores", "candidate.set_scores",
		`UPDATE candidates SET technical=$2, communication=$3, problem_solving=$4, cultural_fit=$5, overall=$6, feedback=$7, updated_at=$8 WHERE id=$1`,
		id, s.Technical, s.Communication, s.ProblemSolving, s.CulturalFit, s.Overall, feedback, time.Now().UTC())
}

// ListEndedUntriggered returns candidates whose interview ended but whose
// analysis was never triggered, oldest first.
func (r *CandidateRepo) ListEndedUntriggered(ctx context.Context, limit int) ([]domain.Candidate, error) {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, "candidates.ListEndedUntriggered")
	defer span.End()
	q := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE interview_ended_at IS NOT NULL AND analysis_triggered=FALSE
		ORDER BY interview_ended_at ASC LIMIT $1`
	rows, err := r.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list_untriggered: %w: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()
	var out []domain.Candidate
	for rows.Next() {
		c, err := r.scanCandidate(rows, "candidate.list_untriggered")
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=candidate.list_untriggered: %w: %v", domain.ErrPersistence, err)
	}
	return out, nil
}

func (r *CandidateRepo) exec(ctx context.Context, spanName, op, q string, args ...any) error {
	tracer := otel.Tracer("repo.candidates")
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()
	tag, err := r.Pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("op=%s: %w: %v", op, domain.ErrPersistence, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=%s: %w", op, domain.ErrCandidateNotFound)
	}
	return nil
}
