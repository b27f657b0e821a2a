// Package usecase assembles candidate-facing read models from the stores.
package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// AnalysisService provides read access to analysis state and results and
// assembles the API response shapes including ETag values.
type AnalysisService struct {
	Candidates domain.CandidateRepository
	Results    domain.ResultRepository
}

// NewAnalysisService constructs an AnalysisService with the given repositories.
func NewAnalysisService(c domain.CandidateRepository, r domain.ResultRepository) AnalysisService {
	return AnalysisService{Candidates: c, Results: r}
}

// Fetch returns the analysis payload for a candidate: the full result once
// the pipeline finished (completed or invalid), a bare status object while it
// has not. The returned bool reports whether the ETag matched ifNoneMatch.
func (s AnalysisService) Fetch(ctx context.Context, candidateID, ifNoneMatch string) (map[string]any, string, bool, error) {
	cand, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, "", false, err
	}

	if cand.AnalysisStatus != domain.AnalysisCompleted && cand.AnalysisStatus != domain.AnalysisInvalid {
		m := map[string]any{
			"candidate_id": candidateID,
			"status":       string(cand.AnalysisStatus),
		}
		etag := makeETag(m)
		return m, etag, etag == ifNoneMatch, nil
	}

	res, err := s.Results.GetLatestByCandidate(ctx, candidateID)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			// Status says done but the row is missing; report the status
			// rather than failing the read.
			slog.Warn("analysis status terminal but result row missing", slog.String("candidate_id", candidateID))
			m := map[string]any{"candidate_id": candidateID, "status": string(cand.AnalysisStatus)}
			etag := makeETag(m)
			return m, etag, etag == ifNoneMatch, nil
		}
		return nil, "", false, err
	}

	m := map[string]any{
		"candidate_id": candidateID,
		"status":       string(cand.AnalysisStatus),
		"result": map[string]any{
			"scores": map[string]any{
				"technical":       res.Scores.Technical,
				"communication":   res.Scores.Communication,
				"problem_solving": res.Scores.ProblemSolving,
				"cultural_fit":    res.Scores.CulturalFit,
				"overall":         res.Scores.Overall,
			},
			"feedback":        res.Feedback,
			"strengths":       emptyIfNil(res.Strengths),
			"weaknesses":      emptyIfNil(res.Weaknesses),
			"recommendations": emptyIfNil(res.Recommendations),
			"red_flags":       emptyIfNil(res.RedFlags),
			"recommendation":  res.Recommendation,
			"valid":           res.Valid,
			"invalid_reason":  res.InvalidReason,
			"evaluator":       res.Evaluator,
		},
	}
	etag := makeETag(m)
	return m, etag, etag == ifNoneMatch, nil
}

// Recording returns recording metadata for a candidate.
func (s AnalysisService) Recording(ctx context.Context, candidateID string) (map[string]any, error) {
	cand, err := s.Candidates.Get(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	status := cand.RecordingStatus
	if status == "" {
		status = string(domain.RecordingNotStarted)
	}
	return map[string]any{
		"candidate_id":     candidateID,
		"recording_file":   cand.RecordingFile,
		"recording_status": status,
	}, nil
}

func makeETag(v any) string {
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
