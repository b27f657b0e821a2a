package analysis

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

// Pipeline runs validation, scoring and insight generation for one session
// and produces the immutable AnalysisResult. It holds no shared mutable
// state: each invocation works on its own transcript copy.
type Pipeline struct {
	validator *Validator
	heuristic *HeuristicEvaluator
	llm       domain.Evaluator // nil when not configured
	weights   WeightTable

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// NewPipeline builds the analysis pipeline. llm may be nil; the heuristic
// strategy is the unconditional fallback on any LLM failure.
func NewPipeline(validator *Validator, heuristic *HeuristicEvaluator, llm domain.Evaluator, weights WeightTable) *Pipeline {
	return &Pipeline{
		validator: validator,
		heuristic: heuristic,
		llm:       llm,
		weights:   weights,
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0), //nolint:gosec // id entropy only
	}
}

// Analyze produces the AnalysisResult for a completed session. An invalid
// interview short-circuits to a zero-score reject result; it never reaches
// the scoring strategies.
func (p *Pipeline) Analyze(ctx context.Context, s domain.InterviewSession) (domain.AnalysisResult, error) {
	verdict := p.validator.Validate(s)
	if !verdict.Valid {
		observability.InvalidInterviewsTotal.Inc()
		slog.Info("interview rejected by validator",
			slog.String("session_id", s.ID),
			slog.String("reason", verdict.Reason),
			slog.Int("valid_answers", verdict.ValidAnswers),
			slog.Int("total_answers", verdict.TotalAnswers))
		return p.invalidResult(s, verdict), nil
	}

	scores, evaluator := p.score(ctx, s)
	ins := GenerateInsights(s, scores, verdict)
	observability.OverallScoreHistogram.Observe(scores.Overall)

	return domain.AnalysisResult{
		ID:              p.newResultID(),
		CandidateID:     s.CandidateID,
		SessionID:       s.ID,
		Scores:          scores,
		Feedback:        ins.Feedback,
		Strengths:       ins.Strengths,
		Weaknesses:      ins.Weaknesses,
		Recommendations: ins.Recommendations,
		RedFlags:        ins.RedFlags,
		Recommendation:  ins.Recommendation,
		Valid:           true,
		Evaluator:       evaluator,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// score selects the LLM strategy when configured and falls back to the
// heuristic on any failure, including context cancellation of the LLM call.
func (p *Pipeline) score(ctx context.Context, s domain.InterviewSession) (domain.Scores, string) {
	if p.llm != nil {
		scores, err := p.llm.Evaluate(ctx, s)
		if err == nil {
			return applyRoleWeights(scores, p.weights, s.JobTitle), p.llm.Name()
		}
		observability.EvaluatorFallbacksTotal.Inc()
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrEvaluatorTimeout) || errors.Is(err, domain.ErrEvaluatorMalformed) {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "llm evaluator failed, using heuristic fallback",
			slog.String("session_id", s.ID), slog.Any("error", err))
	}
	scores, _ := p.heuristic.Evaluate(ctx, s)
	return scores, p.heuristic.Name()
}

func (p *Pipeline) invalidResult(s domain.InterviewSession, verdict Verdict) domain.AnalysisResult {
	return domain.AnalysisResult{
		ID:             p.newResultID(),
		CandidateID:    s.CandidateID,
		SessionID:      s.ID,
		Scores:         domain.Scores{},
		Feedback:       "Interview could not be scored: " + verdict.Reason + ". The responses did not pass authenticity checks, so no competency assessment was produced.",
		Recommendation: domain.RecommendReject,
		Valid:          false,
		InvalidReason:  verdict.Reason,
		Evaluator:      domain.EvaluatorHeuristic,
		CreatedAt:      time.Now().UTC(),
	}
}

func (p *Pipeline) newResultID() string {
	p.entropyMu.Lock()
	defer p.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}
