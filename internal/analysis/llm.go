package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hireloop/interview-analyzer/internal/config"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

// LLMEvaluator scores transcripts through an OpenRouter-compatible chat
// completions API. Any failure (timeout, bad status, malformed JSON) is
// classified so the pipeline can fall back to the heuristic strategy.
type LLMEvaluator struct {
	cfg config.Config
	hc  *http.Client
}

// NewLLMEvaluator constructs the external evaluator with a hard per-call
// timeout from configuration.
func NewLLMEvaluator(cfg config.Config) *LLMEvaluator {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("LLM %s %s", r.Method, r.URL.Host)
		}),
	)
	return &LLMEvaluator{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.LLMTimeout, Transport: transport},
	}
}

// Name identifies the strategy on persisted results.
func (e *LLMEvaluator) Name() string { return domain.EvaluatorLLM }

const scoringSystemPrompt = `You are an interview assessor. Given an interview transcript, return ONLY a JSON object:
{"technical_score":0-100,"communication_score":0-100,"problem_solving_score":0-100,"cultural_fit_score":0-100}
Scores are integers or decimals in [0,100]. No prose, no markdown.`

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type scorePayload struct {
	Technical      float64 `json:"technical_score"`
	Communication  float64 `json:"communication_score"`
	ProblemSolving float64 `json:"problem_solving_score"`
	CulturalFit    float64 `json:"cultural_fit_score"`
}

// Evaluate sends the transcript and role metadata to the configured model
// and parses the strict JSON score schema from the reply.
func (e *LLMEvaluator) Evaluate(ctx context.Context, s domain.InterviewSession) (domain.Scores, error) {
	if !e.cfg.LLMEnabled() {
		return domain.Scores{}, fmt.Errorf("op=llm.evaluate: %w: LLM_API_KEY missing", domain.ErrInvalidArgument)
	}

	prompt := buildTranscriptPrompt(s)
	var content string
	op := func() error {
		var err error
		content, err = e.chatOnce(ctx, prompt)
		if err != nil {
			if errors.Is(err, domain.ErrEvaluatorMalformed) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, multiplier := e.cfg.LLMBackoff()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier

	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Scores{}, fmt.Errorf("op=llm.evaluate: %w", domain.ErrEvaluatorTimeout)
		}
		return domain.Scores{}, fmt.Errorf("op=llm.evaluate: %w", err)
	}

	return parseScores(content)
}

func (e *LLMEvaluator) chatOnce(ctx context.Context, userPrompt string) (string, error) {
	body, _ := json.Marshal(chatRequest{
		Model: e.cfg.LLMModel,
		Messages: []chatMessage{
			{Role: "system", Content: scoringSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: 200,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.LLMBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.LLMAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.hc.Do(req)
	if err != nil {
		var ne interface{ Timeout() bool }
		if errors.As(err, &ne) && ne.Timeout() {
			return "", fmt.Errorf("%w: %v", domain.ErrEvaluatorTimeout, err)
		}
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		// Retryable: let backoff handle it.
		return "", fmt.Errorf("chat status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", backoff.Permanent(fmt.Errorf("%w: chat status %d", domain.ErrEvaluatorMalformed, resp.StatusCode))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil || len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: unparseable chat envelope", domain.ErrEvaluatorMalformed)
	}
	return cr.Choices[0].Message.Content, nil
}

func buildTranscriptPrompt(s domain.InterviewSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s at %s\n\n", s.JobTitle, s.CompanyName)
	for i, q := range s.Questions {
		fmt.Fprintf(&b, "Q%d (%s): %s\n", i+1, q.Category, q.Text)
		if a, ok := s.AnswerFor(q.ID); ok {
			fmt.Fprintf(&b, "A%d: %s\n\n", i+1, a.Text)
		} else {
			fmt.Fprintf(&b, "A%d: (no answer)\n\n", i+1)
		}
	}
	return b.String()
}

// parseScores extracts the score schema from the model reply, stripping
// markdown code fences some models wrap JSON in.
func parseScores(content string) (domain.Scores, error) {
	cleaned := stripCodeFences(content)
	var p scorePayload
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&p); err != nil {
		slog.Warn("llm evaluator returned malformed scores", slog.String("snippet", snippet(cleaned, 120)))
		return domain.Scores{}, fmt.Errorf("op=llm.parse: %w", domain.ErrEvaluatorMalformed)
	}
	for _, v := range []float64{p.Technical, p.Communication, p.ProblemSolving, p.CulturalFit} {
		if v < 0 || v > 100 {
			return domain.Scores{}, fmt.Errorf("op=llm.parse: %w: score out of range", domain.ErrEvaluatorMalformed)
		}
	}
	return domain.Scores{
		Technical:      p.Technical,
		Communication:  p.Communication,
		ProblemSolving: p.ProblemSolving,
		CulturalFit:    p.CulturalFit,
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// applyRoleWeights fills in the overall score for LLM-produced sub-scores so
// both strategies emit the same shape.
func applyRoleWeights(scores domain.Scores, weights WeightTable, jobTitle string) domain.Scores {
	scores.Technical = clamp(scores.Technical)
	scores.Communication = clamp(scores.Communication)
	scores.ProblemSolving = clamp(scores.ProblemSolving)
	scores.CulturalFit = clamp(scores.CulturalFit)
	scores.Overall = clamp(weights.ForTitle(jobTitle).Apply(
		scores.Technical, scores.Communication, scores.ProblemSolving, scores.CulturalFit))
	return scores
}
