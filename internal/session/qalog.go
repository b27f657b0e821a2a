package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/interview-analyzer/internal/domain"
	obsctx "github.com/hireloop/interview-analyzer/internal/observability"
)

// QuestionInput carries the fields of a question to append.
type QuestionInput struct {
	Text             string
	Category         string
	ExpectedDuration time.Duration
}

// AnswerInput carries the fields of an answer to append.
type AnswerInput struct {
	Text         string
	Duration     time.Duration
	AudioQuality float64
	Confidence   float64
}

var validCategories = map[string]bool{
	domain.CategoryTechnical:   true,
	domain.CategoryBehavioral:  true,
	domain.CategorySituational: true,
	domain.CategoryCultural:    true,
	domain.CategoryGeneral:     true,
}

// AddQuestion appends a question to the session's ordered log. The log is
// append-only; questions are immutable once created.
func (r *Registry) AddQuestion(ctx context.Context, sessionID string, in QuestionInput) (string, error) {
	if in.Text == "" {
		return "", fmt.Errorf("op=qalog.add_question: %w: text required", domain.ErrInvalidArgument)
	}
	category := in.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	if !validCategories[category] {
		return "", fmt.Errorf("op=qalog.add_question: %w: unknown category %q", domain.ErrInvalidArgument, category)
	}

	sh := r.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("op=qalog.add_question: %w", domain.ErrSessionNotFound)
	}
	if s.Status != domain.SessionActive {
		return "", fmt.Errorf("op=qalog.add_question: %w", domain.ErrSessionNotActive)
	}
	q := domain.Question{
		ID:               uuid.New().String(),
		Text:             in.Text,
		Category:         category,
		AskedAt:          time.Now().UTC(),
		ExpectedDuration: in.ExpectedDuration,
	}
	s.Questions = append(s.Questions, q)
	return q.ID, nil
}

// AddAnswer appends an answer. An answer referencing an unknown question id
// is still recorded but flagged orphaned so the validator can down-weight
// it; the log does not assume perfect upstream pairing.
func (r *Registry) AddAnswer(ctx context.Context, sessionID, questionID string, in AnswerInput) (string, error) {
	sh := r.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[sessionID]
	if !ok {
		return "", fmt.Errorf("op=qalog.add_answer: %w", domain.ErrSessionNotFound)
	}
	if s.Status != domain.SessionActive {
		return "", fmt.Errorf("op=qalog.add_answer: %w", domain.ErrSessionNotActive)
	}

	known := false
	for _, q := range s.Questions {
		if q.ID == questionID {
			known = true
			break
		}
	}
	a := domain.Answer{
		ID:           uuid.New().String(),
		QuestionID:   questionID,
		Text:         in.Text,
		Duration:     in.Duration,
		AudioQuality: in.AudioQuality,
		Confidence:   in.Confidence,
		AnsweredAt:   time.Now().UTC(),
		Orphaned:     !known,
	}
	s.Answers = append(s.Answers, a)
	if a.Orphaned {
		obsctx.LoggerFromContext(ctx).Warn("orphaned answer recorded",
			slog.String("session_id", sessionID),
			slog.String("question_id", questionID))
	}
	return a.ID, nil
}
