package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

func sessionWith(n int, answerText string) domain.InterviewSession {
	s := domain.InterviewSession{ID: "s-1", CandidateID: "c-1"}
	for i := 0; i < n; i++ {
		q := domain.Question{ID: fmt.Sprintf("q-%d", i), Text: "tell me about it", Category: domain.CategoryGeneral}
		s.Questions = append(s.Questions, q)
		s.Answers = append(s.Answers, domain.Answer{
			ID: fmt.Sprintf("a-%d", i), QuestionID: q.ID, Text: answerText,
		})
	}
	return s
}

func TestValidate_PlaceholderTokensExcluded(t *testing.T) {
	v := NewValidator(DefaultValidatorPolicy())

	tests := []struct {
		token string
	}{
		{"undefined"},
		{"null"},
		{"TEST_RESPONSE"},
		{"No answer provided"},
		{"N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			verdict := v.Validate(sessionWith(5, tt.token))
			assert.Equal(t, 0, verdict.ValidAnswers, "placeholder %q must not count as valid", tt.token)
			assert.False(t, verdict.Valid)
		})
	}
}

func TestValidate_AllPlaceholderAnswersInvalid(t *testing.T) {
	v := NewValidator(DefaultValidatorPolicy())
	verdict := v.Validate(sessionWith(5, "No answer provided"))

	assert.False(t, verdict.Valid)
	assert.Equal(t, 5, verdict.TotalAnswers)
	assert.Equal(t, 0, verdict.ValidAnswers)
	assert.Contains(t, verdict.Reason, "too few valid answers")
}

func TestValidate_TooFewQuestions(t *testing.T) {
	v := NewValidator(DefaultValidatorPolicy())
	// Well-written answers cannot rescue an interview with too few questions.
	verdict := v.Validate(sessionWith(3, "I designed the caching layer for our payment system and reduced p99 latency by 40 percent."))

	assert.False(t, verdict.Valid)
	assert.Contains(t, verdict.Reason, "too few questions")
}

func TestValidate_PerAnswerChecks(t *testing.T) {
	v := NewValidator(DefaultValidatorPolicy())

	tests := []struct {
		name   string
		answer domain.Answer
		valid  bool
	}{
		{"empty", domain.Answer{Text: ""}, false},
		{"whitespace", domain.Answer{Text: "   \t  "}, false},
		{"too short", domain.Answer{Text: "yes ok hm"}, false},
		{"symbols only", domain.Answer{Text: "!!! ??? ### $$$ %%%"}, false},
		{"repetition", domain.Answer{Text: "yes yes yes yes yes yes"}, false},
		{"orphaned", domain.Answer{Text: "a perfectly reasonable detailed answer", Orphaned: true}, false},
		{"genuine", domain.Answer{Text: "I led the migration of our services to a message queue."}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.checkAnswer(tt.answer)
			assert.Equal(t, tt.valid, got.Valid, "reason: %s", got.Reason)
		})
	}
}

func TestValidate_RateThreshold(t *testing.T) {
	policy := DefaultValidatorPolicy()
	policy.MinValidAnswers = 3
	v := NewValidator(policy)

	s := sessionWith(10, "I led the migration of our services to a message queue.")
	// Corrupt 4 of 10 answers: rate 0.6 < 0.7.
	for i := 0; i < 4; i++ {
		s.Answers[i].Text = "undefined"
	}
	verdict := v.Validate(s)
	assert.False(t, verdict.Valid)
	assert.InDelta(t, 0.6, verdict.ValidityRate, 1e-9)
	assert.Contains(t, verdict.Reason, "validity rate")
}

func TestValidate_HealthyInterview(t *testing.T) {
	v := NewValidator(DefaultValidatorPolicy())
	verdict := v.Validate(sessionWith(6, "I led the migration of our services to a message queue and documented the rollout."))

	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Reason)
	assert.Equal(t, 6, verdict.ValidAnswers)
}
