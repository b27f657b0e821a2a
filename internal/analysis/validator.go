// Package analysis implements the response-analysis pipeline: authenticity
// validation, competency scoring, and insight generation for completed
// interview sessions.
package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// ValidatorPolicy holds the tunable thresholds for interview validation.
// The defaults were tuned empirically, not derived from a labeled dataset;
// they are policy constants, not fixed behavior.
type ValidatorPolicy struct {
	MinQuestions          int
	MinValidAnswers       int
	ValidityRateThreshold float64
	MinAnswerLength       int
	MinUniqueWords        int
}

// DefaultValidatorPolicy returns the production defaults.
func DefaultValidatorPolicy() ValidatorPolicy {
	return ValidatorPolicy{
		MinQuestions:          5,
		MinValidAnswers:       5,
		ValidityRateThreshold: 0.7,
		MinAnswerLength:       10,
		MinUniqueWords:        3,
	}
}

// placeholderTokens are known synthetic/test payloads. Matching answers are
// excluded from the valid-answer count so an automated probe never earns an
// authoritative-looking score.
var placeholderTokens = []string{
	"test_response",
	"undefined",
	"null",
	"n/a",
	"no answer provided",
	"no answer",
	"asdf",
	"test",
	"lorem ipsum",
	"...",
}

// AnswerVerdict is the per-answer validation outcome.
type AnswerVerdict struct {
	AnswerID string
	Valid    bool
	Reason   string
}

// Verdict aggregates per-answer checks into the interview-level decision.
type Verdict struct {
	Valid        bool
	Reason       string
	TotalAnswers int
	ValidAnswers int
	ValidityRate float64
	Answers      []AnswerVerdict
}

// Validator rejects or down-weights interviews whose answers look synthetic,
// empty, or like placeholder content before any scoring is attempted.
type Validator struct {
	policy ValidatorPolicy
}

// NewValidator constructs a Validator with the given policy.
func NewValidator(policy ValidatorPolicy) *Validator {
	return &Validator{policy: policy}
}

// Validate applies per-answer checks then the aggregate thresholds. An
// invalid verdict must short-circuit the pipeline; it never falls through to
// normal scoring.
func (v *Validator) Validate(s domain.InterviewSession) Verdict {
	verdict := Verdict{Answers: make([]AnswerVerdict, 0, len(s.Answers))}
	for _, a := range s.Answers {
		av := v.checkAnswer(a)
		verdict.Answers = append(verdict.Answers, av)
		verdict.TotalAnswers++
		if av.Valid {
			verdict.ValidAnswers++
		}
	}
	if verdict.TotalAnswers > 0 {
		verdict.ValidityRate = float64(verdict.ValidAnswers) / float64(verdict.TotalAnswers)
	}

	switch {
	case len(s.Questions) < v.policy.MinQuestions:
		verdict.Reason = fmt.Sprintf("too few questions: %d of %d required", len(s.Questions), v.policy.MinQuestions)
	case verdict.ValidAnswers < v.policy.MinValidAnswers:
		verdict.Reason = fmt.Sprintf("too few valid answers: %d of %d required", verdict.ValidAnswers, v.policy.MinValidAnswers)
	case verdict.ValidityRate < v.policy.ValidityRateThreshold:
		verdict.Reason = fmt.Sprintf("validity rate %.2f below threshold %.2f", verdict.ValidityRate, v.policy.ValidityRateThreshold)
	default:
		verdict.Valid = true
	}
	return verdict
}

// ValidAnswers returns the subset of the session's answers that passed
// validation, in log order. Scoring reads only these.
func (v *Validator) ValidAnswers(s domain.InterviewSession) []domain.Answer {
	out := make([]domain.Answer, 0, len(s.Answers))
	for _, a := range s.Answers {
		if v.checkAnswer(a).Valid {
			out = append(out, a)
		}
	}
	return out
}

func (v *Validator) checkAnswer(a domain.Answer) AnswerVerdict {
	av := AnswerVerdict{AnswerID: a.ID}
	text := strings.TrimSpace(a.Text)
	lower := strings.ToLower(text)

	switch {
	case text == "":
		av.Reason = "empty answer"
	case a.Orphaned:
		av.Reason = "answer not paired with an asked question"
	case matchesPlaceholder(lower):
		av.Reason = "placeholder or test content"
	case len(text) < v.policy.MinAnswerLength:
		av.Reason = fmt.Sprintf("shorter than %d characters", v.policy.MinAnswerLength)
	case !containsLetter(text):
		av.Reason = "no alphabetic content"
	case uniqueWordCount(lower) < v.policy.MinUniqueWords:
		av.Reason = fmt.Sprintf("fewer than %d unique words", v.policy.MinUniqueWords)
	default:
		av.Valid = true
	}
	return av
}

func matchesPlaceholder(lower string) bool {
	for _, tok := range placeholderTokens {
		if lower == tok {
			return true
		}
	}
	return false
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func uniqueWordCount(lower string) int {
	seen := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		seen[w] = struct{}{}
	}
	return len(seen)
}
