package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

func newHeuristic() *HeuristicEvaluator {
	return NewHeuristicEvaluator(NewValidator(DefaultValidatorPolicy()), DefaultWeightTable())
}

// technicalAnswer builds an answer of roughly n words with technical
// vocabulary and concrete indicators sprinkled in.
func technicalAnswer(n int) string {
	base := "I designed the architecture for our queue based pipeline and improved throughput by 30 percent. " +
		"For example we moved the database writes behind a cache and added monitoring to every deployment. " +
		"First we profiled the latency then we fixed the index and finally we shipped the refactor. "
	var b strings.Builder
	for len(strings.Fields(b.String())) < n {
		b.WriteString(base)
	}
	words := strings.Fields(b.String())
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func technicalSession(questions int, wordsPerAnswer int) domain.InterviewSession {
	s := domain.InterviewSession{ID: "s-1", CandidateID: "c-1", JobTitle: "Senior Backend Engineer"}
	for i := 0; i < questions; i++ {
		q := domain.Question{ID: fmt.Sprintf("q-%d", i), Text: "walk me through it", Category: domain.CategoryTechnical}
		s.Questions = append(s.Questions, q)
		s.Answers = append(s.Answers, domain.Answer{
			ID: fmt.Sprintf("a-%d", i), QuestionID: q.ID, Text: technicalAnswer(wordsPerAnswer),
		})
	}
	return s
}

func TestEvaluate_StrongTechnicalInterview(t *testing.T) {
	e := newHeuristic()
	scores, err := e.Evaluate(context.Background(), technicalSession(8, 120))
	require.NoError(t, err)

	assert.Greater(t, scores.Technical, 60.0)
	assert.GreaterOrEqual(t, scores.Overall, 60.0)

	rec := recommendationLabel(scores.Overall, false)
	assert.Contains(t, []string{domain.RecommendHire, domain.RecommendStrongHire}, rec)
}

func TestEvaluate_ScoresAlwaysInRange(t *testing.T) {
	e := newHeuristic()

	tests := []struct {
		name string
		s    domain.InterviewSession
	}{
		{"extremely long answers", technicalSession(8, 2000)},
		{"extremely short answers", sessionWith(8, "queue cache index latency")},
		{"no answers at all", domain.InterviewSession{Questions: []domain.Question{{ID: "q-0"}}}},
		{"symbol heavy", sessionWith(8, "#### architecture !!!! database $$$$ throughput 99 99 99")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := e.Evaluate(context.Background(), tt.s)
			require.NoError(t, err)
			for name, v := range map[string]float64{
				"technical":       scores.Technical,
				"communication":   scores.Communication,
				"problem_solving": scores.ProblemSolving,
				"cultural_fit":    scores.CulturalFit,
				"overall":         scores.Overall,
			} {
				assert.GreaterOrEqual(t, v, 0.0, name)
				assert.LessOrEqual(t, v, 100.0, name)
			}
		})
	}
}

func TestEvaluate_CompletionPenalty(t *testing.T) {
	e := newHeuristic()

	full := technicalSession(8, 100)
	partial := technicalSession(8, 100)
	// Answer only 3 of 8 questions: fewer than half triggers the penalty.
	partial.Answers = partial.Answers[:3]

	fullScores, err := e.Evaluate(context.Background(), full)
	require.NoError(t, err)
	partialScores, err := e.Evaluate(context.Background(), partial)
	require.NoError(t, err)

	assert.Less(t, partialScores.Technical, fullScores.Technical)
	assert.Less(t, partialScores.Overall, fullScores.Overall)
}

func TestEvaluate_DeterministicForSameInput(t *testing.T) {
	e := newHeuristic()
	s := technicalSession(6, 90)

	a, err := e.Evaluate(context.Background(), s)
	require.NoError(t, err)
	b, err := e.Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLengthBand_DiminishingReturns(t *testing.T) {
	assert.Less(t, lengthBand(5), lengthBand(50))
	assert.Less(t, lengthBand(50), lengthBand(120))
	// Beyond ~150 words the band tapers instead of growing.
	assert.LessOrEqual(t, lengthBand(400), lengthBand(120))
	assert.GreaterOrEqual(t, lengthBand(1000), 0.85)
}

func TestWeightTable_RoleSelection(t *testing.T) {
	wt := DefaultWeightTable()

	tests := []struct {
		title string
		want  RoleWeights
	}{
		{"Senior Backend Engineer", wt.Roles["senior"]},
		{"Staff Software Engineer", wt.Roles["senior"]},
		{"Engineering Manager", wt.Roles["manager"]},
		{"Senior Engineering Manager", wt.Roles["manager"]},
		{"Junior Developer", wt.Roles["junior"]},
		{"Software Intern", wt.Roles["junior"]},
		{"Software Engineer", wt.Default},
		{"", wt.Default},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, wt.ForTitle(tt.title))
		})
	}
}

func TestRoleWeights_Apply(t *testing.T) {
	w := RoleWeights{Technical: 1, Communication: 1, ProblemSolving: 1, CulturalFit: 1}
	assert.InDelta(t, 50.0, w.Apply(50, 50, 50, 50), 1e-9)

	heavy := RoleWeights{Technical: 1}
	assert.InDelta(t, 80.0, heavy.Apply(80, 0, 0, 0), 1e-9)

	zero := RoleWeights{}
	assert.Zero(t, zero.Apply(80, 80, 80, 80))
}
