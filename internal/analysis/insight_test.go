package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

func TestRecommendationLabel(t *testing.T) {
	tests := []struct {
		name     string
		overall  float64
		redFlags bool
		want     string
	}{
		{"high no flags", 80, false, domain.RecommendStrongHire},
		{"high with flags", 80, true, domain.RecommendHire},
		{"boundary strong hire", 75, false, domain.RecommendStrongHire},
		{"hire", 65, false, domain.RecommendHire},
		{"boundary hire", 60, true, domain.RecommendHire},
		{"maybe", 50, false, domain.RecommendMaybe},
		{"boundary maybe", 45, false, domain.RecommendMaybe},
		{"reject", 30, false, domain.RecommendReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recommendationLabel(tt.overall, tt.redFlags))
		})
	}
}

func TestGenerateInsights_StrengthsAndWeaknesses(t *testing.T) {
	s := technicalSession(6, 100)
	scores := domain.Scores{Technical: 85, Communication: 72, ProblemSolving: 40, CulturalFit: 55, Overall: 65}
	verdict := Verdict{Valid: true, TotalAnswers: 6, ValidAnswers: 6, ValidityRate: 1}

	ins := GenerateInsights(s, scores, verdict)

	assert.Len(t, ins.Strengths, 2)
	assert.Contains(t, ins.Strengths[0], "technical")
	assert.Len(t, ins.Weaknesses, 1)
	assert.Contains(t, ins.Weaknesses[0], "problem-solving")
	assert.Contains(t, ins.Recommendations[0], "structured walkthroughs")
	assert.NotEmpty(t, ins.Feedback)
}

func TestGenerateInsights_RedFlags(t *testing.T) {
	// Two questions, one unanswered, no example indicators anywhere.
	s := domain.InterviewSession{
		JobTitle:  "Backend Engineer",
		Questions: []domain.Question{{ID: "q-1"}, {ID: "q-2"}},
		Answers:   []domain.Answer{{ID: "a-1", QuestionID: "q-1", Text: "I am quite certain about this topic."}},
	}
	verdict := Verdict{Valid: true, TotalAnswers: 1, ValidAnswers: 1, ValidityRate: 1}

	ins := GenerateInsights(s, domain.Scores{Overall: 80}, verdict)

	assert.Contains(t, ins.RedFlags, "no concrete examples provided in any answer")
	assert.Contains(t, ins.RedFlags, "1 question(s) left unanswered")
	// Red flags demote strong_hire to hire even at 80.
	assert.Equal(t, domain.RecommendHire, ins.Recommendation)
}

func TestGenerateInsights_LowQualityProportionFlag(t *testing.T) {
	s := technicalSession(6, 100)
	verdict := Verdict{Valid: true, TotalAnswers: 10, ValidAnswers: 6, ValidityRate: 0.6}

	ins := GenerateInsights(s, domain.Scores{Overall: 70}, verdict)
	assert.Contains(t, ins.RedFlags, "40% of answers were low quality")
}
