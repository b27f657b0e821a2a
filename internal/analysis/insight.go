package analysis

import (
	"fmt"
	"strings"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// Insights is the narrative layer derived from scores and transcript shape.
type Insights struct {
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
	RedFlags        []string
	Recommendation  string
	Feedback        string
}

const (
	strengthThreshold = 70
	weaknessThreshold = 50
)

var dimensionNames = []string{"technical", "communication", "problem-solving", "cultural fit"}

// GenerateInsights derives strengths, weaknesses, red flags and the terminal
// hiring recommendation from the scores and the validated transcript.
func GenerateInsights(s domain.InterviewSession, scores domain.Scores, verdict Verdict) Insights {
	ins := Insights{}
	dims := []float64{scores.Technical, scores.Communication, scores.ProblemSolving, scores.CulturalFit}

	for i, v := range dims {
		switch {
		case v >= strengthThreshold:
			ins.Strengths = append(ins.Strengths, fmt.Sprintf("strong %s performance (%.0f/100)", dimensionNames[i], v))
		case v < weaknessThreshold:
			ins.Weaknesses = append(ins.Weaknesses, fmt.Sprintf("weak %s performance (%.0f/100)", dimensionNames[i], v))
		}
	}

	ins.RedFlags = redFlags(s, verdict)
	ins.Recommendations = recommendations(scores, ins.RedFlags)
	ins.Recommendation = recommendationLabel(scores.Overall, len(ins.RedFlags) > 0)
	ins.Feedback = feedbackText(s, scores, ins)
	return ins
}

func redFlags(s domain.InterviewSession, verdict Verdict) []string {
	var flags []string

	hasExample := false
	for _, a := range s.Answers {
		lower := strings.ToLower(a.Text)
		for _, ind := range exampleIndicators {
			if strings.Contains(lower, ind) {
				hasExample = true
				break
			}
		}
		if hasExample {
			break
		}
	}
	if !hasExample {
		flags = append(flags, "no concrete examples provided in any answer")
	}

	answered := make(map[string]bool, len(s.Answers))
	for _, a := range s.Answers {
		answered[a.QuestionID] = true
	}
	unanswered := 0
	for _, q := range s.Questions {
		if !answered[q.ID] {
			unanswered++
		}
	}
	if unanswered > 0 {
		flags = append(flags, fmt.Sprintf("%d question(s) left unanswered", unanswered))
	}

	if verdict.TotalAnswers > 0 {
		lowQuality := float64(verdict.TotalAnswers-verdict.ValidAnswers) / float64(verdict.TotalAnswers)
		if lowQuality > 0.3 {
			flags = append(flags, fmt.Sprintf("%.0f%% of answers were low quality", lowQuality*100))
		}
	}
	return flags
}

func recommendations(scores domain.Scores, flags []string) []string {
	var recs []string
	if scores.Technical < weaknessThreshold {
		recs = append(recs, "probe technical depth in a follow-up round")
	}
	if scores.ProblemSolving < weaknessThreshold {
		recs = append(recs, "ask for structured walkthroughs of past problems; answers lacked reasoning steps")
	}
	if scores.Communication < weaknessThreshold {
		recs = append(recs, "assess written communication separately")
	}
	if len(flags) > 0 {
		recs = append(recs, "review flagged items with the hiring manager before advancing")
	}
	return recs
}

func recommendationLabel(overall float64, hasRedFlags bool) string {
	switch {
	case overall >= 75 && !hasRedFlags:
		return domain.RecommendStrongHire
	case overall >= 60:
		return domain.RecommendHire
	case overall >= 45:
		return domain.RecommendMaybe
	default:
		return domain.RecommendReject
	}
}

func feedbackText(s domain.InterviewSession, scores domain.Scores, ins Insights) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Candidate interviewed for %s scored %.0f/100 overall across %d questions. ",
		s.JobTitle, scores.Overall, len(s.Questions))
	if len(ins.Strengths) > 0 {
		fmt.Fprintf(&b, "Strengths: %s. ", strings.Join(ins.Strengths, "; "))
	}
	if len(ins.Weaknesses) > 0 {
		fmt.Fprintf(&b, "Areas of concern: %s. ", strings.Join(ins.Weaknesses, "; "))
	}
	if len(ins.RedFlags) > 0 {
		fmt.Fprintf(&b, "Red flags: %s. ", strings.Join(ins.RedFlags, "; "))
	}
	fmt.Fprintf(&b, "Recommendation: %s.", ins.Recommendation)
	return b.String()
}
