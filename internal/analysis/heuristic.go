package analysis

import (
	"context"
	"math"
	"strings"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// Vocabulary lists driving the heuristic signals. Matching is lowercase
// substring on whole answers; the lists are intentionally generic across
// engineering roles.
var (
	technicalVocabulary = []string{
		"algorithm", "architecture", "api", "database", "sql", "cache",
		"latency", "throughput", "concurrency", "thread", "goroutine",
		"deployment", "kubernetes", "docker", "microservice", "queue",
		"index", "transaction", "replication", "scaling", "refactor",
		"testing", "ci/cd", "pipeline", "monitoring", "debug", "profiling",
		"framework", "library", "protocol", "encryption", "authentication",
	}
	softSkillVocabulary = []string{
		"team", "collaborate", "communicate", "mentor", "feedback",
		"stakeholder", "empathy", "listen", "conflict", "compromise",
		"ownership", "responsibility", "deadline", "prioritize", "help",
		"learn", "adapt", "culture", "together", "support",
	}
	exampleIndicators = []string{
		"for example", "for instance", "in my project", "in my previous",
		"specifically", "we built", "i built", "i implemented", "we shipped",
		"resulted in", "reduced", "increased", "improved",
	}
	positiveWords = []string{
		"enjoy", "excited", "passionate", "love", "great", "success",
		"proud", "motivated", "opportunity", "growth",
	}
	negativeWords = []string{
		"hate", "terrible", "awful", "blame", "refuse", "impossible",
		"worst", "useless", "never works",
	}
)

// HeuristicEvaluator is the deterministic scoring strategy. It is always
// available and serves as the unconditional fallback for the LLM path.
type HeuristicEvaluator struct {
	validator *Validator
	weights   WeightTable
}

// NewHeuristicEvaluator constructs the heuristic scorer.
func NewHeuristicEvaluator(v *Validator, weights WeightTable) *HeuristicEvaluator {
	return &HeuristicEvaluator{validator: v, weights: weights}
}

// Name identifies the strategy on persisted results.
func (e *HeuristicEvaluator) Name() string { return domain.EvaluatorHeuristic }

// answerSignals are the per-answer features the sub-scores aggregate.
type answerSignals struct {
	words         int
	lengthScore   float64
	techHits      int
	softHits      int
	exampleHits   int
	structural    float64
	sentiment     float64
	category      string
}

// Evaluate computes the four sub-scores and the role-weighted overall score
// from the session's valid answers only.
func (e *HeuristicEvaluator) Evaluate(_ context.Context, s domain.InterviewSession) (domain.Scores, error) {
	valid := e.validator.ValidAnswers(s)
	if len(valid) == 0 {
		return domain.Scores{}, nil
	}

	categories := make(map[string]string, len(s.Questions))
	for _, q := range s.Questions {
		categories[q.ID] = q.Category
	}

	signals := make([]answerSignals, 0, len(valid))
	for _, a := range valid {
		signals = append(signals, analyzeAnswer(a, categories[a.QuestionID]))
	}

	technical := e.technicalScore(signals)
	communication := e.communicationScore(signals)
	problemSolving := e.problemSolvingScore(signals)
	cultural := e.culturalFitScore(signals, s)

	// Uniform penalty when fewer than half the questions were answered.
	if len(s.Questions) > 0 && len(valid)*2 < len(s.Questions) {
		const penalty = 0.6
		technical *= penalty
		communication *= penalty
		problemSolving *= penalty
		cultural *= penalty
	}

	technical = clamp(technical)
	communication = clamp(communication)
	problemSolving = clamp(problemSolving)
	cultural = clamp(cultural)

	overall := clamp(e.weights.ForTitle(s.JobTitle).Apply(technical, communication, problemSolving, cultural))
	return domain.Scores{
		Technical:      technical,
		Communication:  communication,
		ProblemSolving: problemSolving,
		CulturalFit:    cultural,
		Overall:        overall,
	}, nil
}

func analyzeAnswer(a domain.Answer, category string) answerSignals {
	lower := strings.ToLower(a.Text)
	words := len(strings.Fields(lower))

	sig := answerSignals{
		words:       words,
		lengthScore: lengthBand(words),
		category:    category,
	}
	for _, t := range technicalVocabulary {
		if strings.Contains(lower, t) {
			sig.techHits++
		}
	}
	for _, t := range softSkillVocabulary {
		if strings.Contains(lower, t) {
			sig.softHits++
		}
	}
	for _, t := range exampleIndicators {
		if strings.Contains(lower, t) {
			sig.exampleHits++
		}
	}
	if strings.ContainsAny(lower, "0123456789") {
		sig.exampleHits++
	}

	sentences := strings.FieldsFunc(a.Text, func(r rune) bool { return r == '.' || r == '!' || r == '?' })
	if len(sentences) >= 3 {
		sig.structural += 0.6
	}
	if strings.Contains(lower, "first") || strings.Contains(lower, "then") ||
		strings.Contains(lower, "finally") || strings.Contains(lower, "1.") {
		sig.structural += 0.4
	}

	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			sig.sentiment++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			sig.sentiment--
		}
	}
	return sig
}

// lengthBand maps a word count to [0,1] with diminishing returns beyond
// roughly 150 words.
func lengthBand(words int) float64 {
	switch {
	case words < 10:
		return 0.15
	case words < 30:
		return 0.4
	case words < 80:
		return 0.7
	case words < 150:
		return 1.0
	default:
		// Longer is not better past the band; slight taper.
		return math.Max(0.85, 1.0-float64(words-150)/1000)
	}
}

func (e *HeuristicEvaluator) technicalScore(signals []answerSignals) float64 {
	var total float64
	for _, s := range signals {
		points := 30 * s.lengthScore
		points += math.Min(float64(s.techHits)*12, 50)
		points += math.Min(float64(s.exampleHits)*5, 20)
		total += points
	}
	return total / float64(len(signals))
}

func (e *HeuristicEvaluator) communicationScore(signals []answerSignals) float64 {
	var total, lengths float64
	for _, s := range signals {
		points := 40 * s.lengthScore
		points += 35 * s.structural
		points += math.Min(float64(s.words)/10, 15)
		total += points
		lengths += float64(s.words)
	}
	avg := total / float64(len(signals))

	// Consistency: low variance of answer lengths reads as steady pacing.
	mean := lengths / float64(len(signals))
	var varsum float64
	for _, s := range signals {
		d := float64(s.words) - mean
		varsum += d * d
	}
	stddev := math.Sqrt(varsum / float64(len(signals)))
	if mean > 0 && stddev/mean < 0.6 {
		avg += 10
	}
	return avg
}

func (e *HeuristicEvaluator) problemSolvingScore(signals []answerSignals) float64 {
	var total float64
	n := 0
	for _, s := range signals {
		weight := 1.0
		if s.category == domain.CategoryBehavioral || s.category == domain.CategorySituational {
			weight = 1.5
		}
		points := math.Min(float64(s.exampleHits)*18, 55)
		points += 30 * s.structural
		points += 15 * s.lengthScore
		total += points * weight
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func (e *HeuristicEvaluator) culturalFitScore(signals []answerSignals, s domain.InterviewSession) float64 {
	var total float64
	for _, sig := range signals {
		points := math.Min(float64(sig.softHits)*14, 55)
		points += math.Max(math.Min(sig.sentiment*8, 20), -20)
		points += 15 * sig.lengthScore
		total += points
	}
	avg := total / float64(len(signals))

	// Completion rate contributes directly: answering everything signals
	// engagement.
	if len(s.Questions) > 0 {
		completion := float64(len(signals)) / float64(len(s.Questions))
		avg += 30 * math.Min(completion, 1)
	}
	return avg
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
