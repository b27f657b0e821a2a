// Package domain defines the core entities, ports and error taxonomy for the
// interview session lifecycle and its analysis pipeline.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotActive  = errors.New("session not active")
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrInvalidInterview is a terminal classification, not a failure: the
	// interview was rejected by the response validator before scoring.
	ErrInvalidInterview   = errors.New("invalid interview")
	ErrResultNotFound     = errors.New("analysis result not found")
	ErrEvaluatorTimeout   = errors.New("evaluator timeout")
	ErrEvaluatorMalformed = errors.New("evaluator malformed response")
	ErrPersistence        = errors.New("persistence failure")
	ErrDuplicateTrigger   = errors.New("analysis already triggered")
	ErrInternal           = errors.New("internal error")
)

// SessionStatus enumerates interview session states. Transitions are
// monotonic: active -> completed.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// RecordingStatus enumerates recording capture states.
type RecordingStatus string

const (
	RecordingNotStarted RecordingStatus = "not_started"
	RecordingInProgress RecordingStatus = "recording"
	RecordingCompleted  RecordingStatus = "completed"
)

// Question categories.
const (
	CategoryTechnical   = "technical"
	CategoryBehavioral  = "behavioral"
	CategorySituational = "situational"
	CategoryCultural    = "cultural"
	CategoryGeneral     = "general"
)

// RecordingConfig enumerates recognized capture options.
type RecordingConfig struct {
	Format     string // webm|mp4
	Resolution string
	Bitrate    int
}

// RecordingArtifact holds metadata about a captured recording.
type RecordingArtifact struct {
	Path       string
	Format     string
	Resolution string
	Bitrate    int
	Duration   time.Duration
	SizeBytes  int64
}

// Question is an immutable prompt asked during a session.
type Question struct {
	ID               string
	Text             string
	Category         string
	AskedAt          time.Time
	ExpectedDuration time.Duration
}

// Answer is an immutable response captured during a session. Orphaned marks
// an answer recorded against a question id the session never asked; the log
// keeps it for the validator instead of dropping it.
type Answer struct {
	ID           string
	QuestionID   string
	Text         string
	Duration     time.Duration
	AudioQuality float64
	Confidence   float64
	AnsweredAt   time.Time
	Orphaned     bool
}

// InterviewSession is the unit of ownership for all questions and answers
// captured during one candidate interview attempt.
type InterviewSession struct {
	ID              string
	CandidateID     string
	JobTitle        string
	CompanyName     string
	Status          SessionStatus
	RecordingStatus RecordingStatus
	Recording       *RecordingArtifact
	StartedAt       time.Time
	EndedAt         time.Time
	Duration        time.Duration
	NetworkQuality  string
	TechnicalIssues []string
	Questions       []Question
	Answers         []Answer
}

// AnswerFor returns the answer recorded for a question id, if any.
func (s *InterviewSession) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// TaskStatus enumerates analysis task states.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Priority tiers; lower is scheduled sooner.
const (
	PriorityHigh   = 1 // session ended < 1h ago
	PriorityMedium = 2 // session ended < 6h ago
	PriorityLow    = 3
)

// PriorityForAge maps the time since session end to a scheduling tier.
func PriorityForAge(age time.Duration) int {
	switch {
	case age < time.Hour:
		return PriorityHigh
	case age < 6*time.Hour:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AnalysisTask is one unit of work for the scheduler. A task reaches a
// terminal state on the candidate record and is never re-queued past the
// configured retry ceiling.
type AnalysisTask struct {
	ID             string
	CandidateID    string
	SessionID      string
	Priority       int
	Status         TaskStatus
	RetryCount     int
	LastError      string
	NextRetryAt    time.Time
	SessionEndedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AnalysisStatus is the candidate-visible pipeline state.
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
	AnalysisInvalid    AnalysisStatus = "invalid"
)

// Recommendation labels.
const (
	RecommendStrongHire = "strong_hire"
	RecommendHire       = "hire"
	RecommendMaybe      = "maybe"
	RecommendReject     = "reject"
)

// Evaluator provenance recorded on results.
const (
	EvaluatorHeuristic = "heuristic"
	EvaluatorLLM       = "llm"
)

// Scores holds the four competency sub-scores and the weighted overall
// score, all clamped to [0,100].
type Scores struct {
	Technical      float64
	Communication  float64
	ProblemSolving float64
	CulturalFit    float64
	Overall        float64
}

// AnalysisResult is created once per completed session and is immutable once
// persisted; a re-analysis inserts a new result.
type AnalysisResult struct {
	ID              string
	CandidateID     string
	SessionID       string
	Scores          Scores
	Feedback        string
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
	RedFlags        []string
	Recommendation  string
	Valid           bool
	InvalidReason   string
	Evaluator       string
	CreatedAt       time.Time
}

// Candidate mirrors the fields of the external candidate record the
// pipeline reads and writes.
type Candidate struct {
	ID                 string
	Name               string
	JobTitle           string
	CompanyName        string
	InterviewStartedAt *time.Time
	InterviewEndedAt   *time.Time
	RecordingFile      string
	RecordingStatus    string
	AnalysisStatus     AnalysisStatus
	AnalysisTriggered  bool
	Scores             *Scores
	Feedback           string
	UpdatedAt          time.Time
}

// Repositories (ports)

type CandidateRepository interface {
	Get(ctx context.Context, id string) (Candidate, error)
	SetInterviewStarted(ctx context.Context, id string, at time.Time) error
	SetInterviewEnded(ctx context.Context, id string, at time.Time) error
	SetRecording(ctx context.Context, id, file, status string) error
	SetAnalysisStatus(ctx context.Context, id string, status AnalysisStatus) error
	// MarkAnalysisTriggered flips the triggered flag and reports whether this
	// call won the flip; a false return means another tick already triggered.
	MarkAnalysisTriggered(ctx context.Context, id string) (bool, error)
	SetScores(ctx context.Context, id string, scores Scores, feedback string) error
	ListEndedUntriggered(ctx context.Context, limit int) ([]Candidate, error)
}

type TaskRepository interface {
	Create(ctx context.Context, t AnalysisTask) (string, error)
	Get(ctx context.Context, id string) (AnalysisTask, error)
	UpdateStatus(ctx context.Context, id string, status TaskStatus, lastError string) error
	ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error
	ListPending(ctx context.Context, limit int) ([]AnalysisTask, error)
	ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]AnalysisTask, error)
	ListRetryable(ctx context.Context, now time.Time, maxRetries, limit int) ([]AnalysisTask, error)
}

type ResultRepository interface {
	Create(ctx context.Context, r AnalysisResult) (string, error)
	GetLatestByCandidate(ctx context.Context, candidateID string) (AnalysisResult, error)
}

// SnapshotRepository durably stores the full session transcript when a
// session ends; workers analyze from it.
type SnapshotRepository interface {
	Save(ctx context.Context, s InterviewSession) error
	GetBySession(ctx context.Context, sessionID string) (InterviewSession, error)
	GetLatestByCandidate(ctx context.Context, candidateID string) (InterviewSession, error)
}

// SessionCache holds volatile live-session copies for crash recovery between
// periodic snapshots.
type SessionCache interface {
	Put(ctx context.Context, s InterviewSession) error
	Get(ctx context.Context, sessionID string) (InterviewSession, error)
	// List returns every cached live session, for registry recovery after
	// a process restart.
	List(ctx context.Context) ([]InterviewSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// Evaluator turns a validated transcript plus role metadata into scores.
// Implementations: the deterministic heuristic scorer and the external LLM
// client. Both must produce the same Scores shape.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, s InterviewSession) (Scores, error)
}
