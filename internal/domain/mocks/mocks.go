// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hireloop/interview-analyzer/internal/domain"
)

// MockCandidateRepository mocks domain.CandidateRepository.
type MockCandidateRepository struct{ mock.Mock }

func (m *MockCandidateRepository) Get(ctx context.Context, id string) (domain.Candidate, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) SetInterviewStarted(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockCandidateRepository) SetInterviewEnded(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockCandidateRepository) SetRecording(ctx context.Context, id, file, status string) error {
	return m.Called(ctx, id, file, status).Error(0)
}

func (m *MockCandidateRepository) SetAnalysisStatus(ctx context.Context, id string, status domain.AnalysisStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockCandidateRepository) MarkAnalysisTriggered(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCandidateRepository) SetScores(ctx context.Context, id string, scores domain.Scores, feedback string) error {
	return m.Called(ctx, id, scores, feedback).Error(0)
}

func (m *MockCandidateRepository) ListEndedUntriggered(ctx context.Context, limit int) ([]domain.Candidate, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.Candidate), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTaskRepository mocks domain.TaskRepository.
type MockTaskRepository struct{ mock.Mock }

func (m *MockTaskRepository) Create(ctx context.Context, t domain.AnalysisTask) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *MockTaskRepository) Get(ctx context.Context, id string) (domain.AnalysisTask, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.AnalysisTask), args.Error(1)
}

func (m *MockTaskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, lastError string) error {
	return m.Called(ctx, id, status, lastError).Error(0)
}

func (m *MockTaskRepository) ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error {
	return m.Called(ctx, id, retryCount, nextRetryAt, lastError).Error(0)
}

func (m *MockTaskRepository) ListPending(ctx context.Context, limit int) ([]domain.AnalysisTask, error) {
	args := m.Called(ctx, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.AnalysisTask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.AnalysisTask, error) {
	args := m.Called(ctx, cutoff, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.AnalysisTask), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTaskRepository) ListRetryable(ctx context.Context, now time.Time, maxRetries, limit int) ([]domain.AnalysisTask, error) {
	args := m.Called(ctx, now, maxRetries, limit)
	if v := args.Get(0); v != nil {
		return v.([]domain.AnalysisTask), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockResultRepository mocks domain.ResultRepository.
type MockResultRepository struct{ mock.Mock }

func (m *MockResultRepository) Create(ctx context.Context, r domain.AnalysisResult) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func (m *MockResultRepository) GetLatestByCandidate(ctx context.Context, candidateID string) (domain.AnalysisResult, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).(domain.AnalysisResult), args.Error(1)
}

// MockSnapshotRepository mocks domain.SnapshotRepository.
type MockSnapshotRepository struct{ mock.Mock }

func (m *MockSnapshotRepository) Save(ctx context.Context, s domain.InterviewSession) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSnapshotRepository) GetBySession(ctx context.Context, sessionID string) (domain.InterviewSession, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.InterviewSession), args.Error(1)
}

func (m *MockSnapshotRepository) GetLatestByCandidate(ctx context.Context, candidateID string) (domain.InterviewSession, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).(domain.InterviewSession), args.Error(1)
}

// MockSessionCache mocks domain.SessionCache.
type MockSessionCache struct{ mock.Mock }

func (m *MockSessionCache) Put(ctx context.Context, s domain.InterviewSession) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSessionCache) Get(ctx context.Context, sessionID string) (domain.InterviewSession, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.InterviewSession), args.Error(1)
}

func (m *MockSessionCache) List(ctx context.Context) ([]domain.InterviewSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InterviewSession), args.Error(1)
}

func (m *MockSessionCache) Delete(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// MockEvaluator mocks domain.Evaluator.
type MockEvaluator struct{ mock.Mock }

func (m *MockEvaluator) Name() string {
	return m.Called().String(0)
}

func (m *MockEvaluator) Evaluate(ctx context.Context, s domain.InterviewSession) (domain.Scores, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Scores), args.Error(1)
}
