package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/interview-analyzer/internal/domain"
	"github.com/hireloop/interview-analyzer/internal/domain/mocks"
)

func TestAnalysisFetch_PendingStatusOnly(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	results := new(mocks.MockResultRepository)
	svc := NewAnalysisService(cands, results)

	cands.On("Get", mock.Anything, "cand-1").Return(domain.Candidate{
		ID:             "cand-1",
		AnalysisStatus: domain.AnalysisProcessing,
	}, nil)

	m, etag, matched, err := svc.Fetch(context.Background(), "cand-1", "")
	require.NoError(t, err)
	assert.False(t, matched)
	assert.NotEmpty(t, etag)
	assert.Equal(t, "processing", m["status"])
	assert.NotContains(t, m, "result")
	results.AssertNotCalled(t, "GetLatestByCandidate", mock.Anything, mock.Anything)
}

func TestAnalysisFetch_CompletedIncludesResult(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	results := new(mocks.MockResultRepository)
	svc := NewAnalysisService(cands, results)

	cands.On("Get", mock.Anything, "cand-1").Return(domain.Candidate{
		ID:             "cand-1",
		AnalysisStatus: domain.AnalysisCompleted,
	}, nil)
	results.On("GetLatestByCandidate", mock.Anything, "cand-1").Return(domain.AnalysisResult{
		ID:             "res-1",
		CandidateID:    "cand-1",
		Scores:         domain.Scores{Technical: 72, Communication: 68, ProblemSolving: 65, CulturalFit: 70, Overall: 69.4},
		Recommendation: domain.RecommendHire,
		Valid:          true,
		Evaluator:      domain.EvaluatorHeuristic,
	}, nil)

	m, _, _, err := svc.Fetch(context.Background(), "cand-1", "")
	require.NoError(t, err)
	res, ok := m["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, domain.RecommendHire, res["recommendation"])
	scores := res["scores"].(map[string]any)
	assert.Equal(t, 69.4, scores["overall"])
	assert.Equal(t, []string{}, res["red_flags"], "nil slices render as empty arrays")
}

func TestAnalysisFetch_ETagMatch(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	results := new(mocks.MockResultRepository)
	svc := NewAnalysisService(cands, results)

	cands.On("Get", mock.Anything, "cand-1").Return(domain.Candidate{
		ID:             "cand-1",
		AnalysisStatus: domain.AnalysisPending,
	}, nil)

	_, etag, _, err := svc.Fetch(context.Background(), "cand-1", "")
	require.NoError(t, err)

	_, _, matched, err := svc.Fetch(context.Background(), "cand-1", etag)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestAnalysisFetch_CompletedButResultMissing(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	results := new(mocks.MockResultRepository)
	svc := NewAnalysisService(cands, results)

	cands.On("Get", mock.Anything, "cand-1").Return(domain.Candidate{
		ID:             "cand-1",
		AnalysisStatus: domain.AnalysisCompleted,
	}, nil)
	results.On("GetLatestByCandidate", mock.Anything, "cand-1").Return(domain.AnalysisResult{}, domain.ErrResultNotFound)

	m, _, _, err := svc.Fetch(context.Background(), "cand-1", "")
	require.NoError(t, err)
	assert.Equal(t, "completed", m["status"])
	assert.NotContains(t, m, "result")
}

func TestAnalysisFetch_CandidateNotFound(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	svc := NewAnalysisService(cands, new(mocks.MockResultRepository))

	cands.On("Get", mock.Anything, "ghost").Return(domain.Candidate{}, domain.ErrCandidateNotFound)

	_, _, _, err := svc.Fetch(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, domain.ErrCandidateNotFound)
}

func TestRecordingMetadata(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	svc := NewAnalysisService(cands, new(mocks.MockResultRepository))

	cands.On("Get", mock.Anything, "cand-1").Return(domain.Candidate{
		ID:              "cand-1",
		RecordingFile:   "recordings/sess-1.webm",
		RecordingStatus: string(domain.RecordingCompleted),
	}, nil)

	m, err := svc.Recording(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "recordings/sess-1.webm", m["recording_file"])
	assert.Equal(t, "completed", m["recording_status"])
}

func TestRecordingMetadata_DefaultsStatus(t *testing.T) {
	cands := new(mocks.MockCandidateRepository)
	svc := NewAnalysisService(cands, new(mocks.MockResultRepository))

	cands.On("Get", mock.Anything, "cand-1").Return(domain.Candidate{ID: "cand-1"}, nil)

	m, err := svc.Recording(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "not_started", m["recording_status"])
}
