// Package session owns the mutable state of interviews in progress: the
// sharded in-memory registry, the recording controller, and the append-only
// question/answer log.
package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/domain"
	obsctx "github.com/hireloop/interview-analyzer/internal/observability"
)

// shard is one bucket of the registry map. Contention scales with session
// count instead of serializing on a single process-wide lock.
type shard struct {
	mu       sync.RWMutex
	sessions map[string]*domain.InterviewSession
}

// Registry tracks live interview sessions and drives their lifecycle.
type Registry struct {
	shards     []*shard
	candidates domain.CandidateRepository
	snapshots  domain.SnapshotRepository
	tasks      domain.TaskRepository
	cache      domain.SessionCache
	recDir     string

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// NewRegistry constructs a Registry with the given shard count and
// collaborators. The cache may be nil when crash-recovery snapshots are
// disabled (tests).
func NewRegistry(shardCount int, candidates domain.CandidateRepository, snapshots domain.SnapshotRepository, tasks domain.TaskRepository, cache domain.SessionCache, recordingDir string) *Registry {
	if shardCount <= 0 {
		shardCount = 16
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{sessions: make(map[string]*domain.InterviewSession)}
	}
	return &Registry{
		shards:     shards,
		candidates: candidates,
		snapshots:  snapshots,
		tasks:      tasks,
		cache:      cache,
		recDir:     recordingDir,
		entropy:    ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0), //nolint:gosec // id entropy only
	}
}

func (r *Registry) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

func (r *Registry) newSessionID() string {
	r.entropyMu.Lock()
	defer r.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), r.entropy).String()
}

// Create starts a new session for the candidate. The candidate id must
// resolve in the external store.
func (r *Registry) Create(ctx context.Context, candidateID string) (string, error) {
	if candidateID == "" {
		return "", fmt.Errorf("op=session.create: %w: candidate id required", domain.ErrInvalidArgument)
	}
	cand, err := r.candidates.Get(ctx, candidateID)
	if err != nil {
		return "", fmt.Errorf("op=session.create: %w", err)
	}

	now := time.Now().UTC()
	s := &domain.InterviewSession{
		ID:              r.newSessionID(),
		CandidateID:     cand.ID,
		JobTitle:        cand.JobTitle,
		CompanyName:     cand.CompanyName,
		Status:          domain.SessionActive,
		RecordingStatus: domain.RecordingNotStarted,
		StartedAt:       now,
	}

	sh := r.shardFor(s.ID)
	sh.mu.Lock()
	sh.sessions[s.ID] = s
	sh.mu.Unlock()

	if err := r.candidates.SetInterviewStarted(ctx, cand.ID, now); err != nil {
		obsctx.LoggerFromContext(ctx).Warn("failed to record interview start",
			slog.String("candidate_id", cand.ID), slog.Any("error", err))
	}
	observability.ActiveSessions.Inc()
	obsctx.LoggerFromContext(ctx).Info("session created",
		slog.String("session_id", s.ID), slog.String("candidate_id", cand.ID))
	return s.ID, nil
}

// Get returns a copy of the session state. Completed sessions leave the
// registry, so a miss falls back to the durable snapshot: ended interviews
// stay queryable.
func (r *Registry) Get(ctx context.Context, sessionID string) (domain.InterviewSession, error) {
	sh := r.shardFor(sessionID)
	sh.mu.RLock()
	s, ok := sh.sessions[sessionID]
	if ok {
		defer sh.mu.RUnlock()
		return cloneSession(s), nil
	}
	sh.mu.RUnlock()

	if r.snapshots != nil {
		if snap, err := r.snapshots.GetBySession(ctx, sessionID); err == nil {
			return snap, nil
		}
	}
	return domain.InterviewSession{}, fmt.Errorf("op=session.get: %w", domain.ErrSessionNotFound)
}

// End completes the session: stops any active recording, snapshots the full
// transcript durably, updates the candidate record and creates the analysis
// task. Calling End on an already-completed session is a logged no-op. The
// session is removed from the registry only after the durable snapshot
// succeeds, so a failed snapshot leaves it recoverable in memory.
func (r *Registry) End(ctx context.Context, sessionID string) error {
	lg := obsctx.LoggerFromContext(ctx)
	sh := r.shardFor(sessionID)

	sh.mu.Lock()
	s, ok := sh.sessions[sessionID]
	if !ok {
		sh.mu.Unlock()
		// Completed sessions are removed from the registry; treat a known
		// snapshot as the idempotent no-op case.
		if r.snapshots != nil {
			if _, err := r.snapshots.GetBySession(ctx, sessionID); err == nil {
				lg.Info("end called on completed session", slog.String("session_id", sessionID))
				return nil
			}
		}
		return fmt.Errorf("op=session.end: %w", domain.ErrSessionNotFound)
	}
	if s.Status == domain.SessionCompleted {
		sh.mu.Unlock()
		lg.Info("end called on completed session", slog.String("session_id", sessionID))
		return nil
	}
	now := time.Now().UTC()
	prevRecStatus := s.RecordingStatus
	var prevRec *domain.RecordingArtifact
	if s.Recording != nil {
		rec := *s.Recording
		prevRec = &rec
	}
	s.Status = domain.SessionCompleted
	s.EndedAt = now
	s.Duration = now.Sub(s.StartedAt)
	if s.RecordingStatus == domain.RecordingInProgress {
		r.stopRecordingLocked(s, now)
	}
	snap := cloneSession(s)
	sh.mu.Unlock()

	if err := r.snapshots.Save(ctx, snap); err != nil {
		// Leave the session in the registry so End can be retried. The
		// recording state rolls back too, or a retried End would snapshot a
		// duration stamped at this failed attempt.
		sh.mu.Lock()
		s.Status = domain.SessionActive
		s.EndedAt = time.Time{}
		s.Duration = 0
		s.RecordingStatus = prevRecStatus
		s.Recording = prevRec
		sh.mu.Unlock()
		return fmt.Errorf("op=session.end: %w: %v", domain.ErrPersistence, err)
	}

	sh.mu.Lock()
	delete(sh.sessions, sessionID)
	sh.mu.Unlock()
	observability.ActiveSessions.Dec()
	observability.SessionsCompletedTotal.Inc()

	if r.cache != nil {
		if err := r.cache.Delete(ctx, sessionID); err != nil {
			lg.Debug("failed to drop session cache entry", slog.Any("error", err))
		}
	}
	if err := r.candidates.SetInterviewEnded(ctx, snap.CandidateID, now); err != nil {
		lg.Warn("failed to record interview end",
			slog.String("candidate_id", snap.CandidateID), slog.Any("error", err))
	}
	if snap.Recording != nil {
		if err := r.candidates.SetRecording(ctx, snap.CandidateID, snap.Recording.Path, string(snap.RecordingStatus)); err != nil {
			lg.Warn("failed to record recording metadata", slog.Any("error", err))
		}
	}

	r.triggerAnalysis(ctx, snap, now)

	lg.Info("session ended",
		slog.String("session_id", sessionID),
		slog.String("candidate_id", snap.CandidateID),
		slog.Duration("duration", snap.Duration),
		slog.Int("questions", len(snap.Questions)),
		slog.Int("answers", len(snap.Answers)))
	return nil
}

// triggerAnalysis creates the durable analysis task exactly once per
// candidate, guarded by the candidate's triggered flag. The scheduler's
// discovery pass covers candidates where this write was lost.
func (r *Registry) triggerAnalysis(ctx context.Context, snap domain.InterviewSession, endedAt time.Time) {
	lg := obsctx.LoggerFromContext(ctx)
	won, err := r.candidates.MarkAnalysisTriggered(ctx, snap.CandidateID)
	if err != nil {
		lg.Warn("failed to mark analysis triggered; discovery will pick it up",
			slog.String("candidate_id", snap.CandidateID), slog.Any("error", err))
		return
	}
	if !won {
		lg.Info("analysis already triggered", slog.String("candidate_id", snap.CandidateID))
		return
	}
	tier := domain.PriorityForAge(time.Since(endedAt))
	t := domain.AnalysisTask{
		CandidateID:    snap.CandidateID,
		SessionID:      snap.ID,
		Priority:       tier,
		Status:         domain.TaskPending,
		SessionEndedAt: endedAt,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := r.tasks.Create(ctx, t); err != nil {
		lg.Error("failed to create analysis task; discovery will retry",
			slog.String("candidate_id", snap.CandidateID), slog.Any("error", err))
		return
	}
	if err := r.candidates.SetAnalysisStatus(ctx, snap.CandidateID, domain.AnalysisPending); err != nil {
		lg.Warn("failed to set analysis status", slog.Any("error", err))
	}
	observability.TasksEnqueuedTotal.WithLabelValues(tierLabel(tier)).Inc()
}

// RunSnapshotter periodically copies all live sessions into the session
// cache. A crash loses at most one interval of volatile state.
func (r *Registry) RunSnapshotter(ctx context.Context, interval time.Duration) {
	if r.cache == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("session snapshotter stopping")
			return
		case <-ticker.C:
			r.Snapshot(ctx)
		}
	}
}

// Snapshot copies every live session into the session cache. The snapshotter
// calls it on each tick; the server also calls it once on shutdown so a
// clean restart loses nothing.
func (r *Registry) Snapshot(ctx context.Context) {
	var live []domain.InterviewSession
	for _, sh := range r.shards {
		sh.mu.RLock()
		for _, s := range sh.sessions {
			live = append(live, cloneSession(s))
		}
		sh.mu.RUnlock()
	}
	for _, s := range live {
		if err := r.cache.Put(ctx, s); err != nil {
			slog.Warn("session cache snapshot failed",
				slog.String("session_id", s.ID), slog.Any("error", err))
		}
	}
	if len(live) > 0 {
		slog.Debug("session snapshots written", slog.Int("count", len(live)))
	}
}

// Restore reloads cached live sessions into the registry after a restart.
// Only still-active sessions come back; completed ones already have their
// durable snapshot. Returns the number restored.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	if r.cache == nil {
		return 0, nil
	}
	cached, err := r.cache.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("op=session.restore: %w", err)
	}
	restored := 0
	for i := range cached {
		s := cached[i]
		if s.Status != domain.SessionActive {
			continue
		}
		sh := r.shardFor(s.ID)
		sh.mu.Lock()
		if _, exists := sh.sessions[s.ID]; exists {
			sh.mu.Unlock()
			continue
		}
		cp := s
		sh.sessions[s.ID] = &cp
		sh.mu.Unlock()
		observability.ActiveSessions.Inc()
		restored++
	}
	if restored > 0 {
		obsctx.LoggerFromContext(ctx).Info("live sessions restored from cache",
			slog.Int("count", restored))
	}
	return restored, nil
}

// LiveCount returns the number of sessions currently in the registry.
func (r *Registry) LiveCount() int {
	n := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

func tierLabel(tier int) string {
	switch tier {
	case domain.PriorityHigh:
		return "high"
	case domain.PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

func cloneSession(s *domain.InterviewSession) domain.InterviewSession {
	out := *s
	out.Questions = append([]domain.Question(nil), s.Questions...)
	out.Answers = append([]domain.Answer(nil), s.Answers...)
	out.TechnicalIssues = append([]string(nil), s.TechnicalIssues...)
	if s.Recording != nil {
		rec := *s.Recording
		out.Recording = &rec
	}
	return out
}
