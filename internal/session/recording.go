package session

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/hireloop/interview-analyzer/internal/domain"
	obsctx "github.com/hireloop/interview-analyzer/internal/observability"
)

// StartRecording begins capture for the session. Recording is fire-and-forget
// relative to question/answer capture: callers log errors as session
// technical issues instead of failing the interview turn.
func (r *Registry) StartRecording(ctx context.Context, sessionID string, cfg domain.RecordingConfig) error {
	if cfg.Format != "webm" && cfg.Format != "mp4" {
		err := fmt.Errorf("op=recording.start: %w: unsupported format %q", domain.ErrInvalidArgument, cfg.Format)
		r.NoteTechnicalIssue(ctx, sessionID, "recording failed to start: "+err.Error())
		return err
	}
	sh := r.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[sessionID]
	if !ok {
		return fmt.Errorf("op=recording.start: %w", domain.ErrSessionNotFound)
	}
	if s.Status != domain.SessionActive {
		return fmt.Errorf("op=recording.start: %w", domain.ErrSessionNotActive)
	}
	if s.RecordingStatus == domain.RecordingInProgress {
		return nil
	}
	s.RecordingStatus = domain.RecordingInProgress
	s.Recording = &domain.RecordingArtifact{
		Path:       path.Join(r.recDir, sessionID+"."+cfg.Format),
		Format:     cfg.Format,
		Resolution: cfg.Resolution,
		Bitrate:    cfg.Bitrate,
	}
	obsctx.LoggerFromContext(ctx).Info("recording started",
		slog.String("session_id", sessionID),
		slog.String("artifact", s.Recording.Path))
	return nil
}

// StopRecording finalizes capture and records the artifact duration. It is a
// no-op when no recording is in progress.
func (r *Registry) StopRecording(ctx context.Context, sessionID string) error {
	sh := r.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[sessionID]
	if !ok {
		return fmt.Errorf("op=recording.stop: %w", domain.ErrSessionNotFound)
	}
	if s.RecordingStatus != domain.RecordingInProgress {
		return nil
	}
	r.stopRecordingLocked(s, time.Now().UTC())
	obsctx.LoggerFromContext(ctx).Info("recording stopped",
		slog.String("session_id", sessionID),
		slog.Duration("duration", s.Recording.Duration))
	return nil
}

// stopRecordingLocked finalizes the artifact; the caller holds the shard lock.
func (r *Registry) stopRecordingLocked(s *domain.InterviewSession, now time.Time) {
	s.RecordingStatus = domain.RecordingCompleted
	if s.Recording != nil {
		s.Recording.Duration = now.Sub(s.StartedAt)
	}
}

// NoteTechnicalIssue appends a note to the session's technical-issue list.
// Unknown sessions are logged and ignored; issue notes must never fail a
// live interview turn.
func (r *Registry) NoteTechnicalIssue(ctx context.Context, sessionID, note string) {
	sh := r.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[sessionID]
	if !ok {
		obsctx.LoggerFromContext(ctx).Warn("technical issue for unknown session",
			slog.String("session_id", sessionID), slog.String("note", note))
		return
	}
	s.TechnicalIssues = append(s.TechnicalIssues, note)
}
