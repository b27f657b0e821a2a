package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hireloop/interview-analyzer/internal/config"
	"github.com/hireloop/interview-analyzer/internal/domain"
	"github.com/hireloop/interview-analyzer/internal/session"
	"github.com/hireloop/interview-analyzer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Sessions   *session.Registry
	Analysis   usecase.AnalysisService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, sessions *session.Registry, analysis usecase.AnalysisService, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Sessions: sessions, Analysis: analysis, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json body: %v", domain.ErrInvalidArgument, err)
	}
	if err := getValidator().Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

type createSessionReq struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Recording   *struct {
		Format     string `json:"format" validate:"required,oneof=webm mp4"`
		Resolution string `json:"resolution"`
		Bitrate    int    `json:"bitrate" validate:"gte=0"`
	} `json:"recording"`
}

// CreateSessionHandler starts a new interview session and, when requested,
// kicks off recording. A recording failure is noted on the session and never
// fails the request.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		ctx := r.Context()
		sessionID, err := s.Sessions.Create(ctx, req.CandidateID)
		if err != nil {
			writeError(w, r, err, map[string]string{"candidate_id": req.CandidateID})
			return
		}
		if req.Recording != nil {
			cfg := domain.RecordingConfig{
				Format:     req.Recording.Format,
				Resolution: req.Recording.Resolution,
				Bitrate:    req.Recording.Bitrate,
			}
			if err := s.Sessions.StartRecording(ctx, sessionID, cfg); err != nil {
				LoggerFrom(r).Warn("recording start failed, session continues",
					slog.String("session_id", sessionID), slog.Any("error", err))
			}
		}
		writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
	}
}

// GetSessionHandler returns a live-session summary.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, err := s.Sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionSummary(sess))
	}
}

func sessionSummary(sess domain.InterviewSession) map[string]any {
	m := map[string]any{
		"session_id":       sess.ID,
		"candidate_id":     sess.CandidateID,
		"status":           string(sess.Status),
		"recording_status": string(sess.RecordingStatus),
		"started_at":       sess.StartedAt,
		"questions":        len(sess.Questions),
		"answers":          len(sess.Answers),
	}
	if len(sess.TechnicalIssues) > 0 {
		m["technical_issues"] = sess.TechnicalIssues
	}
	if sess.Status == domain.SessionCompleted {
		m["ended_at"] = sess.EndedAt
		m["duration_s"] = sess.Duration.Seconds()
	}
	return m
}

type addQuestionReq struct {
	Text             string `json:"text" validate:"required"`
	Category         string `json:"category"`
	ExpectedDuration int    `json:"expected_duration_s" validate:"gte=0"`
}

// AddQuestionHandler appends a question to an active session.
func (s *Server) AddQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req addQuestionReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		questionID, err := s.Sessions.AddQuestion(r.Context(), id, session.QuestionInput{
			Text:             req.Text,
			Category:         req.Category,
			ExpectedDuration: time.Duration(req.ExpectedDuration) * time.Second,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"question_id": questionID})
	}
}

type addAnswerReq struct {
	QuestionID   string  `json:"question_id" validate:"required"`
	Text         string  `json:"text"`
	Duration     int     `json:"duration_s" validate:"gte=0"`
	AudioQuality float64 `json:"audio_quality" validate:"gte=0,lte=1"`
	Confidence   float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// AddAnswerHandler appends an answer to an active session. Answers to
// unknown question ids are kept and flagged rather than rejected.
func (s *Server) AddAnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req addAnswerReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		answerID, err := s.Sessions.AddAnswer(r.Context(), id, req.QuestionID, session.AnswerInput{
			Text:         req.Text,
			Duration:     time.Duration(req.Duration) * time.Second,
			AudioQuality: req.AudioQuality,
			Confidence:   req.Confidence,
		})
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"answer_id": answerID})
	}
}

// EndSessionHandler completes a session. Safe to call more than once.
func (s *Server) EndSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := s.Sessions.End(r.Context(), id); err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": string(domain.SessionCompleted)})
	}
}

// AnalysisHandler returns the candidate's analysis result, or its pipeline
// status while the result isn't ready.
func (s *Server) AnalysisHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, etag, matched, err := s.Analysis.Fetch(r.Context(), id, r.Header.Get("If-None-Match"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("ETag", etag)
		if matched {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// RecordingHandler returns recording metadata for a candidate.
func (s *Server) RecordingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		m, err := s.Analysis.Recording(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

// ReadyzHandler probes the backing stores.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
