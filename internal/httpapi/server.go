package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mirrorme/mirrord/internal/config"
	"github.com/mirrorme/mirrord/internal/llm"
	"github.com/mirrorme/mirrord/internal/memory"
	"github.com/mirrorme/mirrord/internal/mirror"
	"github.com/mirrorme/mirrord/internal/observability"
	"github.com/mirrorme/mirrord/internal/session"
)

type Server struct {
	cfg      config.Config
	sessions *session.Registry
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Registry, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other sites cannot drive a user's chat
				// session if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/message", s.handleChatMessage)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/profile", s.handleProfile)
	r.Get("/v1/profile/summary", s.handleProfileSummary)
	r.Get("/v1/progress", s.handleProgress)
	r.Get("/v1/history", s.handleHistory)
	r.Post("/v1/reset", s.handleReset)
	r.Get("/v1/export", s.handleExport)
	r.Post("/v1/import", s.handleImport)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.cfg.StoreMode,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	UserID   string `json:"user_id"`
	Reply    string `json:"reply"`
	Degraded bool   `json:"degraded,omitempty"`
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "empty_message", "message must not be blank")
		return
	}
	userID := normalizeUserID(req.UserID)

	sess := s.sessions.Acquire(r.Context(), userID)
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))

	start := time.Now()
	reply, err := sess.Respond(r.Context(), req.Message)
	s.metrics.ObserveTurnLatency(time.Since(start))

	degraded := false
	if err != nil {
		if !errors.Is(err, mirror.ErrGenerationUnavailable) {
			respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
			s.metrics.Turns.WithLabelValues("error").Inc()
			return
		}
		degraded = true
		s.countProviderError(err)
		s.metrics.Turns.WithLabelValues("degraded").Inc()
		s.metrics.CountIndicator("generation_fallback")
	} else {
		s.metrics.Turns.WithLabelValues("ok").Inc()
	}

	respondJSON(w, http.StatusOK, chatResponse{
		UserID:   userID,
		Reply:    reply,
		Degraded: degraded,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Acquire(r.Context(), userIDFromQuery(r))
	respondJSON(w, http.StatusOK, sess.Profile())
}

func (s *Server) handleProfileSummary(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Acquire(r.Context(), userIDFromQuery(r))
	respondJSON(w, http.StatusOK, map[string]string{
		"user_id": sess.UserID,
		"summary": sess.PersonalitySummary(),
	})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Acquire(r.Context(), userIDFromQuery(r))
	respondJSON(w, http.StatusOK, sess.LearningProgress())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Acquire(r.Context(), userIDFromQuery(r))
	limit := s.cfg.RecentContextWindow
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := parsePositiveInt(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_limit", err.Error())
			return
		}
		limit = n
	}
	msgs := sess.RecentHistory(limit)
	if msgs == nil {
		msgs = []memory.Message{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  sess.UserID,
		"messages": msgs,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sess := s.sessions.Acquire(r.Context(), normalizeUserID(req.UserID))
	sess.Reset(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{
		"user_id": sess.UserID,
		"status":  "reset",
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Acquire(r.Context(), userIDFromQuery(r))
	respondJSON(w, http.StatusOK, sess.Export())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snap memory.Snapshot
	if err := decodeJSON(r, &snap); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}
	sess := s.sessions.Acquire(r.Context(), userIDFromQuery(r))
	sess.Import(r.Context(), snap)
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":  sess.UserID,
		"status":   "imported",
		"messages": len(snap.Messages),
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.metrics.PerfSnapshot())
}

func (s *Server) countProviderError(err error) {
	var perr *llm.ProviderError
	if errors.As(err, &perr) {
		s.metrics.ProviderErrors.WithLabelValues(perr.Provider, statusLabel(perr.Status)).Inc()
	}
}

func statusLabel(code int) string {
	if code <= 0 {
		return "transport"
	}
	return http.StatusText(code)
}

func normalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "default"
	}
	return userID
}

func userIDFromQuery(r *http.Request) string {
	return normalizeUserID(r.URL.Query().Get("user_id"))
}

func parsePositiveInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
