package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/evaluation"
)

func userParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// RegisterRoutes registers the coaching routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/sessions", h.ListSessions)
		r.Post("/evaluations", h.EvaluateConversation)
		r.Route("/sessions/{userID}", func(r chi.Router) {
			r.Get("/", h.GetState)
			r.Delete("/", h.Reset)
			r.Post("/turns", h.Turn)
			r.Get("/export", h.Export)
			r.Post("/summary", h.Summarize)
			r.Post("/evaluation", h.EvaluateSession)
		})
	})
}

// NewRouter builds the full router: middleware, health, metrics and the
// coaching routes. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(chiMiddleware.Timeout(5 * time.Minute))

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	h.RegisterRoutes(r)
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("[API] request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		})
	}
}

type turnRequest struct {
	Message string `json:"message"`
}

type turnResponse struct {
	TurnID  string                 `json:"turn_id"`
	Reply   string                 `json:"reply"`
	Skipped bool                   `json:"skipped"`
	State   *coaching.SessionState `json:"state"`
}

// Turn runs one coaching turn.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.coach.HandleTurn(r.Context(), userParam(r, "userID"), req.Message)
	if err != nil {
		h.fail(w, r, "turn failed", err)
		return
	}
	JSON(w, http.StatusOK, turnResponse{TurnID: res.TurnID, Reply: res.Reply, Skipped: res.Skipped, State: res.State})
}

// ListSessions lists users with stored state.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	users, err := h.coach.Users(r.Context())
	if err != nil {
		h.fail(w, r, "list failed", err)
		return
	}
	JSON(w, http.StatusOK, map[string][]string{"users": users})
}

// requireState writes 404 and returns false when the user has no state.
func (h *Handler) requireState(w http.ResponseWriter, r *http.Request, userID string) bool {
	ok, err := h.coach.HasState(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "lookup failed", err)
		return false
	}
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return false
	}
	return true
}

// GetState returns the stored state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	userID := userParam(r, "userID")
	if !h.requireState(w, r, userID) {
		return
	}
	st, err := h.coach.State(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "load failed", err)
		return
	}
	JSON(w, http.StatusOK, st)
}

// Reset deletes the user's state.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.coach.Reset(r.Context(), userParam(r, "userID")); err != nil {
		h.fail(w, r, "reset failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export returns the conversation snapshot.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	userID := userParam(r, "userID")
	if !h.requireState(w, r, userID) {
		return
	}
	exp, err := h.coach.Export(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "export failed", err)
		return
	}
	JSON(w, http.StatusOK, exp)
}

// Summarize generates and stores a session summary.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	userID := userParam(r, "userID")
	if !h.requireState(w, r, userID) {
		return
	}
	summary, st, err := h.coach.Summarize(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "summary failed", err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"summary": summary, "state": st})
}

type evaluationRequest struct {
	Priority string `json:"priority"`
}

// EvaluateSession judges the stored conversation of one user.
func (h *Handler) EvaluateSession(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID := userParam(r, "userID")
	if !h.requireState(w, r, userID) {
		return
	}
	exp, err := h.coach.Export(r.Context(), userID)
	if err != nil {
		h.fail(w, r, "export failed", err)
		return
	}
	h.writeReport(w, h.evaluator.EvaluateExport(r.Context(), exp, h.criteriaPath, priorityOrAll(req.Priority)))
}

type conversationEvaluationRequest struct {
	Priority string           `json:"priority"`
	Export   *coaching.Export `json:"export"`
}

// EvaluateConversation judges an exported conversation sent in the body.
func (h *Handler) EvaluateConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationEvaluationRequest
	if err := decode(w, r, &req); err != nil || req.Export == nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.writeReport(w, h.evaluator.EvaluateExport(r.Context(), req.Export, h.criteriaPath, priorityOrAll(req.Priority)))
}

// writeReport always answers 200: evaluation failures are part of the report.
func (h *Handler) writeReport(w http.ResponseWriter, report evaluation.Report) {
	JSON(w, http.StatusOK, map[string]any{
		"report":   report,
		"markdown": report.Markdown(),
	})
}

func priorityOrAll(p string) string {
	if p == "" {
		return evaluation.PriorityAll
	}
	return p
}
