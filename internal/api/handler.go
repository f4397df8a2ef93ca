// Package api exposes the coach over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/evaluation"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/logging"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/session"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the coaching endpoints.
type Handler struct {
	coach        *coaching.Coach
	evaluator    *evaluation.Evaluator
	criteriaPath string
	logger       *zap.Logger
}

// NewHandler creates a Handler. criteriaPath is the default criteria document
// for evaluation requests.
func NewHandler(coach *coaching.Coach, evaluator *evaluation.Evaluator, criteriaPath string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		coach:        coach,
		evaluator:    evaluator,
		criteriaPath: criteriaPath,
		logger:       logger,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var perr *session.PersistenceError
	var eerr *engine.EngineError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case engine.IsResponseValidation(err):
		return http.StatusBadGateway
	case errors.As(err, &perr):
		return http.StatusInternalServerError
	case errors.As(err, &eerr):
		if eerr.HTTPStatus == http.StatusGatewayTimeout || eerr.HTTPStatus == http.StatusRequestTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case coaching.IsTurnStage(err, coaching.StageModel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	logging.FromContext(r.Context(), h.logger).Error("[API] "+msg, zap.Int("status", status), zap.Error(err))
	Error(w, status, msg+": "+err.Error())
}
