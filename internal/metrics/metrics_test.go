package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

func TestObserverCounters(t *testing.T) {
	m := New()
	m.TurnCompleted("ok")
	m.TurnCompleted("ok")
	m.TurnCompleted("skipped")
	m.SelfCheckFlagged("contains_advice")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flags.WithLabelValues("contains_advice")))
}

func TestCallHook(t *testing.T) {
	m := New()
	hook := m.CallHook()
	hook("coach_response", 1500*time.Millisecond, engine.Usage{Prompt: 100, Completion: 20}, nil)
	hook("coach_response", time.Second, engine.Usage{}, &engine.ResponseValidationError{Schema: "coach_response"})
	hook("coach_response", time.Second, engine.Usage{}, errors.New("boom"))

	assert.Equal(t, 100.0, testutil.ToFloat64(m.tokens.WithLabelValues("coach_response", "prompt")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.tokens.WithLabelValues("coach_response", "completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callErrors.WithLabelValues("coach_response", "validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callErrors.WithLabelValues("coach_response", "transport")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.modelCalls))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.TurnCompleted("ok")
	m.ObserveScore("MUST-HAVE", 80)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `coach_turns_total{outcome="ok"} 1`)
	assert.Contains(t, string(body), `coach_evaluation_score_pct{priority="MUST-HAVE"} 80`)
}
