// Package metrics exposes Prometheus collectors for turns, model calls and
// evaluations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	turns      *prometheus.CounterVec
	flags      *prometheus.CounterVec
	modelCalls *prometheus.HistogramVec
	callErrors *prometheus.CounterVec
	tokens     *prometheus.CounterVec
	evalScore  *prometheus.GaugeVec
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_turns_total",
			Help: "Coaching turns by outcome.",
		}, []string{"outcome"}),
		flags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_self_check_flags_total",
			Help: "Replies the model flagged in its own self-check.",
		}, []string{"flag"}),
		modelCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coach_model_call_seconds",
			Help:    "Duration of structured model calls, retries included.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"schema"}),
		callErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_model_call_errors_total",
			Help: "Failed structured model calls by kind.",
		}, []string{"schema", "kind"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_model_tokens_total",
			Help: "Tokens reported by the provider.",
		}, []string{"schema", "type"}),
		evalScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coach_evaluation_score_pct",
			Help: "Score of the last evaluation per priority group.",
		}, []string{"priority"}),
	}
	m.registry.MustRegister(
		m.turns, m.flags, m.modelCalls, m.callErrors, m.tokens, m.evalScore,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TurnCompleted implements coaching.Observer.
func (m *Metrics) TurnCompleted(outcome string) {
	m.turns.WithLabelValues(outcome).Inc()
}

// SelfCheckFlagged implements coaching.Observer.
func (m *Metrics) SelfCheckFlagged(flag string) {
	m.flags.WithLabelValues(flag).Inc()
}

// ObserveScore records an evaluation score.
func (m *Metrics) ObserveScore(priority string, scorePct float64) {
	m.evalScore.WithLabelValues(priority).Set(scorePct)
}

// CallHook returns an engine.CallHook feeding the model call collectors.
func (m *Metrics) CallHook() engine.CallHook {
	return func(schema string, elapsed time.Duration, usage engine.Usage, err error) {
		m.modelCalls.WithLabelValues(schema).Observe(elapsed.Seconds())
		if usage.Prompt > 0 {
			m.tokens.WithLabelValues(schema, "prompt").Add(float64(usage.Prompt))
		}
		if usage.Completion > 0 {
			m.tokens.WithLabelValues(schema, "completion").Add(float64(usage.Completion))
		}
		if err != nil {
			m.callErrors.WithLabelValues(schema, errorKind(err)).Inc()
		}
	}
}

func errorKind(err error) string {
	switch {
	case engine.IsResponseValidation(err):
		return "validation"
	case engine.IsRetryExhausted(err):
		return "retries_exhausted"
	default:
		return "transport"
	}
}
