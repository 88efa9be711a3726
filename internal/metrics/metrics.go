package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	LLMAttemptsTotal      *prometheus.CounterVec
	LLMAttemptDuration    *prometheus.HistogramVec
	LLMCompletionsTotal   *prometheus.CounterVec
	CredentialRotations   *prometheus.CounterVec
	CredentialsExhausted  *prometheus.CounterVec
	LLMCompletionAttempts *prometheus.HistogramVec

	RateLimitHitsTotal *prometheus.CounterVec
	AccessDeniedTotal  prometheus.Counter
}

// New регистрирует метрики в дефолтном registry, вызывать один раз на процесс.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_requests_total",
				Help: "Total number of chat updates processed",
			},
			[]string{"type", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jarvis_request_duration_seconds",
				Help:    "Chat update handling duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"type"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "jarvis_requests_in_flight",
				Help: "Number of chat updates currently being processed",
			},
		),

		LLMAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_llm_attempts_total",
				Help: "Provider requests by outcome (success, retryable, fatal)",
			},
			[]string{"provider", "outcome"},
		),
		LLMAttemptDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jarvis_llm_attempt_duration_seconds",
				Help:    "Single provider request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		LLMCompletionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_llm_completions_total",
				Help: "Completion calls by final status",
			},
			[]string{"provider", "status"},
		),
		CredentialRotations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_llm_credential_rotations_total",
				Help: "Times a completion moved on to the next API key",
			},
			[]string{"provider"},
		),
		CredentialsExhausted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_llm_credentials_exhausted_total",
				Help: "Completions that failed because every API key was exhausted",
			},
			[]string{"provider"},
		),
		LLMCompletionAttempts: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jarvis_llm_completion_attempts",
				Help:    "Number of provider requests made per completion",
				Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
			},
			[]string{"provider"},
		),

		RateLimitHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jarvis_rate_limit_hits_total",
				Help: "Total number of per-chat rate limit hits",
			},
			[]string{"chat_id"},
		),
		AccessDeniedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "jarvis_access_denied_total",
				Help: "Messages rejected because the chat was locked or the password was wrong",
			},
		),
	}

	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordRequest(reqType, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(reqType, status).Inc()
	m.RequestDuration.WithLabelValues(reqType).Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMAttempt(provider, outcome string, duration time.Duration) {
	m.LLMAttemptsTotal.WithLabelValues(provider, outcome).Inc()
	m.LLMAttemptDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordCompletion(provider, status string, attempts int) {
	m.LLMCompletionsTotal.WithLabelValues(provider, status).Inc()
	m.LLMCompletionAttempts.WithLabelValues(provider).Observe(float64(attempts))
}

func (m *Metrics) RecordRotation(provider string) {
	m.CredentialRotations.WithLabelValues(provider).Inc()
}

func (m *Metrics) RecordExhausted(provider string) {
	m.CredentialsExhausted.WithLabelValues(provider).Inc()
}

func (m *Metrics) RecordRateLimitHit(chatID string) {
	m.RateLimitHitsTotal.WithLabelValues(chatID).Inc()
}

func (m *Metrics) RecordAccessDenied() {
	m.AccessDeniedTotal.Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}
