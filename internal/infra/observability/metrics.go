package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// branches lists the transition-table branches reported in the runtime snapshot.
var branches = []string{"direct_answer", "select", "itinerary", "search"}

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	tokensUsed         *prometheus.CounterVec
	llmCalls           prometheus.Counter
	requestsTotal      *prometheus.CounterVec
	turnsByBranch      *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bepit_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_cache_hits_total",
				Help: "Total fallback cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_cache_misses_total",
				Help: "Total fallback cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		llmCalls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "bepit_llm_calls_total",
				Help: "Total successful LLM calls.",
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_chat_turns_total",
				Help: "Total chat turns processed.",
			},
			[]string{"status"},
		),
		turnsByBranch: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_chat_branch_total",
				Help: "Chat turns by state machine branch.",
			},
			[]string{"branch"},
		),
		sideEffectFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bepit_side_effect_failures_total",
				Help: "Best-effort writes that failed and were swallowed.",
			},
			[]string{"effect"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage of one LLM call.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.llmCalls.Inc()
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrRequest increments the turn counter with a status label (success|error).
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrBranch counts which branch of the transition table handled a turn.
func (m *Metrics) IncrBranch(branch string) {
	m.turnsByBranch.WithLabelValues(branch).Inc()
}

// IncrSideEffectFailure counts a swallowed best-effort write failure.
func (m *Metrics) IncrSideEffectFailure(effect string) {
	m.sideEffectFailures.WithLabelValues(effect).Inc()
}

// GetRuntimeSnapshot returns the cumulative counters for
// GET /api/admin/metrics/runtime.
func (m *Metrics) GetRuntimeSnapshot() *domain.RuntimeMetrics {
	success := getCounterValue(m.requestsTotal, "success")
	errs := getCounterValue(m.requestsTotal, "error")
	total := success + errs

	errorRate := float64(0)
	if total > 0 {
		errorRate = errs / total
	}

	byBranch := make(map[string]int64, len(branches))
	for _, b := range branches {
		byBranch[b] = int64(getCounterValue(m.turnsByBranch, b))
	}

	avgTokens := float64(0)
	if calls := readCounter(m.llmCalls); calls > 0 {
		tokens := getCounterValue(m.tokensUsed, "prompt") + getCounterValue(m.tokensUsed, "completion")
		avgTokens = tokens / calls
	}

	return &domain.RuntimeMetrics{
		TotalTurns:          int64(total),
		ErrorRate:           errorRate,
		TurnsByBranch:       byBranch,
		SideEffectFailures:  int64(sumCounterVec(m.sideEffectFailures)),
		FallbackCacheHits:   int64(getCounterValue(m.cacheHits, "conversation")),
		AvgTokensPerLLMCall: avgTokens,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounterVec adds every label combination of cv.
func sumCounterVec(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()
	total := float64(0)
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err == nil && m.Counter != nil {
			total += m.Counter.GetValue()
		}
	}
	return total
}
