package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector owns every Prometheus metric of the pipeline. Components record
// through it rather than registering their own metrics, so the full metric
// surface is visible in one place.
type Collector struct {
	// HTTP surface
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// search pipeline
	searchesTotal   *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	candidatesFused prometheus.Histogram

	// provider calls
	providerRequestsTotal   *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec

	// graceful degradation
	degradationsTotal *prometheus.CounterVec

	// chat and sessions
	chatTurnsTotal    *prometheus.CounterVec
	sessionOpsTotal   *prometheus.CounterVec
	contextTokensUsed prometheus.Histogram

	logger *zap.Logger
}

// NewCollector registers every metric under namespace with the given
// registerer. Tests pass a fresh prometheus.NewRegistry; production passes
// prometheus.DefaultRegisterer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.searchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "status"}, // mode: keyword, hybrid
	)

	c.searchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"mode"},
	)

	c.candidatesFused = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_fused",
			Help:      "Number of candidates after fusion, before pagination",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	c.providerRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of provider calls",
		},
		[]string{"provider", "operation", "status"},
	)

	c.providerRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	c.degradationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degradations_total",
			Help:      "Responses served in a degraded mode",
		},
		[]string{"kind"}, // kind: semantic_degraded, rerank_skipped, generation_failed
	)

	c.chatTurnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Total number of chat turns",
		},
		[]string{"status"},
	)

	c.sessionOpsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_ops_total",
			Help:      "Session store operations",
		},
		[]string{"op"}, // op: get, append, clear
	)

	c.contextTokensUsed = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "context_tokens_used",
			Help:      "Tokens packed into a prompt context",
			Buckets:   prometheus.ExponentialBuckets(64, 2, 8),
		},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSearch records one search pipeline run.
func (c *Collector) RecordSearch(mode, status string, duration time.Duration, fusedCandidates int) {
	c.searchesTotal.WithLabelValues(mode, status).Inc()
	c.searchDuration.WithLabelValues(mode).Observe(duration.Seconds())
	c.candidatesFused.Observe(float64(fusedCandidates))
}

// RecordProviderRequest records one embedding/rerank/generation call.
func (c *Collector) RecordProviderRequest(provider, operation, status string, duration time.Duration) {
	c.providerRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	c.providerRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordDegradation counts a response served without one of its signals.
func (c *Collector) RecordDegradation(kind string) {
	c.degradationsTotal.WithLabelValues(kind).Inc()
}

// RecordChatTurn records one chat turn.
func (c *Collector) RecordChatTurn(status string) {
	c.chatTurnsTotal.WithLabelValues(status).Inc()
}

// RecordSessionOp records one session store operation.
func (c *Collector) RecordSessionOp(op string) {
	c.sessionOpsTotal.WithLabelValues(op).Inc()
}

// RecordContextTokens records the token footprint of an assembled context.
func (c *Collector) RecordContextTokens(tokens int) {
	c.contextTokensUsed.Observe(float64(tokens))
}

// statusClass collapses an HTTP status code into its class.
func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
