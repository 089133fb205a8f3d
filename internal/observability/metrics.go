package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	requestsCreated    *prometheus.CounterVec
	requestsResolved   *prometheus.CounterVec
	chatsProvisioned   *prometheus.CounterVec
	messagesSent       prometheus.Counter
	matchingQueries    *prometheus.CounterVec
	matchCacheLookups  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vincula_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		requestsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_collaboration_requests_created_total",
			Help: "Collaboration request creation attempts by outcome.",
		}, []string{"outcome"})

		requestsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_collaboration_requests_resolved_total",
			Help: "Collaboration request resolutions by outcome.",
		}, []string{"outcome"})

		chatsProvisioned = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_chats_provisioned_total",
			Help: "Chat provisioning calls by result.",
		}, []string{"result"})

		messagesSent = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vincula_messages_sent_total",
			Help: "Total number of chat messages persisted.",
		})

		matchingQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_matching_queries_total",
			Help: "Matching queries by scope and toggle state.",
		}, []string{"scope", "gate"})

		matchCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vincula_match_cache_lookups_total",
			Help: "Match cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			requestsCreated, requestsResolved, chatsProvisioned,
			messagesSent, matchingQueries, matchCacheLookups,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RequestsCreated counts request creation attempts labelled by outcome.
func RequestsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsCreated
}

// RequestsResolved counts request resolutions labelled by outcome.
func RequestsResolved() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsResolved
}

// ChatsProvisioned counts provisioning calls labelled created, existing or failed.
func ChatsProvisioned() *prometheus.CounterVec {
	RegisterMetrics()
	return chatsProvisioned
}

// MessagesSent counts persisted chat messages.
func MessagesSent() prometheus.Counter {
	RegisterMetrics()
	return messagesSent
}

// MatchingQueries counts matching queries labelled by scope and gate.
func MatchingQueries() *prometheus.CounterVec {
	RegisterMetrics()
	return matchingQueries
}

// MatchCacheLookups counts cache hits and misses for profile match rankings.
func MatchCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return matchCacheLookups
}

// MetricsHandler serves the default registry in the Prometheus text format.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
