package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	SessionOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_session_operations_total",
			Help: "Total number of session store operations by serving tier.",
		},
		[]string{"service", "operation", "tier", "result"},
	)

	CacheFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_cache_fallbacks_total",
			Help: "Total number of session operations that fell back to the durable store.",
		},
		[]string{"service", "operation"},
	)

	BlacklistDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_blacklist_decisions_total",
			Help: "Total number of token blacklist writes and lookups.",
		},
		[]string{"service", "operation", "result"},
	)

	SessionsCleanedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_cleaned_total",
			Help: "Total number of expired session rows removed by the cleanup sweep.",
		},
		[]string{"service"},
	)
)

func MustRegister(serviceName string) {
	HTTPRequestsTotal = HTTPRequestsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	HTTPRequestDurationSeconds = HTTPRequestDurationSeconds.MustCurryWith(prometheus.Labels{"service": serviceName}).(*prometheus.HistogramVec)
	SessionOperationsTotal = SessionOperationsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	CacheFallbacksTotal = CacheFallbacksTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	BlacklistDecisionsTotal = BlacklistDecisionsTotal.MustCurryWith(prometheus.Labels{"service": serviceName})
	SessionsCleanedTotal = SessionsCleanedTotal.MustCurryWith(prometheus.Labels{"service": serviceName})

	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		SessionOperationsTotal,
		CacheFallbacksTotal,
		BlacklistDecisionsTotal,
		SessionsCleanedTotal,
	)
}
