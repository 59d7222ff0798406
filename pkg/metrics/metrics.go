package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of bridge HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Bridge HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Outbound API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)
	TokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_refresh_total",
			Help: "Token refresh attempts by outcome",
		},
		[]string{"outcome"},
	)
	NotificationsPushedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_pushed_total",
			Help: "Notifications pushed by severity",
		},
		[]string{"severity"},
	)
	StorageOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Duration of persistent store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)
	StorageErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Persistent store errors by driver and operation",
		},
		[]string{"driver", "operation"},
	)
)

var registerOnce sync.Once

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(APIRequestsTotal)
		prometheus.MustRegister(APIRequestDuration)
		prometheus.MustRegister(CacheHitsTotal)
		prometheus.MustRegister(CacheMissesTotal)
		prometheus.MustRegister(TokenRefreshTotal)
		prometheus.MustRegister(NotificationsPushedTotal)
		prometheus.MustRegister(StorageOperationDuration)
		prometheus.MustRegister(StorageErrorsTotal)
	})
}
