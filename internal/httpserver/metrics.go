package httpserver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nootboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nootboard_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	postsDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nootboard_api_posts_deleted_total",
		Help: "Total number of posts deleted through the API",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, postsDeletedTotal)
}
