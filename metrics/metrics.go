// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deposits", Name: "http_requests_total", Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "deposits", Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	PeriodsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deposits", Name: "periods_generated_total", Help: "Periods inserted by schedule generation",
	})
	ReportsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deposits", Name: "reports_generated_total", Help: "Spreadsheet reports served",
	}, []string{"kind"})
	StorePing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "deposits", Name: "store_ping_seconds", Help: "Store ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, PeriodsGenerated, ReportsGenerated, StorePing)
}

func Handler() http.Handler { return promhttp.Handler() }

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func ObserveStorePing(d time.Duration) { StorePing.Observe(d.Seconds()) }
