// Package metrics exposes the Prometheus instruments served on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every instrument the backend records.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UpstreamRequestsTotal *prometheus.CounterVec

	WebsocketConnections prometheus.Gauge
	ActivitiesBroadcast  prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status",
			}, []string{"method", "path", "status"}),

			HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "path"}),

			UpstreamRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "osu_api_requests_total",
				Help: "Upstream osu! API requests by endpoint and outcome",
			}, []string{"endpoint", "status"}),

			WebsocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "websocket_connections",
				Help: "Open activity feed WebSocket connections",
			}),

			ActivitiesBroadcast: promauto.NewCounter(prometheus.CounterOpts{
				Name: "activities_broadcast_total",
				Help: "Activities pushed to the feed broadcaster",
			}),
		}
	})
	return instance
}
