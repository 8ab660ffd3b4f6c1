// Package metrics collects Prometheus metrics for the dashboard: outbound
// cost API calls, identity provider calls, notifications and live
// workspaces. Exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the recorder interfaces of apiclient, identity,
// notify and workspace.
type Collector struct {
	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	identityCalls *prometheus.CounterVec
	notifications *prometheus.CounterVec
	expired       prometheus.Counter
	workspaces    prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "costpilot_api_requests_total",
			Help: "Outbound cost API requests by endpoint and status code.",
		}, []string{"endpoint", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "costpilot_api_request_duration_seconds",
			Help:    "Latency of outbound cost API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		identityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "costpilot_identity_calls_total",
			Help: "Identity provider calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "costpilot_notifications_total",
			Help: "Notifications pushed by severity.",
		}, []string{"severity"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costpilot_notifications_expired_total",
			Help: "Notifications removed by their expiry timer.",
		}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "costpilot_workspaces_active",
			Help: "Browser workspaces currently held in memory.",
		}),
	}

	reg.MustRegister(
		c.apiRequests,
		c.apiLatency,
		c.identityCalls,
		c.notifications,
		c.expired,
		c.workspaces,
	)

	return c
}

// RecordAPIRequest records one outbound API call. status is 0 when the
// request failed before a response arrived.
func (c *Collector) RecordAPIRequest(endpoint string, status int, d time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	c.apiRequests.WithLabelValues(endpoint, code).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordIdentityCall records one identity provider call.
func (c *Collector) RecordIdentityCall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.identityCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordNotification counts a pushed notification.
func (c *Collector) RecordNotification(severity string) {
	c.notifications.WithLabelValues(severity).Inc()
}

// RecordNotificationExpired counts a timer-driven removal.
func (c *Collector) RecordNotificationExpired() {
	c.expired.Inc()
}

// SetActiveWorkspaces publishes the registry size.
func (c *Collector) SetActiveWorkspaces(n int) {
	c.workspaces.Set(float64(n))
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
