package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	urlsCreated     *prometheus.CounterVec
	redirects       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shortlink_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		urlsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_urls_created_total",
			Help: "Short URLs created, split by anonymous vs owned",
		}, []string{"owner"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shortlink_redirects_total",
			Help: "Short code resolutions by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.urlsCreated, m.redirects)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) URLCreated(anonymous bool) {
	owner := "user"
	if anonymous {
		owner = "anonymous"
	}
	m.urlsCreated.WithLabelValues(owner).Inc()
}

// Redirect counts a resolution: "redirect", "preview", "not_found", "invalid_target" or "error".
func (m *Metrics) Redirect(outcome string) {
	m.redirects.WithLabelValues(outcome).Inc()
}

// ObserveRequest records one finished request. route should be the matched
// mux pattern so label cardinality stays bounded.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
