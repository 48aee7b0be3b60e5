package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Approvals       *prometheus.CounterVec
	ItemFailures    prometheus.Counter
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storeadmin",
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Order status transitions by action and outcome.",
		}, []string{"action", "outcome"}),
		ItemFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storeadmin",
			Subsystem: "inventory",
			Name:      "stock_adjustment_failures_total",
			Help:      "Line items whose stock decrement failed during approval.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storeadmin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storeadmin",
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"route"}),
	}

	reg.MustRegister(m.Approvals, m.ItemFailures, m.Requests, m.RequestDuration)
	return m
}

func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
