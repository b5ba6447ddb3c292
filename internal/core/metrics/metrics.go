// Package metrics exposes Prometheus metrics for the PromoAPI service.
//
// Metrics:
//   - promokeeper_promo_api_requests_total: RPCs by method and status code
//   - promokeeper_promo_api_request_duration_seconds: RPC latency by method
//   - promokeeper_rules_evaluations_total: rule evaluations by outcome
//   - promokeeper_rules_discount_total: sum of granted discounts
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "promokeeper"

// Evaluation outcomes.
const (
	OutcomeApplied       = "applied"
	OutcomeNotMet        = "not_met"
	OutcomeNotApplicable = "not_applicable"
)

// Metrics holds the service's collectors and their registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	evaluations     *prometheus.CounterVec
	discountTotal   prometheus.Counter
}

// New creates and registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "promo_api",
				Name:      "requests_total",
				Help:      "Total number of PromoAPI requests",
			},
			[]string{"method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "promo_api",
				Name:      "request_duration_seconds",
				Help:      "Duration of PromoAPI requests in seconds",
				// 100µs to ~3s
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
			},
			[]string{"method"},
		),

		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "evaluations_total",
				Help:      "Total number of rule evaluations by outcome",
			},
			[]string{"outcome"},
		),

		discountTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rules",
				Name:      "discount_total",
				Help:      "Sum of discounts granted by applied rules",
			},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.evaluations,
		m.discountTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveEvaluation records one rule evaluation.
// failed is true when the rule could not be parsed or evaluated.
func (m *Metrics) ObserveEvaluation(applied, failed bool, discount float64) {
	switch {
	case failed:
		m.evaluations.WithLabelValues(OutcomeNotApplicable).Inc()
	case applied:
		m.evaluations.WithLabelValues(OutcomeApplied).Inc()
		if discount > 0 {
			m.discountTotal.Add(discount)
		}
	default:
		m.evaluations.WithLabelValues(OutcomeNotMet).Inc()
	}
}

// UnaryInterceptor records request counts and latency.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.requestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		m.requestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// NewServer returns an HTTP server exposing /metrics on addr.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
