// Package metrics provides Prometheus instrumentation for the zakat service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CalculationsTotal counts engine calls, partitioned by category and
	// whether zakat was wajib.
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakat_calculations_total",
		Help: "Total number of zakat calculations",
	}, []string{"category", "wajib"})

	// CalculationRejections counts calculations rejected as invalid input.
	CalculationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakat_calculation_rejections_total",
		Help: "Calculations rejected with invalid input",
	}, []string{"field"})

	// CalculationLatency tracks calculate-and-persist latency.
	CalculationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zakat_calculation_latency_seconds",
		Help:    "Calculation handling latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"category"})

	// NisabRefreshes counts reference price refresh attempts by outcome.
	NisabRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakat_nisab_refreshes_total",
		Help: "Nisab reference refresh attempts",
	}, []string{"outcome"})

	// GoldPricePerGram is the gold price currently served.
	GoldPricePerGram = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zakat_gold_price_per_gram",
		Help: "Current gold price per gram used for nisab",
	})

	// SilverPricePerGram is the silver price currently served.
	SilverPricePerGram = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zakat_silver_price_per_gram",
		Help: "Current silver price per gram used for nisab",
	})

	// PaymentsMarkedOverdue counts payments flipped to overdue by the sweep.
	PaymentsMarkedOverdue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zakat_payments_marked_overdue_total",
		Help: "Payments marked overdue by the scheduled sweep",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zakat_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zakat_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zakat_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality
		// from user and record IDs.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
