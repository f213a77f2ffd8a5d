package httpapi

import (
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxcalc",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taxcalc",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxcalc",
			Name:      "calculations_total",
			Help:      "Tax calculations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	scenariosPerRequest = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "taxcalc",
			Name:      "scenarios_per_request",
			Help:      "Number of what-if scenarios in a comparison request",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taxcalc",
			Name:      "result_cache_lookups_total",
			Help:      "Result cache lookups by kind and outcome",
		},
		[]string{"kind", "result"},
	)
	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taxcalc",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := strconv.Itoa(ww.Status())
		httpRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

func observeCalculation(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	calculationsTotal.WithLabelValues(kind, outcome).Inc()
}

func observeCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(kind, result).Inc()
}
