// metrics.go - Prometheus HTTP метрики Service Account Module.
// Регистрирует метрики: sam_http_requests_total, sam_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sam_http_requests_total",
			Help: "Общее количество HTTP-запросов к Service Account Module",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sam_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Service Account Module в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware собирает количество и длительность запросов по endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			status := strconv.Itoa(wrapped.statusCode)
			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

const serviceAccountsPrefix = "/api/v1/serviceaccounts/"

// normalizePath заменяет имя service account на {name}, чтобы
// кардинальность лейбла path не зависела от числа учётных записей.
// /api/v1/serviceaccounts/svcacc02/history → /api/v1/serviceaccounts/{name}/history
func normalizePath(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/openapi.json",
		"/api/v1/ad/accounts",
		"/api/v1/serviceaccounts",
		"/api/v1/serviceaccounts/onboard",
		"/api/v1/serviceaccounts/offboard",
		"/api/v1/serviceaccounts/user":
		return path
	}

	rest, ok := strings.CutPrefix(path, serviceAccountsPrefix)
	if !ok || rest == "" {
		return "other"
	}

	_, suffix, _ := strings.Cut(rest, "/")
	switch suffix {
	case "":
		return serviceAccountsPrefix + "{name}"
	case "history", "password/reset":
		return serviceAccountsPrefix + "{name}/" + suffix
	default:
		return "other"
	}
}
