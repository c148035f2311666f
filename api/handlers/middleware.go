package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/internal/metrics"
)

// Instrument wraps a handler with request logging and Prometheus metrics.
// The route pattern is recorded instead of the raw URL so path parameters do
// not explode label cardinality.
func Instrument(pattern string, collector *metrics.Collector, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		if collector != nil {
			collector.RecordHTTPRequest(r.Method, pattern, rw.StatusCode, duration)
		}
		if logger != nil {
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.StatusCode),
				zap.Duration("duration", duration),
			)
		}
	})
}
