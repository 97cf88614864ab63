package middleware

import (
	"net/http"
	"time"

	"profile-service/logger"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics := httpsnoop.CaptureMetrics(next, w, r)
			duration := metrics.Duration
			if duration == 0 {
				duration = time.Since(start)
			}

			spanContext := trace.SpanFromContext(r.Context()).SpanContext()

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", metrics.Code),
				zap.Duration("duration", duration),
				zap.String("trace_id", spanContext.TraceID().String()),
				zap.String("span_id", spanContext.SpanID().String()),
			)
		})
	}
}
