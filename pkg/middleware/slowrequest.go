package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// TelemetryClient receives slow request and server error events.
type TelemetryClient interface {
	RecordSlowRequest(ctx context.Context, path string, durationMs int64, traceID, requestID string)
	RecordError(ctx context.Context, path, errorMsg string, statusCode int, traceID, requestID string)
}

// SlowRequestMiddleware reports requests slower than the threshold and 5xx
// responses. Rendering a quote with large images is the usual slow path.
// Responses carrying X-Service-Handled are not reported twice.
func SlowRequestMiddleware(slowThreshold time.Duration, telemetryClient TelemetryClient, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		traceID := GetTraceIDFromGin(c)
		requestID := GetRequestIDFromGin(c)
		serviceHandled := c.Writer.Header().Get(ServiceHandledHeader) == "true"

		if latency > slowThreshold && !serviceHandled {
			logging.ForContext(c.Request.Context(), logger).Warn("Slow request detected",
				logging.NewField("path", path),
				logging.NewField("duration_ms", latency.Milliseconds()),
				logging.NewField("threshold_ms", slowThreshold.Milliseconds()),
			)
			if telemetryClient != nil {
				telemetryClient.RecordSlowRequest(c.Request.Context(), path, latency.Milliseconds(), traceID, requestID)
			}
		}

		// ErrorHandlerMiddleware already logged the failure.
		if statusCode >= 500 && !serviceHandled && telemetryClient != nil {
			errorMsg := "Internal server error"
			if len(c.Errors) > 0 {
				errorMsg = c.Errors.String()
			}
			telemetryClient.RecordError(c.Request.Context(), path, errorMsg, statusCode, traceID, requestID)
		}
	}
}
