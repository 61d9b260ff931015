package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/utils"
)

// Context keys and headers for correlation IDs. The keys are plain strings
// shared with logging.ForContext.
const (
	TraceIDKey      = "trace_id"
	TraceIDHeader   = "X-Trace-ID"
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"
)

// CorrelationMiddleware attaches a trace ID and a request ID to every
// request. An incoming X-Trace-ID is kept so a quote can be followed across
// services; the request ID is always generated here.
func CorrelationMiddleware(logger logging.Logger, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = utils.GenerateUUID()
			logger.Debug("Trace ID missing, generated new one",
				logging.NewField("service", serviceName),
				logging.NewField("trace_id", traceID),
			)
		}
		requestID := utils.GenerateRequestID()

		ctx := context.WithValue(c.Request.Context(), TraceIDKey, traceID)
		ctx = context.WithValue(ctx, RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Set(TraceIDKey, traceID)
		c.Set(RequestIDKey, requestID)
		c.Header(TraceIDHeader, traceID)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetTraceIDFromGin retrieves the trace ID from Gin context.
func GetTraceIDFromGin(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

// GetRequestIDFromGin retrieves the request ID from Gin context.
func GetRequestIDFromGin(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// ContextLoggerMiddleware attaches a logger carrying the service name and
// correlation IDs to the request context, and logs each finished request.
func ContextLoggerMiddleware(baseLogger logging.Logger, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := []logging.Field{logging.NewField("service", serviceName)}
		if traceID := GetTraceIDFromGin(c); traceID != "" {
			fields = append(fields, logging.NewField("trace_id", traceID))
		}
		if requestID := GetRequestIDFromGin(c); requestID != "" {
			fields = append(fields, logging.NewField("request_id", requestID))
		}
		ctxLogger := baseLogger.With(fields...)
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), ctxLogger))

		c.Next()

		ctxLogger.Debug("Request completed",
			logging.NewField("method", c.Request.Method),
			logging.NewField("path", c.FullPath()),
			logging.NewField("status", c.Writer.Status()),
		)
	}
}
