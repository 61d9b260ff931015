package httpservice

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RPS   float64 // Requests per second
	Burst int     // Maximum burst size
}

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware limits requests per client IP. Quote rendering is CPU
// bound, so the default budget is small.
func RateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	burst := max(cfg.Burst, 1)
	var (
		mu        sync.Mutex
		clients   = make(map[string]*rateClient)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		now := time.Now()
		ip := c.ClientIP()

		mu.Lock()
		if now.Sub(lastSweep) > time.Minute {
			for key, cl := range clients {
				if now.Sub(cl.lastSeen) > 3*time.Minute {
					delete(clients, key)
				}
			}
			lastSweep = now
		}
		cl, found := clients[ip]
		if !found {
			cl = &rateClient{limiter: rate.NewLimiter(rate.Limit(cfg.RPS), burst)}
			clients[ip] = cl
		}
		cl.lastSeen = now
		allowed := cl.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.Header("Retry-After", "1")
			middleware.SetError(c, errors.NewAppError(errors.ErrorCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests))
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds security-related headers to responses.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Next()
	}
}

// LoggingMiddleware logs every request once it completes.
func LoggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []logging.Field{
			logging.NewField("method", c.Request.Method),
			logging.NewField("path", path),
			logging.NewField("status", status),
			logging.NewField("latency_ms", time.Since(start).Milliseconds()),
			logging.NewField("ip", c.ClientIP()),
			logging.NewField("response_bytes", c.Writer.Size()),
		}
		if raw := c.Request.URL.RawQuery; raw != "" {
			fields = append(fields, logging.NewField("query", raw))
		}

		ctxLogger := logging.ForContext(c.Request.Context(), logger)
		switch {
		case status >= 500:
			ctxLogger.Error("HTTP request", fields...)
		case status >= 400:
			ctxLogger.Warn("HTTP request", fields...)
		default:
			ctxLogger.Info("HTTP request", fields...)
		}
	}
}

// RecoveryMiddleware recovers from panics and logs the error.
func RecoveryMiddleware(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.ForContext(c.Request.Context(), logger).Error("Panic recovered",
			logging.NewField("error", recovered),
			logging.NewField("path", c.Request.URL.Path),
			logging.NewField("method", c.Request.Method),
		)
		appErr := errors.NewInternalError("Internal server error")
		c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToErrorResponse())
	})
}

// CORSConfig holds configuration for CORS.
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORSMiddleware adds CORS headers with configuration.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	headers := "Content-Type, Content-Length, Accept, Authorization, X-Trace-ID, X-Request-ID"
	if len(cfg.AllowedHeaders) > 0 {
		headers = strings.Join(cfg.AllowedHeaders, ", ")
	}
	methods := "GET, POST, OPTIONS"
	if len(cfg.AllowedMethods) > 0 {
		methods = strings.Join(cfg.AllowedMethods, ", ")
	}
	allowAll := len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		allowed := allowAll
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, o := range cfg.AllowedOrigins {
				if o == origin {
					allowed = true
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					c.Writer.Header().Set("Vary", "Origin")
					break
				}
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Headers", headers)
			c.Writer.Header().Set("Access-Control-Allow-Methods", methods)
			c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Quote-ID, X-Trace-ID")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
