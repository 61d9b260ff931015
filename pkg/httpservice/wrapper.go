package httpservice

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

// HandlerFunc is a handler that returns its failure instead of writing it.
type HandlerFunc func(c *gin.Context) error

// Wrap adapts a HandlerFunc to gin. Entry and exit are logged at debug; a
// returned error is attached to the context for ErrorHandlerMiddleware,
// which logs and renders it.
func Wrap(handlerName string, fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := logging.FromContext(c.Request.Context())
		start := time.Now()

		logger.Debug("Handler started",
			logging.NewField("handler", handlerName),
			logging.NewField("method", c.Request.Method),
			logging.NewField("path", c.Request.URL.Path),
		)

		if err := fn(c); err != nil {
			logger.Debug("Handler returned error",
				logging.NewField("handler", handlerName),
				logging.NewField("latency_ms", time.Since(start).Milliseconds()),
			)
			middleware.SetError(c, err)
			return
		}

		logger.Debug("Handler completed",
			logging.NewField("handler", handlerName),
			logging.NewField("latency_ms", time.Since(start).Milliseconds()),
		)
	}
}
