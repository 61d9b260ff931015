package httpservice

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

// RequestSizeLimitMiddleware limits the size of request bodies. Quote
// requests carry base64 images, so the limit is generous but finite.
func RequestSizeLimitMiddleware(maxBytes int64, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			logging.ForContext(c.Request.Context(), logger).Warn("Request body too large",
				logging.NewField("content_length", c.Request.ContentLength),
				logging.NewField("max_bytes", maxBytes),
				logging.NewField("ip", c.ClientIP()),
			)
			middleware.SetError(c, errors.NewAppError(errors.ErrorCodePayloadTooLarge, "Request body too large", http.StatusRequestEntityTooLarge))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// HTTPMethodWhitelistMiddleware restricts HTTP methods to an allowed list.
func HTTPMethodWhitelistMiddleware(allowedMethods []string, logger logging.Logger) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedMethods))
	for _, method := range allowedMethods {
		allowed[method] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.Request.Method] {
			logging.ForContext(c.Request.Context(), logger).Warn("HTTP method not allowed",
				logging.NewField("method", c.Request.Method),
				logging.NewField("path", c.Request.URL.Path),
			)
			middleware.SetError(c, errors.NewAppError(errors.ErrorCodeBadRequest, "Method not allowed", http.StatusMethodNotAllowed))
			return
		}
		c.Next()
	}
}
