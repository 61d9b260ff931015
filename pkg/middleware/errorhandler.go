package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/logging"
)

// ServiceHandledHeader tells upstream gateways that the service already
// logged and reported the failure.
const ServiceHandledHeader = "X-Service-Handled"

// ErrorHandlerMiddleware turns the last error attached to the Gin context
// into a JSON error response. Client errors are logged at Warn, server
// errors at Error.
func ErrorHandlerMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := errors.FromError(c.Errors.Last().Err)

		ctxLogger := logging.ForContext(c.Request.Context(), logger)
		fields := []logging.Field{
			logging.NewField("code", string(appErr.Code)),
			logging.NewField("error", appErr.Error()),
			logging.NewField("status_code", appErr.HTTPStatus),
			logging.NewField("handled_by_service", appErr.HandledByService),
		}
		if appErr.HTTPStatus >= 500 {
			ctxLogger.Error("Request failed", fields...)
		} else {
			ctxLogger.Warn("Request rejected", fields...)
		}

		if appErr.HandledByService {
			c.Header(ServiceHandledHeader, "true")
		}
		if !c.Writer.Written() {
			c.JSON(appErr.HTTPStatus, appErr.ToErrorResponse())
		}
	}
}

// SetError sets an error in the Gin context to be handled by ErrorHandlerMiddleware.
func SetError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
