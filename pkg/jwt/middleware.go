package jwt

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

// ContextKeyClaims is the gin context key holding the validated *Claims.
const ContextKeyClaims = "jwt_claims"

// AuthMiddleware requires a valid bearer token. Failures are attached to the
// gin context and rendered by middleware.ErrorHandlerMiddleware.
func AuthMiddleware(svc *TokenService, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			middleware.SetError(c, apperrors.NewUnauthorizedError("Authorization header is required"))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			middleware.SetError(c, apperrors.NewUnauthorizedError("Expected: Bearer <token>"))
			return
		}

		claims, err := svc.Validate(strings.TrimSpace(token))
		if err != nil {
			logging.ForContext(c.Request.Context(), logger).Warn("Token validation failed",
				logging.NewField("error", err),
				logging.NewField("ip", c.ClientIP()),
				logging.NewField("path", c.Request.URL.Path),
			)
			msg := "Invalid token"
			if err == ErrExpiredToken {
				msg = "Token has expired"
			}
			middleware.SetError(c, apperrors.NewUnauthorizedError(msg))
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose token role is not one of roles. It must
// run after AuthMiddleware.
func RequireRole(logger logging.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			middleware.SetError(c, apperrors.NewUnauthorizedError("Authentication required"))
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		logging.ForContext(c.Request.Context(), logger).Warn("Access denied: insufficient role",
			logging.NewField("user_id", claims.UserID),
			logging.NewField("role", claims.Role),
			logging.NewField("required_roles", roles),
		)
		middleware.SetError(c, apperrors.NewForbiddenError("Insufficient permissions"))
	}
}

// GetClaims returns the claims stored by AuthMiddleware.
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
