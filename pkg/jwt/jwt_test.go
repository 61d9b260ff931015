package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenServiceFromConfig(Config{SecretKey: testSecret, TokenTTL: time.Hour}, logging.NewNop())
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService("short", time.Hour, logging.NewNop())
	assert.Error(t, err)

	_, err = NewTokenServiceFromConfig(Config{}, logging.NewNop())
	assert.Error(t, err)
	assert.False(t, Config{}.Enabled())
}

func TestIssueAndValidate(t *testing.T) {
	svc := newService(t)
	token, err := svc.Issue("dana", RoleSales)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "dana", claims.UserID)
	assert.Equal(t, RoleSales, claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	svc := newService(t)
	_, err := svc.Issue("  ", RoleSales)
	assert.ErrorIs(t, err, ErrMissingClaims)
	_, err = svc.Issue("dana", "owner")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestValidate_Failures(t *testing.T) {
	svc := newService(t)
	token, err := svc.Issue("dana", RoleAdmin)
	require.NoError(t, err)

	other, err := NewTokenService("fedcba9876543210fedcba9876543210", time.Hour, logging.NewNop())
	require.NoError(t, err)
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = svc.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func newRouter(svc *TokenService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	logger := logging.NewNop()
	r.Use(middleware.ErrorHandlerMiddleware(logger))
	handlers := []gin.HandlerFunc{AuthMiddleware(svc, logger)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(logger, roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := GetClaims(c)
		c.String(http.StatusOK, claims.UserID)
	})
	r.GET("/quotes", handlers...)
	return r
}

func serve(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	svc := newService(t)
	r := newRouter(svc)
	token, err := svc.Issue("dana", RoleSales)
	require.NoError(t, err)

	w := serve(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dana", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	w = serve(r, "Bearer a.b.c")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestRequireRole(t *testing.T) {
	svc := newService(t)
	r := newRouter(svc, RoleAdmin)

	sales, err := svc.Issue("dana", RoleSales)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+sales).Code)

	admin, err := svc.Issue("noa", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(r, "Bearer "+admin).Code)
}
