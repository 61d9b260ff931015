package httpservice

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelkitchens/quotekit/pkg/errors"
	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware(logging.NewNop()))
	r.Use(mw...)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newRouter(RateLimitMiddleware(RateLimitConfig{RPS: 2, Burst: 2}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/", "").Code)
	}

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, errors.ErrorCodeTooManyRequests, decodeError(t, w).Code)

	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/", "").Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := newRouter(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	router := newRouter(RequestSizeLimitMiddleware(16, logging.NewNop()))
	router.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/", `{"a":1}`).Code)
	w := do(router, http.MethodPost, "/", `{"customer":"a long enough body"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHTTPMethodWhitelistMiddleware(t *testing.T) {
	router := newRouter(HTTPMethodWhitelistMiddleware([]string{"GET"}, logging.NewNop()))
	router.Any("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(router, http.MethodDelete, "/", "").Code)
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		cfg            CORSConfig
		origin         string
		expectedOrigin string
	}{
		{"Allow All", CORSConfig{AllowedOrigins: []string{"*"}}, "http://example.com", "*"},
		{"Allow Specific", CORSConfig{AllowedOrigins: []string{"http://example.com"}}, "http://example.com", "http://example.com"},
		{"Disallow Specific", CORSConfig{AllowedOrigins: []string{"http://example.com"}}, "http://evil.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(CORSMiddleware(tt.cfg))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

type customerDTO struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty,phone"`
	Items []struct {
		Quantity int `json:"quantity" validate:"gte=1"`
	} `json:"items" validate:"required,min=1,dive"`
}

func TestBindJSON_Validation(t *testing.T) {
	router := newRouter()
	router.POST("/", Wrap("bind", func(c *gin.Context) error {
		var dto customerDTO
		if err := BindJSON(c, &dto); err != nil {
			return err
		}
		RespondSuccess(c, dto.Name)
		return nil
	}))

	w := do(router, http.MethodPost, "/", `{"name":"דנה","phone":"050-1234567","items":[{"quantity":2}]}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/", `{"phone":"abc","items":[{"quantity":0}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, errors.ErrorCodeValidation, resp.Code)
	assert.Equal(t, "required", resp.Details["name"])
	assert.Equal(t, "phone", resp.Details["phone"])
	assert.Equal(t, "gte=1", resp.Details["items[0].quantity"])

	w = do(router, http.MethodPost, "/", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWrap_PropagatesAppError(t *testing.T) {
	router := newRouter()
	router.GET("/", Wrap("missing", func(c *gin.Context) error {
		return errors.NewNotFoundError("quote not found")
	}))

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "quote not found", decodeError(t, w).Message)
}

func TestRespondFile(t *testing.T) {
	router := newRouter()
	router.GET("/", func(c *gin.Context) {
		RespondFile(c, "application/pdf", "הצעת_מחיר_דנה_20260309.pdf", []byte("%PDF"))
	})

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename*=utf-8''")
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestNewServer_Health(t *testing.T) {
	srv, err := NewServer(ServerConfig{Port: 0, Logger: logging.NewNop(), RateLimitRPS: 10, RateLimitBurst: 10, MaxBodySize: 1 << 20})
	require.NoError(t, err)

	w := do(srv.Router(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.TraceIDHeader))

	_, err = NewServer(ServerConfig{})
	assert.Error(t, err)
}
