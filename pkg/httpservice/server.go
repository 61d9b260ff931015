package httpservice

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/logging"
	"github.com/panelkitchens/quotekit/pkg/middleware"
)

// Server wraps a Gin server with configuration and middleware.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
	port       int
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Logger       logging.Logger
	ServiceName  string

	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	MaxBodySize    int64

	// Telemetry receives slow request and 5xx events; nil disables them.
	Telemetry     middleware.TelemetryClient
	SlowThreshold time.Duration
	// Middleware runs after correlation and before the handlers, e.g. the
	// New Relic transaction middleware.
	Middleware []gin.HandlerFunc
}

// Handler registers routes on the router.
type Handler interface {
	Register(router *gin.Engine)
}

// NewServer creates a new HTTP server with the standard middleware chain and
// the provided handlers.
func NewServer(cfg ServerConfig, handlers ...Handler) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "quote-service"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(RecoveryMiddleware(cfg.Logger))
	router.Use(middleware.CorrelationMiddleware(cfg.Logger, cfg.ServiceName))
	router.Use(middleware.ContextLoggerMiddleware(cfg.Logger, cfg.ServiceName))
	router.Use(LoggingMiddleware(cfg.Logger))
	if cfg.Telemetry != nil && cfg.SlowThreshold > 0 {
		router.Use(middleware.SlowRequestMiddleware(cfg.SlowThreshold, cfg.Telemetry, cfg.Logger))
	}
	router.Use(middleware.ErrorHandlerMiddleware(cfg.Logger))
	router.Use(SecurityHeadersMiddleware())
	router.Use(HTTPMethodWhitelistMiddleware([]string{"GET", "POST", "OPTIONS", "HEAD"}, cfg.Logger))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(CORSMiddleware(CORSConfig{AllowedOrigins: origins}))

	if cfg.MaxBodySize > 0 {
		router.Use(RequestSizeLimitMiddleware(cfg.MaxBodySize, cfg.Logger))
	}
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}))
	}
	router.Use(cfg.Middleware...)

	for _, handler := range handlers {
		handler.Register(router)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		logger:     cfg.Logger,
		port:       cfg.Port,
	}, nil
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", logging.NewField("port", s.port))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying Gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}
