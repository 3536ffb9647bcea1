package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	apimiddleware "cloudbill/internal/api/middleware"
	"cloudbill/internal/report"
	"cloudbill/internal/store"
)

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port              int
	ShutdownTimeout   time.Duration
	EnableCORS        bool
	AllowedOrigins    []string
	MaxBodySize       string
	RateLimitRequests int
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:              8080,
		ShutdownTimeout:   10 * time.Second,
		EnableCORS:        true,
		AllowedOrigins:    []string{"http://localhost:3000"},
		MaxBodySize:       "1M",
		RateLimitRequests: 100,
	}
}

// Server represents the HTTP API server
type Server struct {
	echo    *echo.Echo
	config  *ServerConfig
	store   *store.Store
	reports *report.Service
}

// NewServer creates a new API server
func NewServer(config *ServerConfig, st *store.Store, reports *report.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Disable Echo's default logger, we'll use our own
	e.Logger.SetOutput(io.Discard)

	// Set custom validator
	e.Validator = NewValidator()

	s := &Server{
		echo:    e,
		config:  config,
		store:   st,
		reports: reports,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware stack
func (s *Server) setupMiddleware() {
	// Recover from panics
	s.echo.Use(middleware.Recover())

	// Request ID for tracing
	s.echo.Use(middleware.RequestID())

	// Logging middleware
	s.echo.Use(apimiddleware.Logger())

	// CORS if enabled
	if s.config.EnableCORS {
		s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.config.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	// Body limit
	s.echo.Use(middleware.BodyLimit(s.config.MaxBodySize))

	// Rate limiting
	if s.config.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(s.config.RateLimitRequests),
		)))
	}

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Health check and metrics (no versioned prefix)
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readyCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Report routes
	reportHandler := NewReportHandler(s.reports)
	reportsGroup := v1.Group("/reports")
	reportsGroup.GET("/consumption", reportHandler.Consumption)
	reportsGroup.GET("/costs", reportHandler.Cost)
	reportsGroup.GET("/budgets", reportHandler.Budget)

	// Price history routes
	priceHandler := NewPriceHandler(s.store)
	pricesGroup := v1.Group("/prices")
	pricesGroup.GET("", priceHandler.List)
	pricesGroup.POST("", priceHandler.Create)

	// Budget routes
	budgetHandler := NewBudgetHandler(s.store)
	budgetsGroup := v1.Group("/budgets")
	budgetsGroup.GET("", budgetHandler.List)
	budgetsGroup.PUT("", budgetHandler.Upsert)
}

// healthCheck returns basic health status
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// readyCheck checks if server is ready to handle requests
func (s *Server) readyCheck(c echo.Context) error {
	// Check database connection
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "database unavailable",
		})
	}

	stats := s.store.Stats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
		"database": map[string]interface{}{
			"total_conns":    stats.TotalConns(),
			"idle_conns":     stats.IdleConns(),
			"acquired_conns": stats.AcquiredConns(),
		},
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance for testing
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
