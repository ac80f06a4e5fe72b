// Package server exposes the fraud check over HTTP for bidders that run it
// as a sidecar.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mbd888/bidguard/internal/circuitbreaker"
	"github.com/mbd888/bidguard/internal/config"
	"github.com/mbd888/bidguard/internal/forensiq"
	"github.com/mbd888/bidguard/internal/health"
	"github.com/mbd888/bidguard/internal/logging"
	"github.com/mbd888/bidguard/internal/metrics"
	"github.com/mbd888/bidguard/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and the provider client
type Server struct {
	cfg          *config.Config
	client       *forensiq.Client
	health       *health.Registry
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	version      string
	drainDelay   time.Duration
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClient sets a prebuilt provider client (for testing)
func WithClient(c *forensiq.Client) Option {
	return func(s *Server) {
		s.client = c
	}
}

// WithVersion sets the version reported by /health
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		logger:     logging.New(cfg.LogLevel, cfg.LogFormat),
		version:    "dev",
		drainDelay: 5 * time.Second,
		health:     health.NewRegistry(2 * time.Second),
	}

	// Apply options first (may set client/logger)
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		client, err := forensiq.New(cfg.Provider(), forensiq.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create forensiq client: %w", err)
		}
		s.client = client
	}
	s.logger.Info("forensiq client ready",
		"endpoint", s.client.Config().Endpoint,
		"threshold", s.client.Config().RiskThreshold,
		"max_connections", s.client.Config().MaxConnections,
		"bid_on_error", s.client.FailOpenOnError(),
	)

	if err := metrics.RegisterProviderStats(nil, "forensiq", s.client.Stats()); err != nil {
		return nil, fmt.Errorf("failed to register provider metrics: %w", err)
	}
	s.health.Register("forensiq", s.providerCheck)

	// Setup Gin
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)
	return s, nil
}

// providerCheck reports unhealthy while the provider circuit is open.
func (s *Server) providerCheck(_ context.Context) health.Status {
	state := s.client.BreakerState()
	return health.Status{
		Name:    "forensiq",
		Healthy: state != circuitbreaker.StateOpen,
		Detail:  "circuit " + state.String(),
	}
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))
	s.router.Use(metrics.Middleware())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Keep an upstream request ID (load balancer, bidder)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger := logging.L(c.Request.Context())

		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Debug("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	v1.GET("/check", s.checkQueryHandler)
	v1.POST("/check", s.checkBodyHandler)
	v1.GET("/stats", s.statsHandler)
	v1.POST("/maintenance", s.maintenanceHandler)
}

// HealthResponse is the /health payload
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, checks := s.health.CheckAll(c.Request.Context())

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   s.version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server and the pool maintenance loop, and blocks until
// a signal, ctx cancellation, or a listener error.
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.maintenanceLoop(runCtx, s.cfg.MaintenanceInterval)

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		cancel()
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// maintenanceLoop evicts idle provider connections every interval until ctx
// is done.
func (s *Server) maintenanceLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = config.DefaultMaintenanceInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.maintain()
		}
	}
}

func (s *Server) maintain() {
	s.client.Maintain()
	metrics.MaintenanceRunsTotal.Inc()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(s.drainDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	// Release pooled provider connections
	s.client.Maintain()

	snap := s.client.Stats().Snapshot()
	s.logger.Info("server stopped",
		"provider_calls", snap.Calls,
		"avg_latency_ms", snap.AvgLatencyMillis,
	)
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Client returns the provider client
func (s *Server) Client() *forensiq.Client {
	return s.client
}
