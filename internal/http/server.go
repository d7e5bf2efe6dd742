// Package http provides HTTP server implementation and request routing.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogHTTP "github.com/allisson/orders/internal/catalog/http"
	customerHTTP "github.com/allisson/orders/internal/customer/http"
	orderHTTP "github.com/allisson/orders/internal/order/http"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// NewServer creates a new HTTP server. The router must be configured with
// SetupRouter before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// RouterConfig holds the handlers and middleware settings for route registration.
type RouterConfig struct {
	OrderHandler    *orderHTTP.OrderHandler
	ProductHandler  *catalogHTTP.ProductHandler
	CustomerHandler *customerHTTP.CustomerHandler

	CORSEnabled      bool
	CORSAllowOrigins string

	RateLimitEnabled        bool
	RateLimitRequestsPerSec float64
	RateLimitBurst          int

	// MetricsMiddleware records per-request HTTP metrics. Optional.
	MetricsMiddleware gin.HandlerFunc
}

// SetupRouter builds the Gin router with middleware and API routes.
func (s *Server) SetupRouter(cfg RouterConfig) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsMiddleware != nil {
		router.Use(cfg.MetricsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	if cfg.OrderHandler != nil {
		orders := v1.Group("/orders")
		orders.POST("", cfg.OrderHandler.CreateHandler)
		orders.GET("", cfg.OrderHandler.ListHandler)
		orders.GET("/number/:orderNumber", cfg.OrderHandler.GetByNumberHandler)
		orders.GET("/:id", cfg.OrderHandler.GetHandler)
		orders.PUT("/:id/status", cfg.OrderHandler.UpdateStatusHandler)
		orders.POST("/:id/cancel", cfg.OrderHandler.CancelHandler)
		orders.PUT("/:id/items", cfg.OrderHandler.UpdateItemsHandler)
	}

	if cfg.ProductHandler != nil {
		products := v1.Group("/products")
		products.POST("", cfg.ProductHandler.CreateHandler)
		products.GET("", cfg.ProductHandler.ListHandler)
		products.GET("/sku/:sku", cfg.ProductHandler.GetBySKUHandler)
		products.GET("/:id", cfg.ProductHandler.GetHandler)
		products.PATCH("/:id", cfg.ProductHandler.UpdateHandler)
		products.DELETE("/:id", cfg.ProductHandler.DeleteHandler)
	}

	if cfg.CustomerHandler != nil {
		customers := v1.Group("/customers")
		customers.POST("", cfg.CustomerHandler.CreateHandler)
		customers.GET("", cfg.CustomerHandler.ListHandler)
		customers.GET("/:id", cfg.CustomerHandler.GetHandler)
		customers.PATCH("/:id", cfg.CustomerHandler.UpdateHandler)
		customers.DELETE("/:id", cfg.CustomerHandler.DeleteHandler)
	}

	s.router = router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The database
// must be reachable.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{"database": "ok"}

	if s.db == nil {
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("readiness check failed", slog.Any("error", err))
		components["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
