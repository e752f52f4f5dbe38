package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jessedh/t3-ledger/internal/api/middleware"
	"github.com/jessedh/t3-ledger/internal/api/rest"
	"github.com/jessedh/t3-ledger/internal/liability"
	"github.com/jessedh/t3-ledger/internal/logger"
	"github.com/jessedh/t3-ledger/internal/transfer"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AdminAPIKeys []string
}

// Server wraps the HTTP server
type Server struct {
	config      Config
	service     *transfer.Service
	liabilities *liability.Ledger
	httpServer  *http.Server
}

// New creates a new API server
func New(cfg Config, service *transfer.Service, liabilities *liability.Ledger) *Server {
	return &Server{
		config:      cfg,
		service:     service,
		liabilities: liabilities,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Create REST handler
	restHandler := rest.NewHandler(s.service, s.liabilities)

	// Setup REST routes
	rest.SetupRoutes(router, restHandler, middleware.AuthConfig{
		AdminAPIKeys: s.config.AdminAPIKeys,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
