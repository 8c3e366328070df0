package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freelance-chat/config"
	"freelance-chat/internal/middleware"
	"freelance-chat/internal/transport/httpdto"
	"freelance-chat/internal/websocket"
	"freelance-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout    = 5 * time.Second
	healthCheckTimeout = 2 * time.Second
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	onShutdown []func(ctx context.Context)
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// HealthCheck reports whether a backing service answers.
type HealthCheck func(ctx context.Context) error

type Dependencies struct {
	Chat        *websocket.Handler
	Broadcaster *websocket.Broadcaster
	Database    HealthCheck
	// Redis is nil when the relay is disabled.
	Redis HealthCheck
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// OnShutdown registers fn to run after the listener stopped accepting connections.
// Hooks run in registration order and share the shutdown deadline.
func (s *Server) OnShutdown(fn func(ctx context.Context)) {
	s.onShutdown = append(s.onShutdown, fn)
}

func (s *Server) SetupRoutes(deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		s.health(c, deps)
	})

	s.engine.GET(s.config.WSPath, deps.Chat.Connect)
}

func (s *Server) health(c *gin.Context, deps Dependencies) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := httpdto.HealthStatus{Status: "healthy", Database: "up"}
	healthy := true

	if deps.Database != nil {
		if err := deps.Database(ctx); err != nil {
			s.logger.WithContext(ctx).Warn("database health check failed", zap.Error(err))
			status.Database = "down"
			healthy = false
		}
	}
	if deps.Redis != nil {
		status.Redis = "up"
		if err := deps.Redis(ctx); err != nil {
			s.logger.WithContext(ctx).Warn("redis health check failed", zap.Error(err))
			status.Redis = "down"
			healthy = false
		}
	}
	if deps.Chat != nil {
		status.ActiveSessions = deps.Chat.ActiveSessions()
	}
	if deps.Broadcaster != nil {
		status.Participants = deps.Broadcaster.SinkCount()
	}

	if !healthy {
		status.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, httpdto.Response[httpdto.HealthStatus]{
			Success: false,
			Data:    status,
			Error:   "dependency unavailable",
			Code:    "UNHEALTHY",
		})
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(status))
}

func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(quit)

	s.logger.Infof("Server is running on :%s", s.config.AppPort)

	select {
	case <-quit:
	case err := <-errCh:
		s.logger.Errorf("Error in starting the server: %s", err)
		return err
	}

	s.logger.Infof("Quitting signal received.. Shutting down within %s", shutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		s.logger.Errorf("Error in the graceful shutdown of the server: %s", err)
	}
	for _, fn := range s.onShutdown {
		fn(ctx)
	}
	if err != nil {
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
