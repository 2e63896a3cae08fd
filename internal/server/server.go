// Package server exposes the HTTP surface: the GitHub webhook endpoint,
// health checking, and the run-history API. It validates and enqueues;
// all Git work happens behind the queue.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/config"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/constants"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/container"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/db"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/queue"
)

// Server represents the webhook HTTP server
type Server struct {
	cfg        *config.Config
	echo       *echo.Echo
	dispatcher *queue.Dispatcher
	runs       db.RunStore
	runtime    container.Runtime
	database   *db.DB
	origin     *originChecker
	hub        *Hub
	startTime  time.Time
}

// New creates the HTTP server. runs and database may be nil when the
// history store is disabled.
func New(cfg *config.Config, dispatcher *queue.Dispatcher, runtime container.Runtime, database *db.DB, runs db.RunStore) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = constants.DefaultServerReadTimeout
	e.Server.WriteTimeout = constants.DefaultServerWriteTimeout

	s := &Server{
		cfg:        cfg,
		echo:       e,
		dispatcher: dispatcher,
		runs:       runs,
		runtime:    runtime,
		database:   database,
		origin:     newOriginChecker(),
		hub:        NewHub(),
		startTime:  time.Now(),
	}

	e.Use(middleware.Recover())
	e.Use(logger.RequestLogger())

	s.setupRoutes()
	return s
}

// Hub returns the websocket hub so the dispatcher can broadcast run outcomes
func (s *Server) Hub() *Hub {
	return s.hub
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.POST("/webhook", s.handleWebhook)
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/stream", s.handleRunsStream)
}

// Start runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Webhook listener started")
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultServerShutdownTimeout)
	defer cancel()

	s.hub.Close()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Webhook listener stopped")
	return nil
}

// HealthResponse reports service liveness details
type HealthResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	QueueDepth int    `json:"queue_depth"`
	Docker     bool   `json:"docker"`
	Database   bool   `json:"database"`
}

// handleHealth reports docker availability, database reachability and
// queue depth
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		QueueDepth: s.dispatcher.Depth(),
		Docker:     s.runtime.IsAvailable(c.Request().Context()),
		Database:   true,
	}

	if s.database != nil {
		if err := s.database.PingContext(c.Request().Context()); err != nil {
			resp.Database = false
		}
	}

	status := http.StatusOK
	if !resp.Docker || !resp.Database {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}

// handleListRuns returns recent run history, newest first
func (s *Server) handleListRuns(c echo.Context) error {
	if s.runs == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run history is disabled")
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	runs, err := s.runs.ListRuns(c.Request().Context(), limit)
	if err != nil {
		logger.WithError(err).Error("Failed to list runs")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}
