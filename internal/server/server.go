// Package server exposes the ingestion workflow over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"repoingest/internal/models"
)

// Service is the ingestion operation the server fronts.
type Service interface {
	Ingest(ctx context.Context, repoInput, token string) *models.IngestResult
}

// Server wraps the echo HTTP server.
type Server struct {
	echo    *echo.Echo
	svc     Service
	metrics *Metrics
	addr    string
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(svc Service, metrics *Metrics, addr string) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("ingest service cannot be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			slog.Info("http request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
			return err
		}
	})

	s := &Server{
		echo:    e,
		svc:     svc,
		metrics: metrics,
		addr:    addr,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	s.echo.POST("/ingest", s.handleIngest)
}

// IngestRequest is the body for POST /ingest.
type IngestRequest struct {
	RepoLink    string `json:"repo_link"`
	GitHubToken string `json:"github_token"`
}

// HealthResponse is the body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleIngest runs an ingestion and mirrors the result as JSON. Failures,
// including malformed request bodies, still answer 200 with success=false:
// the success flag is the contract, not the status code.
func (s *Server) handleIngest(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		slog.Warn("invalid ingest request", "error", err)
		res := models.Failure("", models.ErrInputEmpty, fmt.Sprintf("invalid request body: %v", err))
		s.metrics.Observe(res)
		return c.JSON(http.StatusOK, res)
	}

	res := s.svc.Ingest(c.Request().Context(), req.RepoLink, req.GitHubToken)
	s.metrics.Observe(res)
	return c.JSON(http.StatusOK, res)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	slog.Info("starting http server", "addr", s.addr)
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
