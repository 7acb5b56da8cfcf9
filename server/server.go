// Package server hosts the HTTP transport: query submission, SSE progress
// streaming and summary retrieval. Handlers hold no pipeline logic.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/docfoundry/docfoundry/logging"
	"github.com/docfoundry/docfoundry/orchestrator"
)

// Server runs the HTTP transport in front of an orchestrator.
type Server struct {
	echo   *echo.Echo
	listen string
	logger logging.Logger
}

// New builds the server with routes mounted.
func New(orch *orchestrator.Orchestrator, listen string, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	NewHandler(orch, logger).RegisterRoutes(e)

	return &Server{echo: e, listen: listen, logger: logger}
}

// Start blocks serving HTTP until Shutdown or a listen failure.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.listen)
	if err := s.echo.Start(s.listen); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
