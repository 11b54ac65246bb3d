// Package server exposes the service's HTTP surface: the telephony
// webhook, the voice agent's tool endpoints, and read-only debug
// routes over the stored data.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/riveops/api/rive-voice-intake/internal/storage"
	"gitlab.com/riveops/api/rive-voice-intake/internal/usecase"
	"gitlab.com/riveops/api/rive-voice-intake/pkg/logger"
)

// Options carries the secrets and collaborators the routes need.
type Options struct {
	// WebhookSecret signs inbound webhook bodies; empty disables
	// verification.
	WebhookSecret string
	// ToolsSharedSecret is the bearer token for the tool endpoints;
	// empty allows unauthenticated calls for local development.
	ToolsSharedSecret string

	Intake *usecase.IntakeService
	Tools  *usecase.ToolService

	Calls    storage.CallRepo
	Events   storage.EventRepo
	ToolRuns storage.ToolRunRepo
}

// Server is the main HTTP server.
type Server struct {
	router *gin.Engine
	srv    *http.Server
	opts   Options
}

// New builds the router and wires all routes.
func New(port int, environment string, opts Options) *Server {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestIDMiddleware(), requestLogMiddleware(), gin.Recovery())

	s := &Server{
		router: router,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		opts: opts,
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/bland", s.handleBlandWebhook)
	}

	tools := router.Group("/tools", s.requireToolAuth())
	{
		tools.POST("/log-lease-lead", s.handleLogLeaseLead)
		tools.POST("/log-maintenance-ticket", s.handleLogMaintenanceTicket)
	}

	debug := router.Group("/debug")
	{
		debug.GET("/calls", s.handleListCalls)
		debug.GET("/calls/:call_id", s.handleGetCall)
	}

	return s
}

// Router exposes the gin engine, used by handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Log.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
