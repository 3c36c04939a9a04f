// Package server assembles the HTTP surface: purchase ingestion,
// recommendation queries, health checks and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/config"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/middleware"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/routes/health"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/routes/purchases"
	"github.com/KFP-SEAN/nerdx-apec-mvp-sub004/pkg/routes/recommendations"
)

// Options carries the wired collaborators for the HTTP server
type Options struct {
	Config      config.Config
	Logger      ectologger.Logger
	Recorder    purchases.Recorder
	Recommender recommendations.Recommender
	Health      *health.Checker
}

// Server is the HTTP server for the recommendation service
type Server struct {
	echo   *echo.Echo
	cfg    config.Config
	logger ectologger.Logger
}

// New builds the echo server with middleware and routes registered
func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(opts.Logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(opts.Logger))
	e.Use(otelecho.Middleware(opts.Config.AppName))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: opts.Config.AllowOrigins,
		AllowMethods: opts.Config.AllowMethods,
	}))

	e.Server.ReadTimeout = time.Duration(opts.Config.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(opts.Config.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(opts.Config.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(opts.Config.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = opts.Config.MaxHeaderBytes

	api := e.Group("/api/v1")
	purchases.NewHandler(opts.Recorder, opts.Logger).Register(api.Group("/purchases"))
	recommendations.NewHandler(opts.Recommender, opts.Config.RecommendationDefaultLimit, opts.Logger).Register(api.Group("/recommendations"))

	opts.Health.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{
		echo:   e,
		cfg:    opts.Config,
		logger: opts.Logger,
	}
}

// Start begins serving in the background. Fatal listener errors are logged;
// a clean shutdown is not an error.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)

	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()

	s.logger.WithContext(ctx).WithField("addr", addr).Info("HTTP server started")
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
