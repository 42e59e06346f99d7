package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"guionesreels/ideagate/pkg/config"
	"guionesreels/ideagate/pkg/gateway/middleware"
	"guionesreels/ideagate/pkg/telemetry/health"
	"guionesreels/ideagate/pkg/telemetry/metrics"
)

// Options configures a Server.
type Options struct {
	// Config holds the listener, route, and timeouts.
	Config config.ServerConfig

	// Gateway serves the generate route. Required.
	Gateway http.Handler

	// Health serves the liveness and readiness endpoints. Optional.
	Health *health.Checker

	// HealthConfig holds the health endpoint paths.
	HealthConfig config.HealthConfig

	// Metrics is served on MetricsPath when enabled. Optional.
	Metrics     *metrics.Collector
	MetricsPath string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server hosts the gateway over HTTP.
type Server struct {
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a server. It does not listen until Start is called.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config.Route == "" {
		opts.Config.Route = "/generate"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.HealthConfig.LivenessPath == "" {
		opts.HealthConfig.LivenessPath = "/health"
	}
	if opts.HealthConfig.ReadinessPath == "" {
		opts.HealthConfig.ReadinessPath = "/ready"
	}

	return &Server{
		opts:   opts,
		logger: opts.Logger.With("component", "server"),
	}
}

// Start listens on the configured address and serves until ctx is canceled,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	if s.opts.Gateway == nil {
		s.mu.Unlock()
		return fmt.Errorf("server has no gateway handler")
	}

	listener, err := net.Listen("tcp", s.opts.Config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Config.ListenAddress, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.opts.Config.ReadTimeout,
		WriteTimeout:   s.opts.Config.WriteTimeout,
		IdleTimeout:    s.opts.Config.IdleTimeout,
		MaxHeaderBytes: s.opts.Config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server",
			"address", listener.Addr().String(),
			"route", s.opts.Config.Route,
		)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.WithoutCancel(ctx))
	case err, ok := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if !ok {
			// Shutdown was called directly.
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to ShutdownTimeout
// for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		srv := s.httpServer
		s.mu.RUnlock()
		if srv == nil {
			return
		}

		timeout := s.opts.Config.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(s.opts.Config.Route, s.opts.Gateway)

	if s.opts.Health != nil {
		s.opts.Health.Register(mux, s.opts.HealthConfig.LivenessPath, s.opts.HealthConfig.ReadinessPath)
	}

	if s.opts.Metrics.Enabled() {
		mux.Handle(s.opts.MetricsPath, s.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.opts.Config.RequestTimeout, s.opts.Logger)(handler)
	handler = middleware.LoggingMiddleware(s.opts.Logger)(handler)
	handler = middleware.RecoveryMiddleware(s.opts.Logger)(handler)
	handler = middleware.CORSMiddleware(s.opts.Config.Route)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listener's address once started, or the configured one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Config.ListenAddress
}
