package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lesotho-health/cost-api/pkg/api/handlers"
	"github.com/lesotho-health/cost-api/pkg/api/middleware"
	"github.com/lesotho-health/cost-api/pkg/config"
	"github.com/lesotho-health/cost-api/pkg/metrics"
)

// Server represents the HTTP API server
type Server struct {
	config  *config.Config
	engine  handlers.Predictor
	metrics *metrics.Metrics
	router  *chi.Mux
	server  *http.Server
}

// New creates a new API server. m may be nil, which disables /metrics.
func New(cfg *config.Config, engine handlers.Predictor, m *metrics.Metrics) *Server {
	s := &Server{
		config:  cfg,
		engine:  engine,
		metrics: m,
		router:  chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger)
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))

	// Credentials cannot be combined with a wildcard origin
	allowCredentials := true
	for _, origin := range s.config.CORSOrigins {
		if origin == "*" {
			allowCredentials = false
		}
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.NotFound(handlers.NotFound)
	s.router.MethodNotAllowed(handlers.MethodNotAllowed)

	s.router.Get("/", handlers.Root)
	s.router.Get("/health", handlers.NewHealthHandler(s.engine).Handle)
	s.router.Get("/model-info", handlers.NewModelInfoHandler(s.engine).Handle)

	s.router.Group(func(r chi.Router) {
		if s.config.RateLimitRPS > 0 {
			var onLimit func()
			if s.metrics != nil {
				onLimit = s.metrics.RateLimited
			}
			limiter := rate.NewLimiter(rate.Limit(s.config.RateLimitRPS), s.config.RateLimitBurst)
			r.Use(middleware.RateLimit(limiter, onLimit))
		}
		r.Post("/predict", handlers.NewPredictHandler(s.engine).Handle)
	})

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
}

// Start serves until SIGINT/SIGTERM and then shuts down gracefully
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.RequestTimeout,
		WriteTimeout:      s.config.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", port).Info("Starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")

	if err := s.Stop(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited")
	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
