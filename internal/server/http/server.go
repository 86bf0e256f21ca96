// Package httpserver provides the HTTP REST API server for the article extraction service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/article-extraction-service/internal/database"
	"github.com/helixir/article-extraction-service/internal/eutils"
	"github.com/helixir/article-extraction-service/internal/events"
	"github.com/helixir/article-extraction-service/internal/extract"
	"github.com/helixir/article-extraction-service/internal/observability"
	"github.com/helixir/article-extraction-service/internal/repository"
	"github.com/helixir/article-extraction-service/internal/xmltree"
)

// Fetcher retrieves article XML from an external source. *eutils.Client
// satisfies this; tests substitute a stub.
type Fetcher interface {
	SearchAndFetch(ctx context.Context, db string, params eutils.SearchParams) ([]*xmltree.Node, error)
}

// HealthReporter reports backing-store health. *database.DB satisfies this.
type HealthReporter interface {
	Health(ctx context.Context) database.HealthStatus
}

// Server is the HTTP REST API server.
type Server struct {
	router       chi.Router
	httpServer   *http.Server
	extractor    *extract.Extractor
	fetcher      Fetcher
	articleRepo  repository.ArticleRepository
	publisher    events.Publisher
	db           HealthReporter
	metrics      *observability.Metrics
	logger       zerolog.Logger
	validate     *validator.Validate
	maxBodyBytes int64
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	extractor *extract.Extractor,
	fetcher Fetcher,
	articleRepo repository.ArticleRepository,
	publisher events.Publisher,
	db HealthReporter,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		extractor:    extractor,
		fetcher:      fetcher,
		articleRepo:  articleRepo,
		publisher:    publisher,
		db:           db,
		metrics:      metrics,
		logger:       observability.WithComponent(logger, "http-server"),
		validate:     validator.New(),
		maxBodyBytes: cfg.MaxBodyBytes,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Router returns the underlying chi router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogMiddleware)
	r.Use(s.metricsMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract", s.extractHandler)
		r.Post("/fetch", s.fetchHandler)
		r.Get("/articles", s.listArticlesHandler)
		r.Get("/articles/{articleID}", s.getArticleHandler)
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	health := s.db.Health(r.Context())
	if health.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": health.Status})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{
		"status":   "unhealthy",
		"database": health.Status,
		"error":    health.Error,
	})
}

// readinessHandler returns readiness status.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	health := s.db.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}
