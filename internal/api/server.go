// Package api provides the HTTP API server and handlers for the PolyPost extension.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/polypost/polypost-server/internal/ratelimit"
	"github.com/polypost/polypost-server/internal/sse"
)

// Options configures the HTTP surface.
type Options struct {
	// CORSAllowedOrigins are origin patterns the extension calls from, e.g. chrome-extension://*.
	CORSAllowedOrigins []string
	// RequestsPerSecond and Burst limit each client IP. Zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	Version           string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	sseManager *sse.Manager
	router     *chi.Mux
	api        huma.API
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	s := &Server{
		services:   services,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		logger:     logger,
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = ratelimit.New(opts.RequestsPerSecond, opts.Burst)
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("PolyPost API", opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Shutdown releases background resources held by the server.
func (s *Server) Shutdown(_ context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return nil
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
}

func (s *Server) registerRoutes() {
	// The event stream is a long-lived response, so it bypasses huma.
	if s.sseManager != nil {
		var replay sse.ReplayFunc
		if s.services != nil && s.services.Bridge != nil {
			replay = s.services.Bridge.Replay
		}
		s.router.Get("/api/v1/events", sse.NewHandler(s.sseManager, replay, s.logger).ServeHTTP)
	}

	s.registerHealthRoutes()
	s.registerLanguageRoutes()
	s.registerPostRoutes()
	s.registerVariantRoutes()
	s.registerFolderRoutes()
	s.registerSettingsRoutes()
	s.registerPromptRoutes()
	s.registerTransformRoutes()
	s.registerPermissionRoutes()
	s.registerRelayRoutes()
}
