// Package api provides the HTTP API server and handlers for the Digital Life Lessons server.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/digitallifelessons/lifelessons-server/internal/auth"
	"github.com/digitallifelessons/lifelessons-server/internal/ratelimit"
	"github.com/digitallifelessons/lifelessons-server/internal/service"
	"github.com/digitallifelessons/lifelessons-server/internal/sse"
	"github.com/digitallifelessons/lifelessons-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Banner is the plain-text body of GET /.
const Banner = "Digital Life Lessons server is running"

// Services holds the business services the handlers call.
type Services struct {
	Users      *service.UserService
	Lessons    *service.LessonService
	Engagement *service.EngagementService
	Moderation *service.ModerationService
	Payments   *service.PaymentService
}

// DocumentCounter reports the size of the search index for health checks.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Options configures the HTTP server.
type Options struct {
	Store      store.Store
	Services   *Services
	Verifier   auth.Verifier
	Search     DocumentCounter
	SSEManager *sse.Manager
	// AllowedOrigins are the CORS origins; empty allows any origin.
	AllowedOrigins []string
	// WriteLimiter throttles mutating requests per client IP. Nil disables it.
	WriteLimiter *ratelimit.KeyedRateLimiter
	Logger       *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	policy       *service.Policy
	verifier     auth.Verifier
	search       DocumentCounter
	sseManager   *sse.Manager
	writeLimiter *ratelimit.KeyedRateLimiter
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:        opts.Store,
		services:     opts.Services,
		policy:       service.NewPolicy(opts.Store),
		verifier:     opts.Verifier,
		search:       opts.Search,
		sseManager:   opts.SSEManager,
		writeLimiter: opts.WriteLimiter,
		router:       chi.NewRouter(),
		logger:       logger,
	}

	s.setupMiddleware(opts.AllowedOrigins)
	s.api = humachi.New(s.router, newHumaConfig("Digital Life Lessons API"))
	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// newHumaConfig returns the huma configuration shared by the server and tests.
func newHumaConfig(title string) huma.Config {
	cfg := huma.DefaultConfig(title, Version)
	// Response bodies stay plain JSON without a $schema link.
	cfg.CreateHooks = nil
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	return cfg
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(allowedOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsHandler(allowedOrigins))
	if s.writeLimiter != nil {
		s.router.Use(RateLimitWrites(s.writeLimiter, s.logger))
	}
	s.router.Use(authMiddleware(s.verifier, s.logger))
}

// registerRoutes registers every route.
func (s *Server) registerRoutes() {
	s.router.Get("/", s.handleBanner)
	s.router.Get("/events", sse.NewHandler(s.sseManager, s.authenticateStream, s.logger).ServeHTTP)

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerLessonRoutes()
	s.registerEngagementRoutes()
	s.registerPaymentRoutes()
	s.registerAdminRoutes()
}

func (s *Server) handleBanner(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

// authenticateStream resolves SSE callers from the Authorization header or,
// for EventSource clients that cannot set headers, the token query parameter.
func (s *Server) authenticateStream(r *http.Request) (string, bool, error) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", false, nil
	}
	if s.verifier == nil {
		return "", false, auth.ErrInvalidToken
	}

	ident, err := s.verifier.Verify(r.Context(), token)
	if err != nil {
		return "", false, err
	}
	return ident.Email, s.policy.IsAdmin(r.Context(), ident.Email), nil
}

// Shutdown stops background work owned by the server.
func (s *Server) Shutdown(_ context.Context) error {
	if s.writeLimiter != nil {
		s.writeLimiter.Stop()
	}
	return nil
}
