// Package api implements the HTTP API surface.
//
// Routes are registered through huma for typed request/response handling
// and OpenAPI generation. The SSE stream is mounted directly on chi since
// huma does not support streaming responses.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/reelvault/reelvault-server/internal/sse"
	"github.com/reelvault/reelvault-server/internal/store"
)

// Server is the HTTP server with all routes configured.
type Server struct {
	store      *store.Store
	services   *Services
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, sseManager *sse.Manager, logger *slog.Logger) *Server {
	s := &Server{
		store:      store,
		services:   services,
		sseManager: sseManager,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("ReelVault API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerClipRoutes()
	s.registerCollectionRoutes()
	s.registerTagRoutes()
	s.registerSearchRoutes()
	s.registerTitleRoutes()
	s.registerSyncRoutes()

	// SSE endpoint registered directly on chi because huma doesn't support
	// streaming responses.
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, s.authenticateStream, logger)
		s.router.Get("/api/v1/sync/stream", s.sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Browser clients run on a different origin during development.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// authenticateStream validates a token for the SSE endpoint. EventSource
// cannot set request headers, so the token may also arrive as a query
// parameter.
func (s *Server) authenticateStream(r *http.Request) (string, error) {
	token := ""
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	if token == "" {
		token = r.URL.Query().Get("access_token")
	}
	if token == "" {
		return "", huma.Error401Unauthorized("Missing access token")
	}

	claims, err := s.services.Auth.VerifyAccessToken(token)
	if err != nil {
		return "", huma.Error401Unauthorized("Invalid or expired token")
	}

	return claims.UserID, nil
}
