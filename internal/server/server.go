package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/teamflow/boardchat/internal/api/v1"
	"github.com/teamflow/boardchat/internal/api/ws"
	"github.com/teamflow/boardchat/internal/auth"
	"github.com/teamflow/boardchat/internal/chat"
	"github.com/teamflow/boardchat/internal/config"
	"github.com/teamflow/boardchat/internal/server/middleware"
	"github.com/teamflow/boardchat/internal/store/postgres"
)

// Server is the HTTP server that wires the board chat hub and its routes.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	registry   *chat.Registry
	hub        *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired: the WebSocket board channel
// entry point, the presence snapshot API, and a health check.
func New(ctx context.Context, cfg *config.Config, store *postgres.Store) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	registry := chat.NewRegistry()
	chatRouter := chat.NewRouter(registry)
	verifier := auth.NewVerifier(cfg.JWT.Secret, store.Users())
	authorizer := auth.NewAuthorizer(store.Boards())

	hub := ws.NewHub(verifier, authorizer, registry, chatRouter, cfg.WS.SendQueueSize, cfg.WS.WriteTimeout)

	s := &Server{
		router:   router,
		registry: registry,
		hub:      hub,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     router,
			ReadTimeout: cfg.Server.ReadTimeout,
			// WriteTimeout is deliberately unset: it would sever long-lived
			// WebSocket connections. Frame writes are bounded per endpoint.
		},
	}

	// REST routes on /api/v1.
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, 10, 20))

		apiConfig := huma.DefaultConfig("Board Chat API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		v1.RegisterPresenceRoutes(api, registry)
	})

	// WebSocket routes. Token verification happens inside the handler since
	// the handshake carries the token as a query parameter.
	router.Route("/ws", func(r chi.Router) {
		r.Get("/boards/{boardID}", hub.ServeBoard)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
