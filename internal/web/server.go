// Package web exposes the HTTP surface: read endpoints, CSV exports, the
// Spotify authorization callback, and the manual sync trigger. No
// business logic lives here; handlers call into the sync service and the
// repositories and only format their outputs.
package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/blackboxrecordclub/artist-sync/internal/db"
	syncsvc "github.com/blackboxrecordclub/artist-sync/internal/sync"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	SuccessURL   string
	TokenSecret  string
	Database     *db.DB
	Sync         *syncsvc.Service
}

// Server is the HTTP server for the service.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) *Server {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserTopRead,
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopeUserReadEmail,
		),
	)

	handlers := NewHandlers(auth, cfg.Database, cfg.Sync, cfg.SuccessURL, []byte(cfg.TokenSecret))

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	// Spotify connect lifecycle
	s.router.Get("/spotify/auth", s.handlers.SpotifyAuthRedirect)
	s.router.Get("/auth", s.handlers.AuthCallback)
	s.router.Get("/sync", s.handlers.SyncUser)

	// Login issuing tokens for the read endpoints
	s.router.Post("/users", s.handlers.Signup)
	s.router.Put("/users/login", s.handlers.Login)

	// Read endpoints and CSV exports
	s.router.Group(func(r chi.Router) {
		r.Use(s.handlers.RequireAuth)
		r.Get("/users", s.handlers.Users)
		r.Get("/users/artists", s.handlers.UserArtistsCSV)
		r.Get("/users/artists/unheard", s.handlers.UnheardArtistsCSV)
		r.Get("/users/genres", s.handlers.GenresCSV)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("starting server at http://%s", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
