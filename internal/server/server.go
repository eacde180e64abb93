// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle. It is the composition root: every dependency is created
// in New and injected downward.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/arefin/snippetbin/internal/auth"
	"github.com/arefin/snippetbin/internal/handler"
	"github.com/arefin/snippetbin/internal/middleware"
	sqliteRepo "github.com/arefin/snippetbin/internal/repository/sqlite"
	"github.com/arefin/snippetbin/internal/service"
)

// Config holds server configuration.
//
// AuthEnabled selects the deployment variant: true enforces owner-based
// permissions on snippet mutations, false leaves all operations open. The
// auth endpoints are registered either way; only enforcement changes.
type Config struct {
	Port        int
	DBPath      string
	JWTSecret   string
	AuthEnabled bool

	// Optional bootstrap account, created at startup when the username
	// doesn't exist yet. Lets a fresh auth-enabled deployment log in.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// Server bundles the router with the resources it owns. The database is
// closed during graceful shutdown.
type Server struct {
	router   *chi.Mux
	config   Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	snippets *service.SnippetService
	users    *service.UserService
}

// New assembles the full dependency chain: database, token or password
// services, business services, handlers, and routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, err
	}
	passwords := auth.NewPasswordService()

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		snippets: service.NewSnippetService(db, cfg.AuthEnabled, logger),
		users:    service.NewUserService(db, tokens, passwords, logger),
	}

	if err := s.bootstrapAdmin(); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping admin user: %w", err)
	}

	s.setupRoutes(tokens)
	return s, nil
}

// bootstrapAdmin creates the configured admin account if it doesn't exist.
func (s *Server) bootstrapAdmin() error {
	if s.config.AdminUsername == "" || s.config.AdminPassword == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.db.GetUserByUsername(ctx, s.config.AdminUsername); err == nil {
		return nil // already exists
	}

	_, err := s.users.Create(ctx,
		s.config.AdminUsername,
		s.config.AdminEmail,
		s.config.AdminPassword,
		true,
	)
	return err
}

// setupRoutes configures middleware and the route table.
//
// Route surface:
//
//	GET    /                  API root (collection links)
//	GET    /snippets/         list snippets
//	POST   /snippets/         create snippet
//	GET    /snippets/{id}/    retrieve snippet
//	PUT    /snippets/{id}/    update snippet (owner only when auth enabled)
//	DELETE /snippets/{id}/    delete snippet (owner only when auth enabled)
//	GET    /users/            list users
//	GET    /users/{id}/       retrieve user
//	POST   /auth/login        log in, issue token
//	POST   /auth/logout       clear token cookie
//	GET    /auth/me           current user (requires auth)
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	snippetHandler := handler.NewSnippetHandler(s.snippets, s.logger)
	userHandler := handler.NewUserHandler(s.users, s.logger)
	authHandler := handler.NewAuthHandler(s.users, s.logger)

	s.router.Get("/", handler.HandleRoot)

	// OptionalAuth on every snippet route: reads stay public, and the service
	// decides whether an anonymous mutation is allowed. Responding 403 (not
	// 401) to anonymous mutations is part of the API contract, so the
	// blocking RequireAuth middleware is deliberately not used here.
	s.router.Route("/snippets", func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/", snippetHandler.HandleList)
		r.Post("/", snippetHandler.HandleCreate)
		r.Get("/{id}/", snippetHandler.HandleGetByID)
		r.Put("/{id}/", snippetHandler.HandleUpdate)
		r.Delete("/{id}/", snippetHandler.HandleDelete)
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Get("/{id}/", userHandler.HandleGetByID)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("authEnabled", s.config.AuthEnabled),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
