// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware and
// routes, and decides:
// - Which URL patterns map to which handler functions
// - Which routes sit behind the session guard or the rate limiter
// - How the server and its background maintenance start and stop
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the store once and hands it over:
//
//	sqlite.DB (+ optional redis.SessionStore)
//	  → PostService, CommentService, LikeService, UserService, StatsService
//	  → SessionManager → AuthService
//	  → handlers → routes
//
// All dependencies are wired in one place (New), the "composition root".
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/config"
	"github.com/sakif/social-network/internal/handler"
	"github.com/sakif/social-network/internal/middleware"
	"github.com/sakif/social-network/internal/repository"
	sqliteRepo "github.com/sakif/social-network/internal/repository/sqlite"
	"github.com/sakif/social-network/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database handle and the session store it was given.
// Both are closed in Start during graceful shutdown, after in-flight
// requests have finished and the maintenance loop has stopped.
type Server struct {
	router      *chi.Mux
	config      config.Config
	logger      *slog.Logger
	db          *sqliteRepo.DB
	closers     []io.Closer
	maintenance *service.Maintenance
	limiter     *middleware.RateLimiter
}

// New wires every layer on top of db.
//
// sessions is where login sessions live. When nil, db serves them too. A
// separate store (Redis) is closed along with db on shutdown if it
// implements io.Closer.
func New(cfg config.Config, db *sqliteRepo.DB, sessions repository.SessionRepository, logger *slog.Logger) (*Server, error) {
	closers := []io.Closer{db}
	if sessions == nil {
		sessions = db
	} else if c, ok := sessions.(io.Closer); ok {
		closers = append(closers, c)
	}

	tokens, err := auth.NewTokenService(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	sessionManager := auth.NewSessionManager(sessions, tokens, cfg.SessionTTL)

	s := &Server{
		router:      chi.NewRouter(),
		config:      cfg,
		logger:      logger,
		db:          db,
		closers:     closers,
		maintenance: service.NewMaintenance(db, sessionManager, logger),
		limiter:     middleware.NewRateLimiter(cfg.LoginRatePerMinute),
	}
	s.setupRoutes(sessionManager)
	return s, nil
}

// Handler exposes the router, mainly so tests can drive it through
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /users/register          public, rate limited
//	POST   /users/login             public, rate limited
//	POST   /users/logout            auth
//	GET    /users/profile           auth
//	GET    /users/status            auth
//	GET    /users/statistics        public
//	GET    /users, /users/{id}      public
//	PUT    /users/{id}              auth (self only)
//	DELETE /users/{id}              auth, 501
//	GET    /posts, /posts/{id}      public
//	POST   /posts                   auth
//	PATCH, PUT, DELETE /posts/{id}  auth (author only)
//	GET    /comments/post/{postId}  public
//	GET    /comments/{id}           public
//	POST   /comments                auth
//	PUT, DELETE /comments/{id}      auth (author only)
//	GET    /likes/post/{postId}     public
//	GET    /likes/user/posts        auth
//	POST, DELETE /likes             auth
//	GET    /healthz                 public
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: only with TrustProxy; it trusts client headers and the rate limiter keys on RemoteAddr
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflights and allows credentialed calls from the frontend
func (s *Server) setupRoutes(sessions *auth.SessionManager) {
	s.router.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// DEPENDENCY CHAIN:
	//   s.db implements every repository interface
	//   services receive the interfaces, handlers receive the services
	authService := service.NewAuthService(s.db, sessions, auth.NewPasswordService(), s.logger)
	userService := service.NewUserService(s.db, s.logger)
	statsService := service.NewStatsService(s.db, s.logger)
	postService := service.NewPostService(s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.db, s.logger)
	likeService := service.NewLikeService(s.db, s.db, s.logger)

	cookies := auth.CookiePolicy{Secure: s.config.IsProduction()}
	users := handler.NewUserHandler(authService, userService, statsService, cookies, s.logger)
	posts := handler.NewPostHandler(postService, s.logger)
	comments := handler.NewCommentHandler(commentService, s.logger)
	likes := handler.NewLikeHandler(likeService, s.logger)
	health := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(sessions, s.db, s.logger)

	s.router.Get("/healthz", health.HandleHealth)

	s.router.Route("/users", func(r chi.Router) {
		r.With(s.limiter.Middleware).Post("/register", users.HandleRegister)
		r.With(s.limiter.Middleware).Post("/login", users.HandleLogin)
		r.Get("/statistics", users.HandleStatistics)
		r.Get("/", users.HandleList)
		r.Get("/{id}", users.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", users.HandleLogout)
			r.Get("/profile", users.HandleProfile)
			r.Get("/status", users.HandleStatus)
			r.Put("/{id}", users.HandleUpdate)
			r.Delete("/{id}", handler.NotImplemented)
		})
	})

	s.router.Route("/posts", func(r chi.Router) {
		r.Get("/", posts.HandleList)
		r.Get("/{id}", posts.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", posts.HandleCreate)
			r.Patch("/{id}", posts.HandleUpdate)
			r.Put("/{id}", posts.HandleUpdate)
			r.Delete("/{id}", posts.HandleDelete)
		})
	})

	s.router.Route("/comments", func(r chi.Router) {
		r.Get("/post/{postId}", comments.HandleListByPost)
		r.Get("/{id}", comments.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", comments.HandleCreate)
			r.Put("/{id}", comments.HandleUpdate)
			r.Delete("/{id}", comments.HandleDelete)
		})
	})

	s.router.Route("/likes", func(r chi.Router) {
		r.Get("/post/{postId}", likes.HandleListByPost)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user/posts", likes.HandleLikedPosts)
			r.Post("/", likes.HandleLike)
			r.Delete("/", likes.HandleUnlike)
		})
	})
}

// Start runs the HTTP server and the maintenance loop until SIGINT or
// SIGTERM, then shuts both down.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop the maintenance loop
// 4. Close the session store and the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Counters are reconciled and stale sessions purged once at startup,
	// then on every tick. The rate limiter's idle buckets are swept on the
	// same schedule.
	maintCtx, stopMaintenance := context.WithCancel(context.Background())
	maintDone := make(chan struct{})
	go func() {
		defer close(maintDone)
		s.maintenance.Run(maintCtx, s.config.MaintenanceInterval, func() {
			if n := s.limiter.Sweep(); n > 0 {
				s.logger.Debug("rate limiter swept", slog.Int("clients", n))
			}
		})
	}()
	defer func() {
		stopMaintenance()
		<-maintDone
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
			slog.String("session_store", string(s.config.SessionStore)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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

// close releases the stores in reverse order of acquisition.
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}
}
