package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/db"
	"github.com/transportmanager/apiserver/internal/handlers"
	"github.com/transportmanager/apiserver/internal/logger"
	"github.com/transportmanager/apiserver/internal/metrics"
	"github.com/transportmanager/apiserver/internal/services"
	"github.com/transportmanager/apiserver/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	log        *logger.Logger
}

// New opens the configured store and constructs a Server on top of it.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv, err := NewWithDB(cfg, dbConn, log, prometheus.NewRegistry())
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return srv, nil
}

// NewWithDB constructs a Server over an already opened connection.
func NewWithDB(cfg config.Config, dbConn *sql.DB, log *logger.Logger, reg *prometheus.Registry) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	passwords, err := services.NewPasswordScheme(cfg.Auth.PasswordScheme)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.Enforce && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required when AUTH_ENFORCE is set")
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo, passwords)
	authService := services.NewAuthService(userRepo, passwords, log)

	authHandler := handlers.NewAuthHandler(authService, userService, handlers.AuthOptions{
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: cfg.Auth.TokenTTL,
		Metrics:  metrics.NewAuthMetrics(reg),
		Log:      log,
	})

	var userGuards []func(http.Handler) http.Handler
	if cfg.Auth.Enforce {
		userGuards = append(userGuards,
			authHandler.RequireAuth,
			handlers.RequireAdmin(userService, log),
		)
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogging(log),
		instrument(metrics.NewHTTPMetrics(reg)),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(dbConn))
	router.Get("/ping", handlers.Ping(cfg.PingMessage))
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, log, userGuards...)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		log:        log,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, fmt.Sprintf("listening on %s", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting requests, drains in-flight ones and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
