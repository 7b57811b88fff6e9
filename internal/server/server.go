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

	"github.com/chatrelay/apiserver/config"
	"github.com/chatrelay/apiserver/internal/db"
	"github.com/chatrelay/apiserver/internal/handlers"
	"github.com/chatrelay/apiserver/internal/logging"
	"github.com/chatrelay/apiserver/internal/notify"
	"github.com/chatrelay/apiserver/internal/services"
	"github.com/chatrelay/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	notifier   notify.Notifier
}

// New constructs a Server with its full dependency graph wired.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*Server, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.FromConfig(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)

	userService := services.NewUserService(userRepo)
	messageService := services.NewMessageService(messageRepo, notifier, log)

	authenticator := handlers.NewAuthenticator(userService, cfg.JWT.Secret, log)
	userHandler := handlers.NewUserHandler(userService, messageService, cfg.JWT.Secret, cfg.JWT.TokenLifetimeDays)
	messageHandler := handlers.NewMessageHandler(messageService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)
		r.Route("/auths/users", func(r chi.Router) {
			handlers.UserRouter(r, userHandler)
		})
		r.Route("/chats/messages", func(r chi.Router) {
			handlers.MessageRouter(r, messageHandler)
		})
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
		notifier:   notifier,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.notifier != nil {
		_ = s.notifier.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
