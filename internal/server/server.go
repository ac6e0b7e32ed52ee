package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campuslink/campuslink-be/internal/auth"
	"github.com/campuslink/campuslink-be/internal/config"
	"github.com/campuslink/campuslink-be/internal/http/handlers"
	"github.com/campuslink/campuslink-be/internal/middleware"
	"github.com/campuslink/campuslink-be/internal/storage"
)

// loginRate bounds password-guessing attempts per client address.
const (
	loginRatePerSec = 1
	loginBurst      = 5
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(time.Now()).Register(mux)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	limiter := middleware.NewRateLimiter(loginRatePerSec, loginBurst)
	users := handlers.NewUserHandler(store, tokens, limiter, logger)
	users.Register(mux)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
