package vaultstub

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the HTTP handler serving the stub vault API.
//
// Routes:
//
//	POST /api/login → LoginHandler.Login
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. withRequestLogging(logger)          — logs each request
func NewRouter(loginHandler *LoginHandler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	// Log each request and its metadata
	r.Use(withRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", loginHandler.Login)
	})

	return r
}

// withRequestLogging logs method, path, status, and duration of every
// request through the provided zap logger.
func withRequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
