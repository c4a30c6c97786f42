// Package api exposes the medhub content library and session manager
// over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/medhublabs/medhub/pkg/medhub"
	"github.com/medhublabs/medhub/pkg/session"
)

// RouterConfig configures the top-level API router.
type RouterConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string
	CORS        bool // permissive CORS for development
}

// NewRouter assembles the full API surface: /auth, /contents and
// /assets under /api/v1, plus a health endpoint.
func NewRouter(service medhub.Service, sessions *session.Manager, cfg RouterConfig) http.Handler {
	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)

	authHandler := NewAuthHandler(sessions, AuthConfig{
		TokenAuth:   tokenAuth,
		TokenTTL:    cfg.TokenTTL,
		AdminEmails: cfg.AdminEmails,
	})
	contentHandler := NewContentHandler(service, tokenAuth)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(slog.Default()))
	r.Use(RecoveryMiddleware)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.CORS {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/contents", contentHandler.Routes())
		r.Mount("/assets", contentHandler.AssetRoutes())
	})

	return r
}
