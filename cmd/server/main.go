package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/medhublabs/medhub/pkg/medhub/api"
	"github.com/medhublabs/medhub/pkg/medhub/config"
)

// env is the flat environment surface of the server binary.
type env struct {
	Port            string `env:"PORT" env-default:"8080"`
	Environment     string `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL     string `env:"DATABASE_URL" env-default:""`
	StorageURL      string `env:"STORAGE_URL" env-default:"memory://"`
	SessionCacheURL string `env:"SESSION_CACHE_URL" env-default:"memory://"`
	IdentityBaseURL string `env:"IDENTITY_BASE_URL" env-default:""`
	IdentityAPIKey  string `env:"IDENTITY_API_KEY" env-default:""`
	JWTSecret       string `env:"JWT_SECRET" env-default:""`
	AdminEmails     string `env:"ADMIN_EMAILS" env-default:""`
}

func main() {
	var e env
	if err := cleanenv.ReadEnv(&e); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	cfg, err := config.Load(
		config.WithPort(e.Port),
		config.WithEnvironment(e.Environment),
		config.WithDatabaseURL(e.DatabaseURL),
		config.WithStorageURL(e.StorageURL),
		config.WithSessionCacheURL(e.SessionCacheURL),
		config.WithIdentityService(e.IdentityBaseURL, e.IdentityAPIKey),
		config.WithJWTSecret(e.JWTSecret),
	)
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	if cfg.Environment == "production" && cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required in production")
	}

	if cfg.DatabaseType == "postgres" {
		if err := config.PingPostgres(cfg.DatabaseURL); err != nil {
			log.Fatalf("Database not reachable: %v", err)
		}
	}

	svc, err := cfg.BuildService()
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := cfg.BuildSessionManager(ctx)
	if err != nil {
		log.Fatalf("Failed to build session manager: %v", err)
	}
	if err := sessions.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	defer sessions.Close()

	var admins []string
	for _, email := range strings.Split(e.AdminEmails, ",") {
		if email = strings.TrimSpace(email); email != "" {
			admins = append(admins, email)
		}
	}

	handler := api.NewRouter(svc, sessions, api.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		AdminEmails: admins,
		CORS:        cfg.Environment == "development",
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler,
	}

	go func() {
		log.Printf("MedHub server starting on port %s (env: %s)", cfg.Port, cfg.Environment)
		log.Printf("Default storage backend: %s", cfg.DefaultStorageBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
