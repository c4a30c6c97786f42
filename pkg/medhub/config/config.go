// Package config builds medhub services and session managers from
// declarative server configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medhublabs/medhub/pkg/medhub"
	memoryrepo "github.com/medhublabs/medhub/pkg/medhub/repo/memory"
	repopg "github.com/medhublabs/medhub/pkg/medhub/repo/postgres"
	fsstorage "github.com/medhublabs/medhub/pkg/medhub/storage/fs"
	memorystorage "github.com/medhublabs/medhub/pkg/medhub/storage/memory"
	s3storage "github.com/medhublabs/medhub/pkg/medhub/storage/s3"
	"github.com/medhublabs/medhub/pkg/session"
	cachefs "github.com/medhublabs/medhub/pkg/session/cache/fs"
	cachememory "github.com/medhublabs/medhub/pkg/session/cache/memory"
	cacheredis "github.com/medhublabs/medhub/pkg/session/cache/redis"
	identitymemory "github.com/medhublabs/medhub/pkg/session/identity/memory"
	identityrest "github.com/medhublabs/medhub/pkg/session/identity/rest"
	profilememory "github.com/medhublabs/medhub/pkg/session/profile/memory"
	profilepg "github.com/medhublabs/medhub/pkg/session/profile/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on
// top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                  "8080",
		Environment:           "development",
		DatabaseType:          "memory",
		DefaultStorageBackend: "memory",
		StorageBackends: []StorageBackendConfig{
			{
				Name:   "memory",
				Type:   "memory",
				Config: map[string]interface{}{},
			},
		},
		IdentityType:       "memory",
		SessionCacheType:   "memory",
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the medhub service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Storage configuration
	DefaultStorageBackend string
	StorageBackends       []StorageBackendConfig

	// Identity provider configuration
	IdentityType    string // "memory", "rest"
	IdentityBaseURL string
	IdentityAPIKey  string

	// Session cache configuration
	SessionCacheType string // "memory", "fs", "redis"
	SessionCacheDir  string
	SessionCacheAddr string

	// API authentication
	JWTSecret string

	// Server options
	EnableEventLogging bool
}

// StorageBackendConfig represents configuration for a storage backend
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.IdentityType != "memory" && c.IdentityType != "rest" {
		return errors.New("identity_type must be 'memory' or 'rest'")
	}

	if c.IdentityType == "rest" && c.IdentityBaseURL == "" {
		return errors.New("identity_base_url is required when using the rest identity provider")
	}

	switch c.SessionCacheType {
	case "memory":
	case "fs":
		if c.SessionCacheDir == "" {
			return errors.New("session_cache_dir is required for the fs session cache")
		}
	case "redis":
		if c.SessionCacheAddr == "" {
			return errors.New("session_cache_addr is required for the redis session cache")
		}
	default:
		return errors.New("session_cache_type must be 'memory', 'fs' or 'redis'")
	}

	// Ensure default storage backend exists in configured backends
	found := false
	for _, backend := range c.StorageBackends {
		if backend.Name == c.DefaultStorageBackend {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default storage backend '%s' not found in configured backends", c.DefaultStorageBackend)
	}

	return nil
}

// BuildService creates a medhub.Service instance from the server configuration
func (c *ServerConfig) BuildService() (medhub.Service, error) {
	var options []medhub.Option

	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, medhub.WithRepository(repo))

	for _, backendConfig := range c.StorageBackends {
		store, err := c.buildStorageBackend(backendConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to build storage backend %s: %w", backendConfig.Name, err)
		}
		options = append(options, medhub.WithBlobStore(backendConfig.Name, store))
	}
	options = append(options, medhub.WithDefaultBackend(c.DefaultStorageBackend))

	if c.EnableEventLogging {
		options = append(options, medhub.WithEventSink(medhub.NewLoggingEventSink(slog.Default())))
	} else {
		options = append(options, medhub.WithEventSink(medhub.NewNoopEventSink()))
	}

	return medhub.New(options...)
}

// BuildSessionManager creates a session.Manager from the server
// configuration. The manager is returned uninitialized; callers run
// Initialize once collaborating services are reachable.
func (c *ServerConfig) BuildSessionManager(ctx context.Context) (*session.Manager, error) {
	provider, err := c.buildIdentityProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to build identity provider: %w", err)
	}

	profiles, err := c.buildProfileStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile store: %w", err)
	}

	cache, err := c.buildSessionCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build session cache: %w", err)
	}

	return session.NewManager(
		session.WithProvider(provider),
		session.WithProfileStore(profiles),
		session.WithCache(cache),
	)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (medhub.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), nil
	case "postgres":
		pool, err := c.pgxPool()
		if err != nil {
			return nil, err
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildIdentityProvider() (session.IdentityProvider, error) {
	switch c.IdentityType {
	case "memory":
		return identitymemory.New(), nil
	case "rest":
		return identityrest.New(identityrest.Config{
			BaseURL: c.IdentityBaseURL,
			APIKey:  c.IdentityAPIKey,
		})
	default:
		return nil, fmt.Errorf("unsupported identity type: %s", c.IdentityType)
	}
}

func (c *ServerConfig) buildProfileStore() (session.ProfileStore, error) {
	// Profiles live next to the content data: postgres when the
	// repository is postgres, memory otherwise.
	if c.DatabaseType == "postgres" {
		pool, err := c.pgxPool()
		if err != nil {
			return nil, err
		}
		return profilepg.NewWithPool(pool), nil
	}
	return profilememory.New(), nil
}

func (c *ServerConfig) buildSessionCache(ctx context.Context) (session.Cache, error) {
	switch c.SessionCacheType {
	case "memory":
		return cachememory.New(), nil
	case "fs":
		return cachefs.New(cachefs.Config{BaseDir: c.SessionCacheDir})
	case "redis":
		return cacheredis.New(ctx, cacheredis.Config{Addr: c.SessionCacheAddr})
	default:
		return nil, fmt.Errorf("unsupported session cache type: %s", c.SessionCacheType)
	}
}

func (c *ServerConfig) pgxPool() (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend(config StorageBackendConfig) (medhub.BlobStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		fsConfig := fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/storage"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		}
		return fsstorage.New(fsConfig)

	case "s3":
		s3Config := s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		}
		return s3storage.New(s3Config)

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		if i, ok := value.(int); ok {
			return i
		}
		if str, ok := value.(string); ok {
			if i, err := strconv.Atoi(str); err == nil {
				return i
			}
		}
		if f, ok := value.(float64); ok {
			return int(f)
		}
	}
	return defaultValue
}
