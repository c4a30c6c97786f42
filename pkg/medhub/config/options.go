package config

import (
	"fmt"
	"net/url"
	"strings"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithJWTSecret sets the signing secret for API session tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithEventLogging toggles the structured-log event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithDatabaseURL configures the repository from a connection string.
// Empty or "memory" selects the in-memory repository; postgres:// and
// postgresql:// URLs select PostgreSQL.
func WithDatabaseURL(databaseURL string) Option {
	return func(c *ServerConfig) error {
		if databaseURL == "" || databaseURL == "memory" {
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
			return nil
		}
		if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
			c.DatabaseType = "postgres"
			c.DatabaseURL = databaseURL
			return nil
		}
		return fmt.Errorf("unsupported database URL: %s (use 'memory' or 'postgresql://...')", databaseURL)
	}
}

// WithStorageURL configures the default storage backend from a URL:
//
//	memory://                      in-memory storage
//	file:///var/lib/medhub/blobs   filesystem storage
//	s3://bucket?region=eu-west-1   S3 storage
func WithStorageURL(storageURL string) Option {
	return func(c *ServerConfig) error {
		if storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
			return WithMemoryStorage("memory")(c)
		}

		switch {
		case strings.HasPrefix(storageURL, "file://"):
			path := strings.TrimPrefix(storageURL, "file://")
			if path == "" {
				return fmt.Errorf("filesystem path cannot be empty in storage URL")
			}
			return WithFilesystemStorage("fs", path, "")(c)

		case strings.HasPrefix(storageURL, "s3://"):
			parsed, err := url.Parse(storageURL)
			if err != nil {
				return fmt.Errorf("invalid S3 storage URL: %w", err)
			}
			if parsed.Host == "" {
				return fmt.Errorf("S3 bucket name cannot be empty in storage URL")
			}
			query := parsed.Query()
			return WithS3Storage("s3", S3Options{
				Bucket:       parsed.Host,
				Region:       query.Get("region"),
				Endpoint:     query.Get("endpoint"),
				UsePathStyle: query.Get("path_style") == "true",
			})(c)
		}

		return fmt.Errorf("unsupported storage URL: %s (use 'memory://', 'file://...' or 's3://...')", storageURL)
	}
}

// WithMemoryStorage adds an in-memory storage backend and makes it the default
func WithMemoryStorage(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "memory"
		}
		c.DefaultStorageBackend = name
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name:   name,
			Type:   "memory",
			Config: map[string]interface{}{},
		})
		return nil
	}
}

// WithFilesystemStorage adds a filesystem storage backend and makes it
// the default. If name is empty, defaults to "fs".
func WithFilesystemStorage(name, baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "fs"
		}
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}

		backend := StorageBackendConfig{
			Name: name,
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}

		c.DefaultStorageBackend = name
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
		return nil
	}
}

// S3Options carries the commonly tuned S3 backend settings.
type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
	PresignDuration int
}

// WithS3Storage adds an S3 storage backend and makes it the default.
// If name is empty, defaults to "s3".
func WithS3Storage(name string, opts S3Options) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		if opts.Bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}

		backend := StorageBackendConfig{
			Name: name,
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": opts.Bucket,
			},
		}
		if opts.Region != "" {
			backend.Config["region"] = opts.Region
		}
		if opts.AccessKeyID != "" {
			backend.Config["access_key_id"] = opts.AccessKeyID
		}
		if opts.SecretAccessKey != "" {
			backend.Config["secret_access_key"] = opts.SecretAccessKey
		}
		if opts.Endpoint != "" {
			backend.Config["endpoint"] = opts.Endpoint
		}
		if opts.UsePathStyle {
			backend.Config["use_path_style"] = true
		}
		if opts.PresignDuration > 0 {
			backend.Config["presign_duration"] = opts.PresignDuration
		}

		c.DefaultStorageBackend = name
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
		return nil
	}
}

// WithDefaultStorage sets the default storage backend name
func WithDefaultStorage(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("default storage backend name cannot be empty")
		}
		c.DefaultStorageBackend = name
		return nil
	}
}

// WithIdentityService configures the REST identity provider. An empty
// base URL keeps the in-memory provider.
func WithIdentityService(baseURL, apiKey string) Option {
	return func(c *ServerConfig) error {
		if baseURL == "" {
			c.IdentityType = "memory"
			return nil
		}
		c.IdentityType = "rest"
		c.IdentityBaseURL = baseURL
		c.IdentityAPIKey = apiKey
		return nil
	}
}

// WithSessionCacheURL configures the session hint cache from a URL:
//
//	memory://                     in-memory cache
//	file:///var/lib/medhub/cache  filesystem cache
//	redis://localhost:6379        redis cache
func WithSessionCacheURL(cacheURL string) Option {
	return func(c *ServerConfig) error {
		if cacheURL == "" || cacheURL == "memory" || cacheURL == "memory://" {
			c.SessionCacheType = "memory"
			return nil
		}

		switch {
		case strings.HasPrefix(cacheURL, "file://"):
			path := strings.TrimPrefix(cacheURL, "file://")
			if path == "" {
				return fmt.Errorf("filesystem path cannot be empty in session cache URL")
			}
			c.SessionCacheType = "fs"
			c.SessionCacheDir = path
			return nil

		case strings.HasPrefix(cacheURL, "redis://"):
			parsed, err := url.Parse(cacheURL)
			if err != nil {
				return fmt.Errorf("invalid redis session cache URL: %w", err)
			}
			if parsed.Host == "" {
				return fmt.Errorf("redis address cannot be empty in session cache URL")
			}
			c.SessionCacheType = "redis"
			c.SessionCacheAddr = parsed.Host
			return nil
		}

		return fmt.Errorf("unsupported session cache URL: %s (use 'memory://', 'file://...' or 'redis://...')", cacheURL)
	}
}

func upsertStorageBackend(backends []StorageBackendConfig, backend StorageBackendConfig) []StorageBackendConfig {
	if backend.Config == nil {
		backend.Config = map[string]interface{}{}
	}
	for i := range backends {
		if backends[i].Name == backend.Name {
			backends[i] = backend
			return backends
		}
	}
	return append(backends, backend)
}
