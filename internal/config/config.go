package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the API server
type Config struct {
	// Database
	DatabaseURL string

	// Cart storage: "postgres" or "redis"
	CartStore string
	RedisURL  string

	// Auth
	JWT JWTConfig
	// How often expired refresh tokens are purged
	TokenSweepInterval time.Duration

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Rate limiting for login and register, per client IP
	AuthRateLimit RateLimitConfig

	// Telemetry. Traces go to the OTLP endpoint, or to stdout when
	// TracesExporter is "stdout"; metrics need the endpoint.
	OTLPEndpoint   string
	TracesExporter string
	ServiceName    string

	// S3 Storage
	S3 S3Config
}

// JWTConfig holds access and refresh token settings
type JWTConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RateLimitConfig holds a token bucket rate and burst
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
	PublicBaseURL   string // Optional: CDN or bucket URL images are served from
}

// ClientConfig holds configuration for programs talking to the API
type ClientConfig struct {
	APIURL  string
	Timeout time.Duration
}

const minSecretLength = 32

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CartStore:   strings.ToLower(getEnv("CART_STORE", "postgres")),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Issuer:     getEnv("JWT_ISSUER", "vastra-api"),
			Audience:   getEnv("JWT_AUDIENCE", "vastra-storefront"),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		TokenSweepInterval: getDuration("TOKEN_SWEEP_INTERVAL", time.Hour),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:         getEnv("ENV", "development"),
		AuthRateLimit: RateLimitConfig{
			RequestsPerMinute: getInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
			Burst:             getInt("AUTH_RATE_LIMIT_BURST", 5),
		},
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TracesExporter: getEnv("OTEL_TRACES_EXPORTER", "otlp"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "vastra-api"),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "ap-south-1"),
			Bucket:          getEnv("S3_BUCKET", "vastra-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	switch c.CartStore {
	case "postgres":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CART_STORE=redis")
		}
	default:
		return fmt.Errorf("CART_STORE must be postgres or redis, got %q", c.CartStore)
	}
	switch c.TracesExporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("OTEL_TRACES_EXPORTER must be otlp, stdout or none, got %q", c.TracesExporter)
	}
	return nil
}

// IsProduction reports whether the server runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadClient reads the API client configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		APIURL:  strings.TrimRight(getEnv("STOREFRONT_API_URL", "http://localhost:8080/api/v1"), "/"),
		Timeout: getDuration("STOREFRONT_API_TIMEOUT", 15*time.Second),
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("STOREFRONT_API_URL must be an http(s) URL, got %q", cfg.APIURL)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
