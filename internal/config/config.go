// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database and object storage endpoints,
// session auth, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Application environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Session policies decide which token identities the session guard accepts.
const (
	// SessionAdminOnly accepts only tokens issued to the configured admin.
	SessionAdminOnly = "admin-only"
	// SessionRejectAdmin accepts any valid token except the admin's.
	SessionRejectAdmin = "reject-admin"
)

// defaultJWTSecret is only acceptable outside production.
const defaultJWTSecret = "dev-secret-change-me"

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "wrapped-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// S3Config points at an S3-compatible bucket.
type S3Config struct {
	Bucket          string // S3_BUCKET
	Region          string // S3_REGION
	AccessKeyID     string // S3_ACCESS_KEY_ID
	SecretAccessKey string // S3_SECRET_ACCESS_KEY
	Endpoint        string // S3_ENDPOINT, host[:port]; empty means AWS
	UseSSL          bool   // S3_USE_SSL
}

// AuthConfig holds admin credentials and session token settings.
type AuthConfig struct {
	JWTSecret     string        // JWT_SECRET
	JWTExpiration time.Duration // JWT_EXPIRATION
	AdminUsername string        // ADMIN_USERNAME
	AdminPassword string        // ADMIN_PASSWORD
	SessionPolicy string        // SESSION_POLICY: admin-only|reject-admin
	CookieDomain  string        // COOKIE_DOMAIN, empty means host-only
}

// Config holds all configuration values for the application.
type Config struct {
	// Environment
	Env string // development|production|test

	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	ShutdownTimeout   time.Duration // drain bound on exit
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // JSON body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route (development only)

	// Storage
	DatabaseURL string // postgres:// URI or SQLite file path
	S3          S3Config

	// Auth
	Auth AuthConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// IsDevelopment reports whether the service runs in the development env.
func (c Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// IsProduction reports whether the service runs in the production env.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Env: strings.ToLower(getenv("APP_ENV", getenv("NODE_ENV", EnvDevelopment))),

		// Server
		Port:              getenv("PORT", "3001"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:   getdur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", true),

		// Storage
		DatabaseURL: getenv("DATABASE_URL", "wrapped.db"),
		S3: S3Config{
			Bucket:          getenv("S3_BUCKET", ""),
			Region:          getenv("S3_REGION", "us-east-1"),
			AccessKeyID:     getenv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getenv("S3_SECRET_ACCESS_KEY", ""),
			Endpoint:        getenv("S3_ENDPOINT", ""),
			UseSSL:          getbool("S3_USE_SSL", true),
		},

		// Auth
		Auth: AuthConfig{
			JWTSecret:     getenv("JWT_SECRET", defaultJWTSecret),
			JWTExpiration: getdur("JWT_EXPIRATION", 24*time.Hour),
			AdminUsername: getenv("ADMIN_USERNAME", ""),
			AdminPassword: getenv("ADMIN_PASSWORD", ""),
			SessionPolicy: strings.ToLower(getenv("SESSION_POLICY", SessionAdminOnly)),
			CookieDomain:  getenv("COOKIE_DOMAIN", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS",
				"http://localhost:5173,https://yourwrapped.com,https://www.yourwrapped.com")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "wrapped-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Auth.SessionPolicy == "legacy-reject-admin" {
		cfg.Auth.SessionPolicy = SessionRejectAdmin
	}
	cfg.S3.Endpoint = strings.TrimPrefix(strings.TrimPrefix(cfg.S3.Endpoint, "https://"), "http://")

	// --- validation ---
	switch cfg.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return cfg, errors.New("APP_ENV must be one of: development, production, test")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if p, err := strconv.Atoi(strings.TrimSpace(cfg.Port)); err != nil || p <= 0 || p > 65535 {
		return cfg, errors.New("PORT must be a number in 1..65535")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 || cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES and MAX_BODY_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return cfg, errors.New("DATABASE_URL must not be empty")
	}
	if cfg.Auth.JWTExpiration <= 0 {
		return cfg, errors.New("JWT_EXPIRATION must be > 0")
	}
	switch cfg.Auth.SessionPolicy {
	case SessionAdminOnly, SessionRejectAdmin:
	default:
		return cfg, errors.New("SESSION_POLICY must be one of: admin-only, reject-admin")
	}
	if cfg.IsProduction() {
		if cfg.Auth.JWTSecret == defaultJWTSecret || len(cfg.Auth.JWTSecret) < 16 {
			return cfg, errors.New("JWT_SECRET must be set (>= 16 chars) in production")
		}
		if cfg.Auth.AdminUsername == "" || cfg.Auth.AdminPassword == "" {
			return cfg, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set in production")
		}
		if cfg.S3.Bucket == "" || cfg.S3.AccessKeyID == "" || cfg.S3.SecretAccessKey == "" {
			return cfg, errors.New("S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set in production")
		}
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// Env lookups. An unset or empty variable, or one that does not parse,
// yields the default.

func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	if out, err := parse(strings.TrimSpace(v)); err == nil {
		return out
	}
	return def
}

func getenv(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func getfloat(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func getint(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func getdur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

func getbool(k string, def bool) bool { return lookup(k, def, parseFlag) }

// parseFlag accepts the usual spellings of on and off.
func parseFlag(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}

// splitCSV splits a comma separated list, dropping blank entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
