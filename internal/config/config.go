package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultOrigins are always allowed by CORS in addition to FRONTEND_URL.
var DefaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:3000",
	"https://elevare-frontend.vercel.app",
}

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port         int
	LogLevel     string
	Env          string
	MaxBodyBytes int64
	TrustProxy   bool

	// Persistence
	StoreBackend        string // mongo | memory
	MongoURI            string
	MongoDatabase       string
	MongoConnectTimeout time.Duration
	MongoPingInterval   time.Duration

	// Auth
	JWTSecret         string
	JWTExpire         time.Duration
	PrincipalCacheTTL time.Duration
	ExposeResetToken  bool

	// Rate limiting
	RateLimitWindow time.Duration
	RateLimitMax    int
	RedisURL        string

	// CORS
	AllowedOrigins []string

	// Mail
	SendGridAPIKey  string
	MailFrom        string
	MailFromName    string
	SendGridSandbox bool
	PublicAppURL    string

	// Outbound calls
	HTTPTimeout    time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string
}

// LoadDotEnv reads a .env file into the environment if present. Variables
// already set win.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	env := getEnv("APP_ENV", "development")

	return &Config{
		Port:         getEnvInt("PORT", 10000),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Env:          env,
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		TrustProxy:   getEnvBool("TRUST_PROXY", env == "production"),

		StoreBackend:        getEnv("STORE_BACKEND", "mongo"),
		MongoURI:            getEnv("MONGODB_URI", ""),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "elevare"),
		MongoConnectTimeout: getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		MongoPingInterval:   getEnvDuration("MONGODB_PING_INTERVAL", 10*time.Second),

		JWTSecret:         getEnv("JWT_SECRET", "dev_secret_change_in_production"),
		JWTExpire:         getEnvDuration("JWT_EXPIRE", 30*24*time.Hour),
		PrincipalCacheTTL: getEnvDuration("PRINCIPAL_CACHE_TTL", 30*time.Second),
		ExposeResetToken:  getEnvBool("EXPOSE_RESET_TOKEN", env == "development"),

		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RedisURL:        getEnv("REDIS_URL", ""),

		AllowedOrigins: append(append([]string{}, DefaultOrigins...), splitList(os.Getenv("FRONTEND_URL"))...),

		SendGridAPIKey:  getEnv("SENDGRID_API_KEY", ""),
		MailFrom:        getEnv("MAIL_FROM", "noreply@elevare.app"),
		MailFromName:    getEnv("MAIL_FROM_NAME", "Elevare"),
		SendGridSandbox: getEnvBool("SENDGRID_SANDBOX", false),
		PublicAppURL:    getEnv("PUBLIC_APP_URL", "http://localhost:5173"),

		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// ParseDuration extends time.ParseDuration with a whole-day suffix ("30d").
func ParseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
