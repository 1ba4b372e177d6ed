package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	HashArgon2id = "argon2id"
	HashBcrypt   = "bcrypt"

	defaultSessionSecret = "dev-session-secret"
)

type Config struct {
	Port string

	// Env is "dev" (default) or "prod". When "prod", SESSION_SECRET must be set and not the default.
	Env string

	// LogFormat is "text" (default) or "json". LogLevel is debug, info (default), warn or error.
	LogFormat string
	LogLevel  string

	SessionSecret     string
	SessionCookieName string
	// SessionTTLHours is the cookie and token lifetime in hours (default 24).
	SessionTTLHours int
	// CookieSecure marks the session cookie Secure. Enable when serving HTTPS.
	CookieSecure bool

	// Storage selects the backing store: "memory" (default) or "postgres".
	Storage string

	DBHost    string
	DBPort    string
	DBName    string
	DBUser    string
	DBPass    string
	DBSSLMode string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// RedisAddr enables the shared session revocation list. Empty keeps it in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AdminUsername and AdminPassword seed an Admin account at startup when both are set.
	AdminUsername string
	AdminPassword string

	// PasswordHash is "argon2id" (default) or "bcrypt".
	PasswordHash string

	AuthRatePerMinute int
	AuthRateBurst     int
	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites those headers.
	TrustProxyHeaders bool

	MaxBodyBytes int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated). Empty means same-origin only.
	CORSAllowedOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("config: could not read .env file", "error", err)
	}

	return Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "dev"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		SessionSecret:     getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "todo_session"),
		SessionTTLHours:   getEnvInt("SESSION_TTL_HOURS", 24),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),

		Storage: strings.ToLower(getEnv("STORAGE", StorageMemory)),

		DBHost:    getEnv("DB_HOST", "localhost"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBName:    getEnv("DB_NAME", "tododb"),
		DBUser:    getEnv("DB_USER", "todouser"),
		DBPass:    getEnv("DB_PASS", "todopass"),
		DBSSLMode: getEnv("DB_SSLMODE", "disable"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		PasswordHash: strings.ToLower(getEnv("PASSWORD_HASH", HashArgon2id)),

		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 5),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		MaxBodyBytes: getEnvInt("MAX_BODY_BYTES", 1<<20),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// Validate reports configuration that would make the server insecure or unable to start.
func (c Config) Validate() error {
	if c.Env == "prod" && (c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret) {
		return errors.New("SESSION_SECRET must be set in prod")
	}
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DBName == "" {
			return errors.New("DB_NAME is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (want memory or postgres)", c.Storage)
	}
	if c.PasswordHash != HashArgon2id && c.PasswordHash != HashBcrypt {
		return fmt.Errorf("unknown PASSWORD_HASH %q (want argon2id or bcrypt)", c.PasswordHash)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// SessionTTL returns the session lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// TLSEnabled reports whether both TLS files are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// DatabaseURL returns a postgres URL suitable for migrations. Credentials and
// the database name are escaped, so reserved characters in DB_PASS are safe.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
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

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
