package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	Env       string
	LogLevel  string
	JwtSecret string
	DbURL     string

	// AccessTokenTTL is how long issued bearer tokens stay valid.
	AccessTokenTTL time.Duration

	RateLimitMax    int
	RateLimitWindow time.Duration

	// AuthRateLimitMax caps requests per minute to /auth routes on top of
	// the global limiter. Zero disables it.
	AuthRateLimitMax int

	// TrustProxy takes the client address from True-Client-IP, X-Real-IP
	// or X-Forwarded-For. Only enable it behind a proxy that sets them.
	TrustProxy bool

	// ResetURL is the frontend page that receives ?token=<reset token>.
	ResetURL string

	Mail MailConfig
}

// MailConfig configures SMTP delivery. Mail is disabled when Host is empty.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Secure   bool
}

// Enabled reports whether an SMTP host was configured.
func (m MailConfig) Enabled() bool {
	return m.Host != ""
}

const (
	defaultPort            = "4000"
	defaultAccessTokenTTL  = 24 * time.Hour
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = 5 * time.Minute
	defaultResetURL        = "http://localhost:3000/reset-password"
)

// Load reads the configuration from a .env file or environment variables and returns a Config struct.
// It returns an error if any required variable is missing or malformed.
func Load() (*Config, error) {
	// Try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:      getenv("PORT", defaultPort),
		Env:       getenv("APP_ENV", "development"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		JwtSecret: required("JWT_SECRET"),
		DbURL:     required("DATABASE_URL"),
		ResetURL:  getenv("RESET_URL", defaultResetURL),
		Mail: MailConfig{
			Host:     os.Getenv("MAIL_HOST"),
			User:     os.Getenv("MAIL_USER"),
			Password: os.Getenv("MAIL_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
			FromName: os.Getenv("MAIL_FROM_NAME"),
		},
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.AccessTokenTTL, err = parseDuration("JWT_ACCESS_EXPIRATION", defaultAccessTokenTTL); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = parseDuration("RATE_LIMIT_WINDOW", defaultRateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = parseInt("RATE_LIMIT_MAX", defaultRateLimitMax); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimitMax, err = parseInt("AUTH_RATE_LIMIT_MAX", 0); err != nil {
		return nil, err
	}
	if cfg.Mail.Port, err = parseInt("MAIL_PORT", 0); err != nil {
		return nil, err
	}
	cfg.Mail.Secure = parseBool(os.Getenv("MAIL_SECURE"))
	cfg.TrustProxy = parseBool(os.Getenv("TRUST_PROXY"))

	if cfg.Mail.Enabled() && cfg.Mail.From == "" {
		return nil, fmt.Errorf("MAIL_FROM is required when MAIL_HOST is set")
	}

	return cfg, nil
}

// DatabaseURL loads only DATABASE_URL, for commands that never serve
// requests.
func DatabaseURL() (string, error) {
	_ = godotenv.Load()

	v := os.Getenv("DATABASE_URL")
	if v == "" {
		return "", fmt.Errorf("missing required environment variables: DATABASE_URL")
	}
	return v, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration accepts either a Go duration ("15m") or a whole number of seconds.
func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive, got %q", key, v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, v)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func parseBool(v string) bool {
	switch v {
	case "true", "True", "1":
		return true
	}
	return false
}
