package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL     string        `envconfig:"BACKEND_URL" default:"http://127.0.0.1:8000/api"`
	BackendToken   string        `envconfig:"BACKEND_TOKEN"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`

	// PGDSN enables the conversion audit trail when set.
	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	CatalogTTL time.Duration `envconfig:"CATALOG_TTL" default:"10m"`

	ConsoleLocale     string `envconfig:"CONSOLE_LOCALE" default:"es-AR"`
	ConsoleCommitMode string `envconfig:"CONSOLE_COMMIT_MODE" default:"order"`

	CORSOrigins        []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
}

// LoadConfig reads configuration from environment variables. Outside
// production a .env file in the working directory is loaded first; values
// already present in the environment win.
func LoadConfig() (*Config, error) {
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("backend url must be provided")
	}
	if _, err := language.Parse(c.ConsoleLocale); err != nil {
		return fmt.Errorf("console locale %q: %w", c.ConsoleLocale, err)
	}
	switch strings.ToLower(c.ConsoleCommitMode) {
	case "", "order", "legacy":
	default:
		return fmt.Errorf("console commit mode %q: want order or legacy", c.ConsoleCommitMode)
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

// Locale returns the configured display locale.
func (c *Config) Locale() language.Tag {
	if c == nil {
		return language.MustParse("es-AR")
	}
	tag, err := language.Parse(c.ConsoleLocale)
	if err != nil {
		return language.MustParse("es-AR")
	}
	return tag
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
