package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustedOrigins  []string      `env:"TRUSTED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// StoreConfig selects the backend behind the user registry and license ledger.
type StoreConfig struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"memory"` // memory, redis, postgres or sqlite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"trailpass.db"`
}

type DatabaseConfig struct {
	Host           string `env:"DB_HOST" envDefault:"localhost"`
	Port           string `env:"DB_PORT" envDefault:"5432"`
	User           string `env:"DB_USER" envDefault:"postgres"`
	Password       Secret `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName         string `env:"DB_NAME" envDefault:"trailpass"`
	SSLMode        string `env:"DB_SSLMODE" envDefault:"disable"`
	ChannelBinding string `env:"DB_CHANNEL_BINDING"` // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host      string `env:"REDIS_HOST" envDefault:"localhost"`
	Port      string `env:"REDIS_PORT" envDefault:"6379"`
	Password  Secret `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"trailpass:"`
}

type AuthConfig struct {
	TokenFormat    string `env:"TOKEN_FORMAT" envDefault:"jwt"` // jwt or paseto
	TokenSecret    Secret `env:"TOKEN_SECRET,required"`
	PasswordHasher string `env:"PASSWORD_HASHER" envDefault:"bcrypt"` // bcrypt or argon2id
}

type RateLimitConfig struct {
	Enabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Backend  string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"` // memory or redis
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Secret is a string that never appears in logs or formatted output.
type Secret string

func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Reveal returns the raw value.
func (s Secret) Reveal() string {
	return string(s)
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory if one exists.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case "memory", "redis", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of memory, redis, postgres, sqlite", c.Store.Driver))
	}

	secretLen := len(c.Auth.TokenSecret.Reveal())
	switch c.Auth.TokenFormat {
	case "jwt":
		if secretLen < 32 {
			errs = append(errs, fmt.Errorf("TOKEN_SECRET must be at least 32 bytes, got %d", secretLen))
		}
	case "paseto":
		// PASETO v4.local needs exactly 32 bytes
		if secretLen != 32 {
			errs = append(errs, fmt.Errorf("TOKEN_SECRET must be exactly 32 bytes for paseto, got %d", secretLen))
		}
	default:
		errs = append(errs, fmt.Errorf("TOKEN_FORMAT %q is not one of jwt, paseto", c.Auth.TokenFormat))
	}

	switch c.Auth.PasswordHasher {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER %q is not one of bcrypt, argon2id", c.Auth.PasswordHasher))
	}

	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory", "redis":
		default:
			errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND %q is not one of memory, redis", c.RateLimit.Backend))
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
		}
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.Store.Driver == "redis" || (c.RateLimit.Enabled && c.RateLimit.Backend == "redis")
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password.Reveal(), c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}
