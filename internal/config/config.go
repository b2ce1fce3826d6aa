// Package config loads service settings from defaults, an optional config
// file and WALLETAUTH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. WALLETAUTH_HTTP_ADDR
const EnvPrefix = "WALLETAUTH"

// Config represents the complete service configuration
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Session   SessionConfig   `mapstructure:"session"`
	Nonce     NonceConfig     `mapstructure:"nonce"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Events    EventsConfig    `mapstructure:"events"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AuthConfig controls the challenge message and its lifetime
type AuthConfig struct {
	Domain       string        `mapstructure:"domain"`
	Statement    string        `mapstructure:"statement"`
	ChallengeTTL time.Duration `mapstructure:"challenge_ttl"`
}

type SessionConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	KeyFile string        `mapstructure:"key_file"`
	Issuer  string        `mapstructure:"issuer"`
}

type NonceConfig struct {
	Backend       string        `mapstructure:"backend"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type IdentityConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type EventsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// Backend names
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":9000")
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.domain", core.DefaultDomain)
	v.SetDefault("auth.statement", core.DefaultStatement)
	v.SetDefault("auth.challenge_ttl", core.DefaultChallengeTTL)

	v.SetDefault("session.ttl", time.Hour)
	v.SetDefault("session.key_file", "")
	v.SetDefault("session.issuer", "walletauth")

	v.SetDefault("nonce.backend", BackendMemory)
	v.SetDefault("nonce.sweep_interval", 0)

	v.SetDefault("identity.backend", BackendMemory)
	v.SetDefault("identity.dsn", "")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("postgres.url", "")

	v.SetDefault("events.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 60)
	v.SetDefault("ratelimit.burst", 20)
}

// Load reads configuration. An empty path skips the config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.Auth.ChallengeTTL <= 0 {
		errs = append(errs, errors.New("auth.challenge_ttl must be positive"))
	}
	if strings.TrimSpace(c.Auth.Domain) == "" {
		errs = append(errs, errors.New("auth.domain is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Nonce.SweepInterval < 0 {
		errs = append(errs, errors.New("nonce.sweep_interval must not be negative"))
	}

	switch c.Nonce.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis nonce backend"))
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required for the postgres nonce backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown nonce.backend %q", c.Nonce.Backend))
	}

	switch c.Identity.Backend {
	case BackendMemory:
	case BackendSQLite, BackendPostgres:
		if c.IdentityDSN() == "" {
			errs = append(errs, fmt.Errorf("identity.dsn is required for the %s identity backend", c.Identity.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown identity.backend %q", c.Identity.Backend))
	}

	if c.Events.Enabled && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required when events are enabled"))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("ratelimit.requests_per_minute must be positive"))
	}

	return errors.Join(errs...)
}

// IdentityDSN returns the identity database DSN, falling back to postgres.url
// for the postgres backend
func (c *Config) IdentityDSN() string {
	if c.Identity.DSN != "" {
		return c.Identity.DSN
	}
	if c.Identity.Backend == BackendPostgres {
		return c.Postgres.URL
	}
	return ""
}

// MessageTemplate returns the challenge template for this deployment
func (c *Config) MessageTemplate() core.MessageTemplate {
	return core.MessageTemplate{Domain: c.Auth.Domain, Statement: c.Auth.Statement}
}
