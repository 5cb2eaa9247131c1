// Package config loads service configuration from an optional YAML file with
// environment overrides applied on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DevSecret signs tokens when no secret is configured. Never use it in production.
const DevSecret = "dev-insecure-secret"

// Config holds service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Path   string `yaml:"path"`
	Silent bool   `yaml:"silent"`
}

// CatalogConfig points at a rule catalog file. Empty means the embedded default.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// RateLimitConfig bounds requests per client on the auth and check endpoints.
// RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // logrus level name
	Format string `yaml:"format"` // text | json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":2000",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:5173",
			},
		},
		Database:  DatabaseConfig{Path: "data/ai-risk.db"},
		Auth:      AuthConfig{Secret: DevSecret, TokenTTL: 24 * time.Hour},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty and present), fills defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logrus.WithField("path", path).Warn("config file not found, using defaults")
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = def.Database.Path
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = def.Auth.Secret
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = def.Auth.TokenTTL
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}

func applyEnv(cfg *Config) error {
	if v := env("RISK_EVAL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if port := env("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if v := env("RISK_EVAL_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	if v := env("RISK_EVAL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := env("RISK_EVAL_SILENT_DB"); v != "" {
		cfg.Database.Silent = strings.EqualFold(v, "true")
	}
	if v := env("RISK_EVAL_CATALOG"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := env("RISK_EVAL_JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := env("RISK_EVAL_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RISK_EVAL_TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = d
	}
	if v := env("RISK_EVAL_RATE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RISK_EVAL_RATE_RPS: %w", err)
		}
		cfg.RateLimit.RPS = rps
	}
	if v := env("RISK_EVAL_RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RISK_EVAL_RATE_BURST: %w", err)
		}
		cfg.RateLimit.Burst = burst
	}
	if v := env("RISK_EVAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("RISK_EVAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// Validate reports configuration that cannot be served.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("rate_limit.burst must be at least 1 when rps is set"))
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Apply configures the package-level logrus logger.
func (l LoggingConfig) Apply() error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logrus.SetLevel(level)
	if l.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
