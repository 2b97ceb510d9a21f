package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lexicon/services"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port            string
		RequestTimeout  time.Duration `mapstructure:"request_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	}
	Database struct {
		Driver        string // "sqlite" or "postgres"
		DSN           string // "memory", a SQLite file path, or a Postgres connection string
		MaxOpenConns  int           `mapstructure:"max_open_conns"`
		SlowThreshold time.Duration `mapstructure:"slow_threshold"`
	}
	Auth struct {
		TokenSecret string        `mapstructure:"token_secret"`
		TokenTTL    time.Duration `mapstructure:"token_ttl"`
		BcryptCost  int           `mapstructure:"bcrypt_cost"`
	}
	Variant struct {
		Threshold float64
	}
	Log struct {
		Level  string
		Format string // "json" or "text"
	}
	Tracing struct {
		Enabled bool
		Stdout  bool
	}
	Metrics struct {
		Enabled bool
	}
}

// ErrMissingTokenSecret is returned by Validate when no signing secret is configured.
var ErrMissingTokenSecret = errors.New("auth.token_secret must be set")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "memory")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.slow_threshold", 200*time.Millisecond)
	v.SetDefault("server.trusted_proxies", []string{})
	// Keys without a default are invisible to Unmarshal when only set through the environment.
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("variant.threshold", services.DefaultVariantThreshold)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.stdout", false)
	v.SetDefault("metrics.enabled", true)
}

// LoadConfig loads configuration from file and environment variables.
// An explicit configFile wins over the search path. Environment variables use
// the LEXICON_ prefix with dots replaced by underscores (LEXICON_DATABASE_DSN).
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config") // Name of config file (without extension)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("../config") // For running from locations like tests
	}
	v.SetEnvPrefix("LEXICON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Warn("[Config] Configuration file (config.yaml) not found. Using environment variables and defaults.",
				"component", "config",
			)
		} else {
			return nil, fmt.Errorf("error reading configuration file: %w", err)
		}
	} else {
		slog.Info("[Config] Loaded configuration file", "component", "config", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
		slog.Info("[Config] Server port overridden by environment variable SERVER_PORT", "component", "config", "port", port)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Variant.Threshold <= 0 || cfg.Variant.Threshold > 1 {
		slog.Warn("[Config] variant.threshold out of range (0,1], using default",
			"component", "config",
			"configured", cfg.Variant.Threshold,
			"default", services.DefaultVariantThreshold,
		)
		cfg.Variant.Threshold = services.DefaultVariantThreshold
	}
	return &cfg, nil
}

// Validate checks the settings required to serve requests.
func (c *Config) Validate() error {
	if c.Auth.TokenSecret == "" {
		return ErrMissingTokenSecret
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q (expected sqlite or postgres)", c.Database.Driver)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	return nil
}

// LogLevel parses Log.Level, falling back to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
