// Package config loads service configuration from defaults, an optional
// config.yaml, a .env file and STRAND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: STRAND_SERVER_PORT -> server.port.
const EnvPrefix = "STRAND"

// Legacy key variables honored when tencent.key is unset.
var legacyKeyVars = []string{"NEXT_PUBLIC_TENCENT_MAP_KEY", "TENCENT_MAP_KEY"}

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Tencent    TencentConfig    `mapstructure:"tencent"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// IsDevelopment reports whether the service runs in a developer setup.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "" || a.Env == "development"
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RequireTLS   bool          `mapstructure:"require_tls"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type NavigationConfig struct {
	Steps            int           `mapstructure:"steps"`
	Jitter           float64       `mapstructure:"jitter"`
	DeflectionMode   string        `mapstructure:"deflection_mode"`
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
}

type TencentConfig struct {
	Key           string        `mapstructure:"key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	Size       int           `mapstructure:"size"`
	TTL        time.Duration `mapstructure:"ttl"`
	StaleTTL   time.Duration `mapstructure:"stale_ttl"`
	ValkeyAddr string        `mapstructure:"valkey_addr"`
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheValkey = "valkey"
)

// Load reads configuration. A missing .env or config.yaml is not an error.
// Extra config search paths may be passed for tests and tools.
func Load(paths ...string) (*Config, error) {
	// Variables already in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Tencent.Key == "" {
		for _, name := range legacyKeyVars {
			if key := os.Getenv(name); key != "" {
				cfg.Tencent.Key = key
				break
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.require_tls", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")

	v.SetDefault("navigation.steps", 25)
	v.SetDefault("navigation.jitter", 15.0)
	v.SetDefault("navigation.deflection_mode", "sequential")
	v.SetDefault("navigation.simulated_latency", time.Duration(0))

	v.SetDefault("tencent.key", "")
	v.SetDefault("tencent.base_url", "https://apis.map.qq.com")
	v.SetDefault("tencent.timeout", 10*time.Second)
	v.SetDefault("tencent.rate_per_second", 5.0)
	v.SetDefault("tencent.burst", 5)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.stale_ttl", 15*time.Minute)
	v.SetDefault("cache.valkey_addr", "localhost:6379")
}

// Validate checks that configuration fields are present and sane.
// A missing Tencent key is allowed: the proxy then answers 500.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Navigation.Steps < 2 {
		errs = append(errs, fmt.Sprintf("navigation.steps must be at least 2, got %d", c.Navigation.Steps))
	}
	if c.Navigation.Jitter < 0 {
		errs = append(errs, "navigation.jitter must not be negative")
	}
	switch c.Navigation.DeflectionMode {
	case "sequential", "fixed_point":
	default:
		errs = append(errs, fmt.Sprintf("navigation.deflection_mode must be sequential or fixed_point, got %q", c.Navigation.DeflectionMode))
	}
	if c.Navigation.SimulatedLatency < 0 {
		errs = append(errs, "navigation.simulated_latency must not be negative")
	}
	if c.Tencent.BaseURL == "" {
		errs = append(errs, "tencent.base_url is required")
	}
	if c.Tencent.RatePerSecond < 0 {
		errs = append(errs, "tencent.rate_per_second must not be negative")
	}
	switch c.Cache.Backend {
	case CacheMemory:
		if c.Cache.Size <= 0 {
			errs = append(errs, "cache.size must be positive")
		}
	case CacheValkey:
		if c.Cache.ValkeyAddr == "" {
			errs = append(errs, "cache.valkey_addr is required for the valkey backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be memory or valkey, got %q", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive")
	}
	if c.Cache.StaleTTL < c.Cache.TTL {
		errs = append(errs, "cache.stale_ttl must not be shorter than cache.ttl")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
