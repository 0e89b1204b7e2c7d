// Package config loads DriveScope configuration from an optional YAML file
// and DRIVESCOPE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type APIConfig struct {
	PageSize       int64 `mapstructure:"page_size"`
	RequestDelayMS int   `mapstructure:"request_delay_ms"`
}

// RequestDelay is the client-side pause between listing pages.
func (c APIConfig) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

type AuthConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

type CacheConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	TTLHours     int    `mapstructure:"ttl_hours"`
	MaxSizeMB    int64  `mapstructure:"max_size_mb"`
	DatabasePath string `mapstructure:"database_path"`
}

// TTL converts the configured hour count to a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type LoggingConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

type AggregatorConfig struct {
	RetryBackoffMS int `mapstructure:"retry_backoff_ms"`
}

// RetryBackoff is the pause before the single rate-limit retry.
func (c AggregatorConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
}

// Load reads drivescope.yaml (from path when given, otherwise the working
// directory) and applies environment overrides. A missing config file is
// not an error; the defaults stand.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("api.page_size", 1000)
	v.SetDefault("api.request_delay_ms", 100)
	v.SetDefault("auth.credentials_file", "credentials.json")
	v.SetDefault("auth.token_file", "token.json")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cache.max_size_mb", 100)
	v.SetDefault("cache.database_path", "data/cache.db")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("logging.verbose", false)
	v.SetDefault("aggregator.retry_backoff_ms", 2000)

	v.SetEnvPrefix("DRIVESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("drivescope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
