// Package config loads fundalens settings from a YAML file, an optional
// .env file and FUNDALENS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/fundalens/internal/datasource"
)

// EnvPrefix prefixes every environment override, e.g.
// FUNDALENS_SCRAPER_REQUESTS_PER_SECOND.
const EnvPrefix = "FUNDALENS"

// Config represents the complete application configuration.
type Config struct {
	Scraper  ScraperConfig  `mapstructure:"scraper"  yaml:"scraper"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ScraperConfig holds the screener.in source settings.
type ScraperConfig struct {
	BaseURL           string        `mapstructure:"base_url"            yaml:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"          yaml:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"             yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"           yaml:"cache_ttl"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"       yaml:"retry_backoff"`
	Consolidated      bool          `mapstructure:"consolidated"        yaml:"consolidated"` // prefer consolidated statements
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"` // tickers fetched at once in a batch
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host"`
	Port           int           `mapstructure:"port"            yaml:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Screener maps the scraper section onto the source's own config.
func (s ScraperConfig) Screener() datasource.ScreenerConfig {
	return datasource.ScreenerConfig{
		BaseURL:           s.BaseURL,
		UserAgent:         s.UserAgent,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
		CacheTTL:          s.CacheTTL,
		RetryBackoff:      s.RetryBackoff,
	}
}

// Addr is the listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.fundalens/config.yaml
//  3. /etc/fundalens/config.yaml
//
// A .env file in the working directory is loaded first; variables
// already set in the environment win over it. Environment variables
// override config file values.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fundalens"))
	v.AddConfigPath("/etc/fundalens")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process
// environment without overwriting existing variables. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("analysis.concurrency must be at least 1, got %d", c.Analysis.Concurrency))
	}
	if c.Scraper.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("scraper.requests_per_second must not be negative"))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Scraper
	v.SetDefault("scraper.base_url", datasource.DefaultScreenerURL)
	v.SetDefault("scraper.user_agent", datasource.DefaultUserAgent)
	v.SetDefault("scraper.timeout", datasource.DefaultTimeout)
	v.SetDefault("scraper.requests_per_second", 1.0)
	v.SetDefault("scraper.cache_ttl", 15*time.Minute)
	v.SetDefault("scraper.retry_backoff", 3*time.Second)
	v.SetDefault("scraper.consolidated", true)

	v.SetDefault("analysis.concurrency", 4)

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout", 60*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
