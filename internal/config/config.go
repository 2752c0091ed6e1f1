package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source kinds.
const (
	SourceHTTP = "http"
	SourceFile = "file"
	SourceNone = "none"
)

// Config holds all configuration for the packet view service.
type Config struct {
	Server  ServerConfig  `yaml:"server"  mapstructure:"server"`
	Source  SourceConfig  `yaml:"source"  mapstructure:"source"`
	Filter  FilterConfig  `yaml:"filter"  mapstructure:"filter"`
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

type SourceConfig struct {
	Kind           string `yaml:"kind"             mapstructure:"kind"`
	URL            string `yaml:"url"              mapstructure:"url"`
	File           string `yaml:"file"             mapstructure:"file"`
	PollIntervalMs int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	TimeoutMs      int    `yaml:"timeout_ms"       mapstructure:"timeout_ms"`
}

type FilterConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec" mapstructure:"cache_ttl_sec"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"       mapstructure:"level"`
	Format     string `yaml:"format"      mapstructure:"format"`
	File       string `yaml:"file"        mapstructure:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults configures default values for the configuration.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":3000")
	v.SetDefault("source.kind", SourceHTTP)
	v.SetDefault("source.url", "http://localhost:8080")
	v.SetDefault("source.poll_interval_ms", 1000)
	v.SetDefault("source.timeout_ms", 5000)
	v.SetDefault("filter.cache_ttl_sec", 600)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("metrics.enabled", true)
}

// Load reads configuration from a YAML file and returns a Config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper reads configuration using an existing viper instance (for CLI flag binding).
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// PollInterval returns the source poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Source.PollIntervalMs) * time.Millisecond
}

// SourceTimeout returns the per-request timeout for the HTTP source.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutMs) * time.Millisecond
}

// CacheTTL returns how long compiled predicates stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Filter.CacheTTLSec) * time.Second
}

// Summary returns a human-readable summary of the configuration.
func (c *Config) Summary() string {
	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	sb.WriteString(fmt.Sprintf("  Listen:        %s\n", c.Server.Listen))
	switch c.Source.Kind {
	case SourceHTTP:
		sb.WriteString(fmt.Sprintf("  Source:        http %s\n", c.Source.URL))
	case SourceFile:
		sb.WriteString(fmt.Sprintf("  Source:        file %s\n", c.Source.File))
	default:
		sb.WriteString(fmt.Sprintf("  Source:        %s\n", c.Source.Kind))
	}
	sb.WriteString(fmt.Sprintf("  Poll Interval: %dms (timeout %dms)\n", c.Source.PollIntervalMs, c.Source.TimeoutMs))
	sb.WriteString(fmt.Sprintf("  Metrics:       %v\n", c.Metrics.Enabled))
	sb.WriteString(fmt.Sprintf("  Log Level:     %s\n", c.Logging.Level))
	return sb.String()
}
