package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	// Listen address must be host:port
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		errs = append(errs, fmt.Sprintf("server.listen must be host:port, got %q", c.Server.Listen))
	}

	switch c.Source.Kind {
	case SourceHTTP:
		u, err := url.Parse(c.Source.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("source.url must be an http(s) URL, got %q", c.Source.URL))
		}
		if c.Source.TimeoutMs <= 0 {
			errs = append(errs, "source.timeout_ms must be > 0")
		}
	case SourceFile:
		if c.Source.File == "" {
			errs = append(errs, "source.file must be specified")
		} else if _, err := os.Stat(c.Source.File); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("batch file not found: %s", c.Source.File))
		}
	case SourceNone:
	default:
		errs = append(errs, fmt.Sprintf("source.kind must be one of http/file/none, got %q", c.Source.Kind))
	}

	if c.Source.Kind != SourceNone && c.Source.PollIntervalMs <= 0 {
		errs = append(errs, "source.poll_interval_ms must be > 0")
	}

	if c.Filter.CacheTTLSec < 0 {
		errs = append(errs, "filter.cache_ttl_sec must be >= 0")
	}

	// Log level must be valid
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Sprintf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
