// Package logging configures the global logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"caramelo/internal/config"
)

// Setup applies level, format and output from cfg. Console output is always
// kept; a configured file is added and rotated by size.
func Setup(cfg config.LoggingConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	default:
		return fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return nil
	}
	log.SetOutput(io.MultiWriter(os.Stdout, newFileWriter(cfg)))
	return nil
}

func newFileWriter(cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
}
