package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caramelo/internal/config"
	"caramelo/internal/engine"
	"caramelo/internal/filter"
	"caramelo/internal/handlers"
	"caramelo/internal/logging"
	"caramelo/internal/source"
)

var (
	version = "0.1.0"
	cfgFile string
)

// flagKeys maps CLI flags to the config keys they override.
var flagKeys = map[string]string{
	"listen":        "server.listen",
	"source":        "source.kind",
	"backend-url":   "source.url",
	"batch-file":    "source.file",
	"poll-interval": "source.poll_interval_ms",
	"timeout":       "source.timeout_ms",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"log-file":      "logging.file",
	"metrics":       "metrics.enabled",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "caramelo",
		Short: "Caramelo - packet table and detail view service",
		Long: `Polls a packet capture backend for decoded packet batches and serves
filtered, sorted views with per-packet layer detail to browser clients
over WebSocket.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Configuration file path (default: config.yaml)")
	rootCmd.Flags().String("listen", "", "HTTP listen address (host:port)")
	rootCmd.Flags().String("source", "", "Packet source (http|file|none)")
	rootCmd.Flags().String("backend-url", "", "Capture backend base URL")
	rootCmd.Flags().String("batch-file", "", "Recorded batch file (JSON or YAML)")
	rootCmd.Flags().Int("poll-interval", 0, "Source poll interval in ms")
	rootCmd.Flags().Int("timeout", 0, "Backend request timeout in ms")
	rootCmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.Flags().String("log-format", "", "Log format (text|json)")
	rootCmd.Flags().String("log-file", "", "Also write logs to this file")
	rootCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		log.Debug("No config file found, using defaults and CLI flags")
	}

	// Only flags set explicitly override the file.
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := config.LoadWithViper(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		return err
	}

	fmt.Printf("Caramelo v%s\n", version)
	fmt.Print(cfg.Summary())
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	src := newSource(cfg)
	var control source.CaptureController
	if c, ok := src.(source.CaptureController); ok {
		control = c
	}

	eng := engine.New(filter.NewCompiler(cfg.CacheTTL()), control)
	go eng.Run(ctx)

	if src != nil {
		go source.NewPoller(src, cfg.PollInterval(), eng).Run(ctx)
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, eng, cfg.Metrics.Enabled)
	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", cfg.Server.Listen).Info("Caramelo listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newSource(cfg *config.Config) source.Source {
	switch cfg.Source.Kind {
	case config.SourceHTTP:
		return source.NewHTTPSource(cfg.Source.URL, cfg.SourceTimeout())
	case config.SourceFile:
		return source.NewFileSource(cfg.Source.File)
	}
	return nil
}
