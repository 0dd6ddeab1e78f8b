package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/navhist/internal/config"
	"github.com/vango-dev/navhist/internal/errors"
	"github.com/vango-dev/navhist/pkg/bridge"
)

type serveFlags struct {
	dir      string
	port     int
	host     string
	mode     string
	logLevel string
	metrics  bool
}

func serveCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Drive browser tabs from the server",
		Long: `Start an HTTP server that hosts the navhist thin client.

Every tab that loads <base>/client.js gets a server-side History.
Settings come from navhist.json when present; flags override them.

Examples:
  navhist serve
  navhist serve --port=8080 --mode=hash
  navhist serve --metrics --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&flags.dir, "dir", "d", ".", "Directory containing navhist.json")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Port to run on (default from navhist.json)")
	cmd.Flags().StringVarP(&flags.host, "host", "H", "", "Host to bind to (default from navhist.json)")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "History mode: browser or hash")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "Serve Prometheus metrics")

	return cmd
}

func loadServeConfig(cmd *cobra.Command, flags serveFlags) (*config.Config, error) {
	cfg := config.New()
	if config.Exists(flags.dir) {
		loaded, err := config.Load(flags.dir)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if flags.port > 0 {
		cfg.Server.Port = flags.port
	}
	if flags.host != "" {
		cfg.Server.Host = flags.host
	}
	if flags.mode != "" {
		cfg.Mode = flags.mode
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics.Enabled = flags.metrics
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == config.ModeMemory {
		return nil, errors.New("E140").
			WithDetail("serve drives browser tabs; memory mode has no tab to drive").
			WithSuggestion("Use --mode=browser or --mode=hash, or try navhist repl")
	}
	return cfg, nil
}

func runServe(cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	slog.SetDefault(logger)

	opts := bridge.Options{
		Mode:           cfg.Mode,
		BasePath:       cfg.Server.BasePath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		HistoryOptions: cfg.HistoryOptions(),
		TracerName:     cfg.Tracing.TracerName,
		Logger:         logger,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts.Registry = reg
		opts.Namespace = cfg.Metrics.Namespace
		opts.MetricsPath = cfg.Metrics.Path
	}
	srv := bridge.New(opts)

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Listening on http://%s", cfg.Address())
	info("Client script: %s/client.js", cfg.Server.BasePath)
	info("History mode:  %s", cfg.Mode)
	if cfg.Metrics.Enabled {
		info("Metrics:       %s", cfg.Metrics.Path)
	}
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, cfg.Address()); err != nil {
		return errors.New("E140").WithDetail("server stopped: " + err.Error()).Wrap(err)
	}
	fmt.Println("\n  Shut down cleanly.")
	return nil
}
