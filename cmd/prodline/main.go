// Package main implements the entry point for the prodline simulator.
// It runs a bounded-capacity production line (producers and consumers
// over a shared FIFO buffer), writes the final run report, and
// optionally serves live progress and Prometheus metrics while the run
// is in flight.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/prodline/analyze"
	"github.com/c360/prodline/config"
	"github.com/c360/prodline/gateway"
	"github.com/c360/prodline/line"
	"github.com/c360/prodline/metric"
	"github.com/c360/prodline/report"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "prodline"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	if cliCfg.Analyze {
		return runAnalyze(flag.Args())
	}

	cfg, err := loadRunConfig(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		slog.Info("Configuration is valid")
		return nil
	}

	return runSimulation(cfg, logger)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting prodline",
		"version", Version,
		"config_path", cliCfg.ConfigPath,
		"toy", cliCfg.Toy)

	return cliCfg, logger, false, nil
}

// loadRunConfig resolves the run configuration from flags: an explicit
// file, the reduced-scale scenario, or full-scale defaults.
func loadRunConfig(cliCfg *CLIConfig) (*config.Config, error) {
	if cliCfg.Toy {
		return config.Toy(), nil
	}
	if cliCfg.ConfigPath != "" {
		cfg, err := config.Load(cliCfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	return config.Default(), nil
}

// runSimulation wires the observability surfaces, runs the line to
// completion, and exports the report.
func runSimulation(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	options := []line.Option{line.WithLogger(logger)}

	// Metrics server, enabled by a nonzero port.
	var metricsServer *metric.Server
	var registry *metric.Registry
	if cfg.MetricsPort > 0 {
		registry = metric.NewRegistry()
		options = append(options, line.WithMetrics(registry))
	}

	l, err := line.New(cfg, options...)
	if err != nil {
		return fmt.Errorf("create line: %w", err)
	}

	if registry != nil {
		metricsServer = metric.NewServer(cfg.MetricsPort, "/metrics", registry)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Stop() }()
		logger.Info("metrics server listening", "address", metricsServer.Address())
	}

	// Progress gateway, enabled by a nonzero port.
	if cfg.GatewayPort > 0 {
		gwCfg := gateway.DefaultConfig()
		gwCfg.Port = cfg.GatewayPort
		gw, err := gateway.NewServer(gwCfg, l, gateway.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("create gateway: %w", err)
		}
		if err := gw.Start(ctx); err != nil {
			return fmt.Errorf("start gateway: %w", err)
		}
		defer func() { _ = gw.Stop(5 * time.Second) }()
	}

	publisher, closeNATS, err := setupPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNATS()

	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("start line: %w", err)
	}
	if err := l.WaitCompletion(ctx); err != nil {
		return fmt.Errorf("wait for completion: %w", err)
	}

	return exportReport(l, cfg, publisher, logger)
}

// setupPublisher connects to NATS when a URL is configured. Without one
// the publisher is a disabled no-op and the close function does nothing.
func setupPublisher(cfg *config.Config, logger *slog.Logger) (*report.Publisher, func(), error) {
	if cfg.NATSURL == "" {
		return report.NewPublisher(nil, cfg.NATSSubject, logger), func() {}, nil
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Timeout(10*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS %s: %w", cfg.NATSURL, err)
	}

	logger.Info("connected to NATS", "url", cfg.NATSURL, "subject", cfg.NATSSubject)
	return report.NewPublisher(nc, cfg.NATSSubject, logger), nc.Close, nil
}

// exportReport validates, saves, prints, and publishes the final report.
func exportReport(l *line.Line, cfg *config.Config, publisher *report.Publisher, logger *slog.Logger) error {
	r := l.Report()

	if err := r.Validate(); err != nil {
		return fmt.Errorf("report failed validation: %w", err)
	}

	if err := r.Save(cfg.ReportPath); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	logger.Info("report saved", "path", cfg.ReportPath, "run_id", r.RunID)

	if err := r.Render(os.Stdout); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if err := publisher.Publish(r); err != nil {
		// Publishing is best-effort; the report is already on disk.
		logger.Warn("publish report", "error", err)
	}

	return nil
}

// runAnalyze loads the given report files and prints the comparison.
func runAnalyze(paths []string) error {
	a := analyze.New()
	if err := a.LoadReports(paths...); err != nil {
		return fmt.Errorf("load reports: %w", err)
	}

	if err := a.RenderTable(os.Stdout); err != nil {
		return fmt.Errorf("render comparison: %w", err)
	}

	for i, r := range a.Reports() {
		s := analyze.Summarize(r)
		fmt.Printf("\nrun %d buffer occupancy: min=%d max=%d mean=%.2f final=%d utilization=%.1f%%\n",
			i+1, s.Min, s.Max, s.Mean, s.Final, s.Utilization*100)
	}
	return nil
}
