package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Toy         bool
	Validate    bool
	Analyze     bool
	ShowVersion bool
	ShowHelp    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("PRODLINE_CONFIG", ""),
		"Path to configuration file, JSON or YAML (env: PRODLINE_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("PRODLINE_CONFIG", ""),
		"Path to configuration file, JSON or YAML (env: PRODLINE_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("PRODLINE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: PRODLINE_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("PRODLINE_LOG_FORMAT", "text"),
		"Log format: json, text (env: PRODLINE_LOG_FORMAT)")

	flag.BoolVar(&cfg.Toy, "toy",
		getEnvBool("PRODLINE_TOY", false),
		"Run the reduced-scale scenario, skipping minimum-scale validation (env: PRODLINE_TOY)")

	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	flag.BoolVar(&cfg.Analyze, "analyze", false, "Compare the report files given as arguments and exit")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Analyze && flag.NArg() == 0 {
		return fmt.Errorf("-analyze requires at least one report file argument")
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Bounded-capacity production line simulator

Usage: %s [options] [report files...]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Full-scale run with defaults
  %s

  # Run with custom config
  %s --config=/path/to/config.yaml

  # Quick reduced-scale run with debug logging
  %s --toy --log-level=debug

  # Validate configuration only
  %s --config=run.json --validate

  # Compare finished runs
  %s --analyze run1.json run2.json

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
