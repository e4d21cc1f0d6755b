package line

import (
	"log/slog"

	"github.com/c360/prodline/metric"
)

// Option configures a Line using the functional options pattern.
type Option func(*lineOptions)

type lineOptions struct {
	logger      *slog.Logger
	metricsReg  *metric.Registry
	runID       string
	bufferLabel string
}

// WithLogger sets the structured logger for run lifecycle events.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(opts *lineOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics exposes run and buffer activity as Prometheus metrics on
// the given registry. If registry is nil, the option is ignored.
func WithMetrics(registry *metric.Registry) Option {
	return func(opts *lineOptions) {
		if registry != nil {
			opts.metricsReg = registry
		}
	}
}

// WithRunID overrides the generated run identifier. Used by tests that
// need stable IDs.
func WithRunID(id string) Option {
	return func(opts *lineOptions) {
		if id != "" {
			opts.runID = id
		}
	}
}

func applyOptions(options ...Option) *lineOptions {
	opts := &lineOptions{
		logger:      slog.Default(),
		bufferLabel: "line",
	}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
