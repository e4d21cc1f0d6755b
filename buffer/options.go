package buffer

import (
	"github.com/c360/prodline/metric"
)

// Option configures buffer behavior using the functional options pattern.
type Option func(*bufferOptions)

// bufferOptions holds internal configuration for buffer instances.
type bufferOptions struct {
	// metricsReg is optional - if provided, buffer activity is exposed
	// as Prometheus metrics under the given prefix.
	metricsReg    *metric.Registry
	metricsPrefix string
}

// WithMetrics enables Prometheus metrics export for buffer activity.
// If registry is nil or prefix is empty, the option is ignored.
func WithMetrics(registry *metric.Registry, prefix string) Option {
	return func(opts *bufferOptions) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// applyOptions applies functional options to create the final buffer
// configuration.
func applyOptions(options ...Option) *bufferOptions {
	opts := &bufferOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	return opts
}
