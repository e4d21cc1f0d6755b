// Package config defines the production-line run configuration, its
// file loading (JSON or YAML by extension), and the minimum-scale
// validation rules.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/prodline/errors"
)

// Validated minimums for full-scale runs. Reduced-scale test runs opt
// out of validation explicitly; nothing else about runtime semantics
// changes when they do.
const (
	MinBufferCapacity = 1000
	MinProducers      = 200
	MinTimesteps      = 1_000_000

	// ConsumerRatio is the minimum consumers-per-producer ratio.
	ConsumerRatio = 1.1
)

// Defaults for the ambient settings.
const (
	DefaultThrottleMin  = 100 * time.Microsecond
	DefaultThrottleMax  = 500 * time.Microsecond
	DefaultJoinTimeout  = 1 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	DefaultReportPath   = "relatorio_producao.json"
	DefaultNATSSubject  = "prodline.reports"
)

// Config represents a complete simulation configuration.
type Config struct {
	// Core run parameters.
	BufferCapacity int   `json:"buffer_capacity" yaml:"buffer_capacity"`
	NumProducers   int   `json:"num_producers"   yaml:"num_producers"`
	NumConsumers   int   `json:"num_consumers"   yaml:"num_consumers"`
	TotalTimesteps int64 `json:"total_timesteps" yaml:"total_timesteps"`

	// SkipValidation opts out of the minimum-scale checks for reduced
	// test runs.
	SkipValidation bool `json:"skip_validation,omitempty" yaml:"skip_validation,omitempty"`

	// Worker throttle: randomized processing-latency sleep bounds.
	ThrottleMin time.Duration `json:"throttle_min,omitempty" yaml:"throttle_min,omitempty"`
	ThrottleMax time.Duration `json:"throttle_max,omitempty" yaml:"throttle_max,omitempty"`

	// Shutdown behavior.
	JoinTimeout  time.Duration `json:"join_timeout,omitempty"  yaml:"join_timeout,omitempty"`
	PollInterval time.Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`

	// Observability and export surfaces. Zero ports disable the servers.
	MetricsPort int    `json:"metrics_port,omitempty" yaml:"metrics_port,omitempty"`
	GatewayPort int    `json:"gateway_port,omitempty" yaml:"gateway_port,omitempty"`
	NATSURL     string `json:"nats_url,omitempty"     yaml:"nats_url,omitempty"`
	NATSSubject string `json:"nats_subject,omitempty" yaml:"nats_subject,omitempty"`
	ReportPath  string `json:"report_path,omitempty"  yaml:"report_path,omitempty"`
}

// Default returns a full-scale configuration that passes validation.
func Default() *Config {
	cfg := &Config{
		BufferCapacity: MinBufferCapacity,
		NumProducers:   MinProducers,
		NumConsumers:   MinConsumers(MinProducers),
		TotalTimesteps: MinTimesteps,
	}
	cfg.ApplyDefaults()
	return cfg
}

// Toy returns the reduced-scale configuration used for quick local runs
// and tests, with validation bypassed.
func Toy() *Config {
	cfg := &Config{
		BufferCapacity: 10,
		NumProducers:   2,
		NumConsumers:   3,
		TotalTimesteps: 100,
		SkipValidation: true,
	}
	cfg.ApplyDefaults()
	return cfg
}

// MinConsumers returns the smallest valid consumer count for a producer
// count.
func MinConsumers(producers int) int {
	return int(math.Ceil(ConsumerRatio * float64(producers)))
}

// ApplyDefaults fills zero-valued ambient settings in place.
func (c *Config) ApplyDefaults() {
	if c.ThrottleMin == 0 {
		c.ThrottleMin = DefaultThrottleMin
	}
	if c.ThrottleMax == 0 {
		c.ThrottleMax = DefaultThrottleMax
	}
	if c.JoinTimeout == 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ReportPath == "" {
		c.ReportPath = DefaultReportPath
	}
	if c.NATSSubject == "" {
		c.NATSSubject = DefaultNATSSubject
	}
}

// Validate checks the configuration. Structural checks always apply;
// the minimum-scale constraints apply unless SkipValidation is set.
// Each violation is reported as an invalid-classified error naming the
// constraint that failed.
func (c *Config) Validate() error {
	if c.BufferCapacity < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("buffer capacity %d must be at least 1", c.BufferCapacity))
	}
	if c.NumProducers < 1 || c.NumConsumers < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("worker counts must be positive, got %d producers and %d consumers",
				c.NumProducers, c.NumConsumers))
	}
	if c.TotalTimesteps < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("total timesteps %d must be at least 1", c.TotalTimesteps))
	}
	if c.ThrottleMax < c.ThrottleMin {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("throttle max %s below throttle min %s", c.ThrottleMax, c.ThrottleMin))
	}

	if c.SkipValidation {
		return nil
	}

	if c.BufferCapacity < MinBufferCapacity {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("buffer capacity %d below minimum %d", c.BufferCapacity, MinBufferCapacity))
	}
	if c.NumProducers < MinProducers {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("producer count %d below minimum %d", c.NumProducers, MinProducers))
	}
	if minC := MinConsumers(c.NumProducers); c.NumConsumers < minC {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("consumer count %d below minimum %d (%.0f%% of %d producers)",
				c.NumConsumers, minC, ConsumerRatio*100, c.NumProducers))
	}
	if c.TotalTimesteps < MinTimesteps {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Config", "Validate",
			fmt.Sprintf("total timesteps %d below minimum %d", c.TotalTimesteps, MinTimesteps))
	}

	return nil
}

// Load reads a configuration file, decoding JSON or YAML based on the
// file extension, and applies ambient defaults. Validation is left to
// the caller so that -validate can report without side effects.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Config", "Load", "read config file")
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse YAML config")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse JSON config")
		}
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	copied := *c
	return &copied
}
