package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run status values exported by the RunStatus gauge.
const (
	RunStatusCreated = 0
	RunStatusRunning = 1
	RunStatusStopped = 2
)

// Metrics contains the core simulation metrics shared by every run.
type Metrics struct {
	UnitsProduced     prometheus.Counter
	UnitsConsumed     prometheus.Counter
	ProducerWaits     prometheus.Counter
	ConsumerWaits     prometheus.Counter
	BufferOccupancy   prometheus.Gauge
	BufferUtilization prometheus.Gauge
	CurrentTimestep   prometheus.Gauge
	RunStatus         prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all core simulation metrics
func NewMetrics() *Metrics {
	return &Metrics{
		UnitsProduced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "prodline",
				Subsystem: "units",
				Name:      "produced_total",
				Help:      "Total number of units appended to the buffer",
			},
		),

		UnitsConsumed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "prodline",
				Subsystem: "units",
				Name:      "consumed_total",
				Help:      "Total number of units removed from the buffer",
			},
		),

		ProducerWaits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "prodline",
				Subsystem: "workers",
				Name:      "producer_waits_total",
				Help:      "Times a producer waited for buffer space or hit the defensive full branch",
			},
		),

		ConsumerWaits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "prodline",
				Subsystem: "workers",
				Name:      "consumer_waits_total",
				Help:      "Times a consumer waited for an item or hit the defensive empty branch",
			},
		),

		BufferOccupancy: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "prodline",
				Subsystem: "buffer",
				Name:      "occupancy",
				Help:      "Current number of units in the buffer",
			},
		),

		BufferUtilization: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "prodline",
				Subsystem: "buffer",
				Name:      "utilization",
				Help:      "Buffer occupancy as a fraction of capacity (0.0 to 1.0)",
			},
		),

		CurrentTimestep: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "prodline",
				Subsystem: "run",
				Name:      "current_timestep",
				Help:      "Current global simulation timestep",
			},
		),

		RunStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "prodline",
				Subsystem: "run",
				Name:      "status",
				Help:      "Run status (0=created, 1=running, 2=stopped)",
			},
		),
	}
}
