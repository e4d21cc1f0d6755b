package buffer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/prodline/metric"
)

// bufferMetrics holds Prometheus metrics for buffer operations.
type bufferMetrics struct {
	produced      prometheus.Counter
	consumed      prometheus.Counter
	rejectedFull  prometheus.Counter
	rejectedEmpty prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

// newBufferMetrics creates and registers buffer metrics with the provided registry.
func newBufferMetrics(registry *metric.Registry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		produced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "prodline",
			Subsystem:   "buffer",
			Name:        "produced_total",
			ConstLabels: prometheus.Labels{"buffer": prefix},
			Help:        "Total number of units appended",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "prodline",
			Subsystem:   "buffer",
			Name:        "consumed_total",
			ConstLabels: prometheus.Labels{"buffer": prefix},
			Help:        "Total number of units removed",
		}),
		rejectedFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "prodline",
			Subsystem:   "buffer",
			Name:        "rejected_full_total",
			ConstLabels: prometheus.Labels{"buffer": prefix},
			Help:        "Defensive full-buffer rejections on produce",
		}),
		rejectedEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "prodline",
			Subsystem:   "buffer",
			Name:        "rejected_empty_total",
			ConstLabels: prometheus.Labels{"buffer": prefix},
			Help:        "Defensive empty-buffer rejections on consume",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "prodline",
			Subsystem:   "buffer",
			Name:        "size",
			ConstLabels: prometheus.Labels{"buffer": prefix},
			Help:        "Current number of units in the buffer",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "prodline",
			Subsystem:   "buffer",
			Name:        "utilization_ratio",
			ConstLabels: prometheus.Labels{"buffer": prefix},
			Help:        "Buffer occupancy as a fraction of capacity (0.0 to 1.0)",
		}),
	}

	if err := registry.RegisterCounter(prefix, "buffer_produced", m.produced); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "buffer_consumed", m.consumed); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "buffer_rejected_full", m.rejectedFull); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "buffer_rejected_empty", m.rejectedEmpty); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "buffer_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "buffer_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *bufferMetrics) recordProduced(size, capacity int) {
	m.produced.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordConsumed(size, capacity int) {
	m.consumed.Inc()
	m.updateSize(size, capacity)
}

func (m *bufferMetrics) recordRejectedFull() {
	m.rejectedFull.Inc()
}

func (m *bufferMetrics) recordRejectedEmpty() {
	m.rejectedEmpty.Inc()
}

func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.utilization.Set(float64(size) / float64(capacity))
}
