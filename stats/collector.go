// Package stats accumulates run statistics for a production line.
//
// The collector sits behind its own mutex, independent from the buffer's
// lock, so bookkeeping never extends the time the buffer lock is held.
// Snapshot cadence is driven by the timestep value rather than wall-clock
// time, which makes the snapshot series reproducible for a fixed number
// of timesteps.
package stats

import "sync"

// Collector accumulates the four run counters and the ordered series of
// buffer-occupancy snapshots. All counters are monotonically
// non-decreasing for the lifetime of a run.
type Collector struct {
	mu sync.Mutex

	produced      int64
	consumed      int64
	producerWaits int64
	consumerWaits int64

	snapshots        []int
	snapshotInterval int64
}

// Summary is a point-in-time copy of the collected statistics.
type Summary struct {
	TotalProduced  int64 `json:"total_produced"`
	TotalConsumed  int64 `json:"total_consumed"`
	ProducerWaits  int64 `json:"producer_waits"`
	ConsumerWaits  int64 `json:"consumer_waits"`
	Snapshots      []int `json:"snapshots"`
	SnapshotWindow int64 `json:"snapshot_window"`
}

// NewCollector creates a collector whose snapshot interval is derived
// from the total timestep count: one snapshot roughly every 1% of the
// run, never more often than every timestep.
func NewCollector(totalTimesteps int64) *Collector {
	interval := totalTimesteps / 100
	if interval < 1 {
		interval = 1
	}
	return &Collector{
		snapshotInterval: interval,
	}
}

// SnapshotInterval returns the timestep interval between snapshots.
func (c *Collector) SnapshotInterval() int64 {
	return c.snapshotInterval
}

// RecordProduced counts one accepted unit. The occupancy argument is the
// buffer length observed under the buffer lock right after the append;
// it is recorded as a snapshot when the timestep falls on the interval.
func (c *Collector) RecordProduced(timestep int64, occupancy int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.produced++
	if timestep%c.snapshotInterval == 0 {
		c.snapshots = append(c.snapshots, occupancy)
	}
}

// RecordConsumed counts one consumed unit.
func (c *Collector) RecordConsumed() {
	c.mu.Lock()
	c.consumed++
	c.mu.Unlock()
}

// RecordProducerWait counts one producer flow-control event: either a
// blocking wait for a free slot or the defensive full-buffer branch.
func (c *Collector) RecordProducerWait() {
	c.mu.Lock()
	c.producerWaits++
	c.mu.Unlock()
}

// RecordConsumerWait counts one consumer flow-control event: either a
// blocking wait for an item or the defensive empty-buffer branch.
func (c *Collector) RecordConsumerWait() {
	c.mu.Lock()
	c.consumerWaits++
	c.mu.Unlock()
}

// TotalProduced returns the accepted-unit count.
func (c *Collector) TotalProduced() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.produced
}

// TotalConsumed returns the consumed-unit count.
func (c *Collector) TotalConsumed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.consumed
}

// Summary returns a copy of all counters and the snapshot series.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshots := make([]int, len(c.snapshots))
	copy(snapshots, c.snapshots)

	return Summary{
		TotalProduced:  c.produced,
		TotalConsumed:  c.consumed,
		ProducerWaits:  c.producerWaits,
		ConsumerWaits:  c.consumerWaits,
		Snapshots:      snapshots,
		SnapshotWindow: c.snapshotInterval,
	}
}
