package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/prodline/errors"
	"github.com/c360/prodline/metric"
)

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = New(-3)
	require.Error(t, err)
}

func TestInitialSignalValues(t *testing.T) {
	b, err := New(8)
	require.NoError(t, err)

	assert.Equal(t, 8, b.Capacity())
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, 8, b.EmptySlotPermits())
	assert.Equal(t, 0, b.FilledSlotPermits())
}

func TestFIFOOrdering(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)

	units := []Unit{
		{Producer: 1, Timestep: 1},
		{Producer: 2, Timestep: 2},
		{Producer: 1, Timestep: 3},
	}
	for _, u := range units {
		waited := b.AcquireSlot()
		require.False(t, waited, "permits available, no wait expected")
		outcome, _ := b.TryProduce(u)
		require.Equal(t, Accepted, outcome)
		b.SignalItem()
	}

	for i, want := range units {
		b.AcquireItem()
		got, outcome, _ := b.TryConsume()
		require.Equal(t, Consumed, outcome, "unit %d", i)
		assert.Equal(t, want, got, "insertion order must be preserved")
		b.SignalSlot()
	}
}

func TestUnitID(t *testing.T) {
	u := Unit{Producer: 3, Timestep: 42}
	assert.Equal(t, "P3-T42", u.ID())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "rejected-full", RejectedFull.String())
	assert.Equal(t, "consumed", Consumed.String())
	assert.Equal(t, "rejected-empty", RejectedEmpty.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}

// The defensive branches must refuse to mutate, mirroring the race
// window where a shutdown force-release admits a worker the buffer
// cannot serve.
func TestDefensiveBranches(t *testing.T) {
	b, err := New(2)
	require.NoError(t, err)

	// Empty buffer: consume without a legitimate item permit.
	_, outcome, occupancy := b.TryConsume()
	assert.Equal(t, RejectedEmpty, outcome)
	assert.Equal(t, 0, occupancy)
	assert.Equal(t, 0, b.Size())

	// Fill to capacity.
	for ts := int64(1); ts <= 2; ts++ {
		b.AcquireSlot()
		o, _ := b.TryProduce(Unit{Producer: 0, Timestep: ts})
		require.Equal(t, Accepted, o)
		b.SignalItem()
	}

	// Full buffer: produce as if over-admitted.
	outcome, occupancy = b.TryProduce(Unit{Producer: 9, Timestep: 99})
	assert.Equal(t, RejectedFull, outcome)
	assert.Equal(t, 2, occupancy)
	assert.Equal(t, 2, b.Size(), "rejected produce must not mutate")
}

func TestSignalConservationAtQuiescence(t *testing.T) {
	b, err := New(5)
	require.NoError(t, err)

	// Produce three, consume one, following the full discipline.
	for ts := int64(1); ts <= 3; ts++ {
		b.AcquireSlot()
		outcome, _ := b.TryProduce(Unit{Producer: 1, Timestep: ts})
		require.Equal(t, Accepted, outcome)
		b.SignalItem()
	}
	b.AcquireItem()
	_, outcome, _ := b.TryConsume()
	require.Equal(t, Consumed, outcome)
	b.SignalSlot()

	assert.Equal(t, 2, b.Size())
	assert.Equal(t, b.Capacity()-b.Size(), b.EmptySlotPermits(),
		"emptySlots + len(buffer) == capacity")
	assert.Equal(t, b.Size(), b.FilledSlotPermits(),
		"filledSlots == len(buffer)")
}

func TestForceReleaseCounts(t *testing.T) {
	b, err := New(4)
	require.NoError(t, err)

	b.ForceRelease(3, 5)

	// One release per potentially parked worker, even beyond capacity.
	assert.Equal(t, 4+3, b.EmptySlotPermits())
	assert.Equal(t, 5, b.FilledSlotPermits())
}

func TestDrain(t *testing.T) {
	b, err := New(3)
	require.NoError(t, err)

	for ts := int64(1); ts <= 3; ts++ {
		b.AcquireSlot()
		b.TryProduce(Unit{Producer: 7, Timestep: ts})
		b.SignalItem()
	}

	units := b.Drain()
	require.Len(t, units, 3)
	assert.Equal(t, int64(1), units[0].Timestep)
	assert.Equal(t, int64(3), units[2].Timestep)
	assert.Equal(t, 0, b.Size())
	assert.Empty(t, b.Drain())
}

func TestCapacityInvariantUnderContention(t *testing.T) {
	const (
		capacity  = 4
		producers = 3
		consumers = 3
		perWorker = 200
	)

	b, err := New(capacity)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(producers + consumers)
	for p := 0; p < producers; p++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				b.AcquireSlot()
				outcome, occupancy := b.TryProduce(Unit{Producer: id, Timestep: int64(i)})
				assert.Equal(t, Accepted, outcome)
				assert.LessOrEqual(t, occupancy, capacity)
				b.SignalItem()
			}
		}(p)
	}
	for c := 0; c < consumers; c++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				b.AcquireItem()
				_, outcome, occupancy := b.TryConsume()
				assert.Equal(t, Consumed, outcome)
				assert.GreaterOrEqual(t, occupancy, 0)
				b.SignalSlot()
			}
		}()
	}
	wg.Wait()

	// Equal production and consumption leaves an empty buffer and fully
	// restored permits.
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, capacity, b.EmptySlotPermits())
	assert.Equal(t, 0, b.FilledSlotPermits())
}

func TestWithMetricsRegistersCollectors(t *testing.T) {
	reg := metric.NewRegistry()
	b, err := New(2, WithMetrics(reg, "line"))
	require.NoError(t, err)

	b.AcquireSlot()
	b.TryProduce(Unit{Producer: 1, Timestep: 1})
	b.SignalItem()

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["prodline_buffer_produced_total"])
	assert.True(t, names["prodline_buffer_size"])

	// A second buffer under the same prefix must be refused.
	_, err = New(2, WithMetrics(reg, "line"))
	require.Error(t, err)
}
