package buffer

import (
	"fmt"
	"sync"

	"github.com/c360/prodline/errors"
	"github.com/c360/prodline/pkg/sem"
)

// Unit is one discrete produced item flowing through the line. It is
// tagged with the producing worker and the global timestep at which it
// was created, and is immutable once built.
type Unit struct {
	Producer int
	Timestep int64
}

// ID returns the legacy piece identifier, e.g. "P3-T42".
func (u Unit) ID() string {
	return fmt.Sprintf("P%d-T%d", u.Producer, u.Timestep)
}

// Outcome reports what happened inside the critical section.
type Outcome int

const (
	// Accepted means the unit was appended to the buffer.
	Accepted Outcome = iota
	// RejectedFull means the defensive full check fired and nothing was
	// mutated. Under correct semaphore discipline this branch only
	// arises from shutdown-window signal interleavings.
	RejectedFull
	// Consumed means the head unit was removed and returned.
	Consumed
	// RejectedEmpty is the consume-side defensive branch.
	RejectedEmpty
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case RejectedFull:
		return "rejected-full"
	case Consumed:
		return "consumed"
	case RejectedEmpty:
		return "rejected-empty"
	default:
		return "unknown"
	}
}

// Bounded is the shared FIFO store of produced units plus the two
// counting semaphores that gate access to it.
//
// Lock discipline: the mutex guards only the ring contents. The
// semaphores are acquired and released outside the mutex, so the three
// steps of each operation (acquire signal, mutate under lock, signal the
// counterpart) never nest locks. The defensive branches in TryProduce
// and TryConsume keep the contract safe even when a shutdown-time signal
// release interleaves between those steps.
type Bounded struct {
	mu       sync.Mutex
	items    []Unit
	capacity int
	size     int
	head     int // next read position
	tail     int // next write position

	emptySlots  *sem.Sem // free space, starts at capacity
	filledSlots *sem.Sem // available units, starts at 0

	metrics *bufferMetrics
}

// New creates a bounded buffer with the given capacity.
func New(capacity int, options ...Option) (*Bounded, error) {
	if capacity < 1 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("capacity %d, must be at least 1", capacity),
			"Bounded", "New", "validate capacity")
	}

	opts := applyOptions(options...)

	b := &Bounded{
		items:       make([]Unit, capacity),
		capacity:    capacity,
		emptySlots:  sem.New(capacity),
		filledSlots: sem.New(0),
	}

	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		m, err := newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Bounded", "New", "metrics registration")
		}
		b.metrics = m
	}

	return b, nil
}

// AcquireSlot blocks until a free slot permit is available and claims
// it. It reports whether the caller had to wait.
func (b *Bounded) AcquireSlot() (waited bool) {
	return b.emptySlots.Acquire()
}

// AcquireItem blocks until an item permit is available and claims it.
// It reports whether the caller had to wait.
func (b *Bounded) AcquireItem() (waited bool) {
	return b.filledSlots.Acquire()
}

// SignalItem releases one item permit, admitting a consumer.
func (b *Bounded) SignalItem() {
	b.filledSlots.Release()
}

// SignalSlot releases one slot permit, admitting a producer.
func (b *Bounded) SignalSlot() {
	b.emptySlots.Release()
}

// ForceRelease performs the shutdown wake-up protocol: exactly one slot
// release per producer and one item release per consumer, guaranteeing
// every worker parked on either semaphore wakes at least once and can
// observe the stopped flag on its post-wake re-check.
func (b *Bounded) ForceRelease(producers, consumers int) {
	for i := 0; i < producers; i++ {
		b.emptySlots.Release()
	}
	for i := 0; i < consumers; i++ {
		b.filledSlots.Release()
	}
}

// TryProduce appends a unit at the tail. The caller must hold a slot
// permit from AcquireSlot. The returned occupancy is the buffer length
// observed under the lock right after the operation.
func (b *Bounded) TryProduce(u Unit) (Outcome, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == b.capacity {
		if b.metrics != nil {
			b.metrics.recordRejectedFull()
		}
		return RejectedFull, b.size
	}

	b.items[b.tail] = u
	b.tail = (b.tail + 1) % b.capacity
	b.size++

	if b.metrics != nil {
		b.metrics.recordProduced(b.size, b.capacity)
	}
	return Accepted, b.size
}

// TryConsume removes and returns the head unit. The caller must hold an
// item permit from AcquireItem. The returned occupancy is the buffer
// length observed under the lock right after the operation.
func (b *Bounded) TryConsume() (Unit, Outcome, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		if b.metrics != nil {
			b.metrics.recordRejectedEmpty()
		}
		return Unit{}, RejectedEmpty, 0
	}

	u := b.items[b.head]
	b.items[b.head] = Unit{}
	b.head = (b.head + 1) % b.capacity
	b.size--

	if b.metrics != nil {
		b.metrics.recordConsumed(b.size, b.capacity)
	}
	return u, Consumed, b.size
}

// Size returns the current number of units in the buffer.
func (b *Bounded) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Capacity returns the fixed maximum number of units.
func (b *Bounded) Capacity() int {
	return b.capacity
}

// EmptySlotPermits returns the current free-slot semaphore counter.
// Meaningful only at quiescence.
func (b *Bounded) EmptySlotPermits() int {
	return b.emptySlots.Value()
}

// FilledSlotPermits returns the current item semaphore counter.
// Meaningful only at quiescence.
func (b *Bounded) FilledSlotPermits() int {
	return b.filledSlots.Value()
}

// Drain removes and returns every remaining unit in FIFO order without
// touching the semaphores. Intended for post-run inspection only.
func (b *Bounded) Drain() []Unit {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Unit, 0, b.size)
	for b.size > 0 {
		out = append(out, b.items[b.head])
		b.items[b.head] = Unit{}
		b.head = (b.head + 1) % b.capacity
		b.size--
	}
	if b.metrics != nil {
		b.metrics.updateSize(0, b.capacity)
	}
	return out
}
