// Package sem provides the counting semaphore that gates access to the
// bounded production buffer.
//
// Unlike golang.org/x/sync/semaphore, releases may push the counter above
// its initial value: coordinated shutdown deliberately over-releases both
// buffer semaphores (one release per worker) to wake every parked
// goroutine, and a bounded semaphore would panic on that protocol.
package sem

import "sync"

// Sem is a counting semaphore supporting "wait until counter > 0 then
// decrement" and "increment". The counter never goes negative and has no
// upper bound.
type Sem struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

// New creates a semaphore with an initial counter value. Negative values
// are clamped to zero.
func New(n int) *Sem {
	if n < 0 {
		n = 0
	}
	s := &Sem{n: n}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Acquire blocks until the counter is positive, then decrements it.
// It reports whether the caller had to wait, which run statistics record
// as flow-control back-pressure.
func (s *Sem) Acquire() (waited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.n == 0 {
		waited = true
		s.cond.Wait()
	}
	s.n--
	return waited
}

// TryAcquire decrements the counter without blocking. It returns false
// if no permit was available.
func (s *Sem) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.n == 0 {
		return false
	}
	s.n--
	return true
}

// Release increments the counter and wakes one waiter.
func (s *Sem) Release() {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
	s.cond.Signal()
}

// Value returns the current counter. Meaningful only at quiescence; under
// contention the value is stale as soon as it is read.
func (s *Sem) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
