package sem

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClampsNegative(t *testing.T) {
	s := New(-5)
	assert.Equal(t, 0, s.Value())
}

func TestAcquireDecrements(t *testing.T) {
	s := New(3)

	waited := s.Acquire()
	assert.False(t, waited, "permit was available, no wait expected")
	assert.Equal(t, 2, s.Value())

	s.Acquire()
	s.Acquire()
	assert.Equal(t, 0, s.Value())
}

func TestTryAcquire(t *testing.T) {
	s := New(1)

	require.True(t, s.TryAcquire())
	assert.False(t, s.TryAcquire(), "no permits left")

	s.Release()
	assert.True(t, s.TryAcquire())
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	s := New(0)

	done := make(chan bool, 1)
	go func() {
		done <- s.Acquire()
	}()

	select {
	case <-done:
		t.Fatal("Acquire returned with a zero counter")
	case <-time.After(50 * time.Millisecond):
	}

	s.Release()

	select {
	case waited := <-done:
		assert.True(t, waited, "blocked acquire should report the wait")
	case <-time.After(time.Second):
		t.Fatal("Acquire did not wake after Release")
	}
	assert.Equal(t, 0, s.Value())
}

// Shutdown releases each semaphore once per worker, which can push the
// counter above its initial value. That must be legal.
func TestReleaseAboveInitialValue(t *testing.T) {
	s := New(2)

	for i := 0; i < 5; i++ {
		s.Release()
	}
	assert.Equal(t, 7, s.Value())
}

func TestConcurrentHandoff(t *testing.T) {
	const (
		permits = 4
		loops   = 200
		workers = 8
	)

	s := New(permits)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < loops; j++ {
				s.Acquire()
				s.Release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, permits, s.Value(), "permits conserved across handoffs")
}
