// Package prodline simulates a bounded-capacity industrial production line
// where concurrent producer and consumer workers exchange discrete units
// through a shared fixed-size buffer.
//
// # Architecture
//
// The simulation core is a classic semaphore-gated bounded buffer:
//
//	┌─────────────────────────────────────┐
//	│            line.Line                │  Run control, worker
//	│  (start, poll, shutdown, report)    │  lifecycle, timesteps
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│          buffer.Bounded             │  FIFO store + the two
//	│   (emptySlots / filledSlots gates)  │  counting semaphores
//	└─────────────────────────────────────┘
//	           ↓ observed by
//	┌─────────────────────────────────────┐
//	│  stats.Collector / metric / report  │  Counters, snapshots,
//	│        analyze / gateway            │  exports, live view
//	└─────────────────────────────────────┘
//
// Three independently locked regions keep the critical sections narrow:
// the buffer contents, the global timestep counter, and the statistics
// accumulator. Workers never hold two of them at once, which rules out
// lock-ordering deadlocks by construction.
//
// Shutdown is cooperative: the controller flips the running flag exactly
// once, then force-releases each semaphore once per worker so every
// parked goroutine wakes, re-checks the flag, and exits. The final join
// is bounded by a timeout and is best-effort.
//
// Peripheral packages consume finished state only: report renders and
// exports the legacy JSON report, analyze compares reports across runs,
// gateway streams live occupancy over WebSocket, and metric exposes
// Prometheus metrics.
package prodline
