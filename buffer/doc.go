// Package buffer implements the bounded FIFO store at the heart of the
// production line, together with the two counting semaphores that gate
// access to it: emptySlots (free space, initialized to capacity) and
// filledSlots (available units, initialized to zero).
//
// The intended call sequence for a producer is
//
//	b.AcquireSlot()          // may block; suspension point
//	outcome, _ := b.TryProduce(u)
//	b.SignalItem()           // unconditional, see below
//
// and symmetrically AcquireItem / TryConsume / SignalSlot for a
// consumer. TryProduce and TryConsume carry defensive full/empty
// branches: the semaphore, the mutex, and the counterpart signal are
// three separate steps, so the contract must stay safe even when a
// shutdown-time force-release interleaves between them. The defensive
// branch is the safety net, not the common path.
//
// The counterpart signal is released unconditionally after the critical
// section, including on the defensive branch, matching the legacy line
// controller. The invariants
//
//	emptySlots + len(buffer) == capacity
//	filledSlots == len(buffer)
//
// therefore hold exactly at quiescence before shutdown over-releases,
// and with a tolerance of one release per worker afterwards.
package buffer
