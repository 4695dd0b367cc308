// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: spinlock.go — short-hold spinlock guarding the coordinator's
// global database list.
//
// Purpose:
//   - Protects insertion of a newly created per-thread database, the
//     read of the list head at flush time, and unlinking a retired
//     database after its flush — never held across ingest or a trie
//     operation.
//
// Notes:
//   - CAS loop that yields (runtime.Gosched) after every 64 failed
//     attempts. A plain atomic.Bool loop would work just as well
//     correctness-wise, but the yield keeps
//     contended spins from hammering the cache-coherency fabric during
//     the rare case of concurrent thread creation.
// ─────────────────────────────────────────────────────────────────────────────

package spinlock

import (
	"runtime"
	"sync/atomic"
)

// Spinlock is a tiny mutual-exclusion lock meant to be held for O(1)
// pointer operations only.
type Spinlock struct {
	held atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *Spinlock) Lock() {
	spins := 0
	for !s.held.CompareAndSwap(false, true) {
		spins++
		if spins > 64 {
			runtime.Gosched()
			spins = 0
		}
	}
}

// Unlock releases the lock. The caller must hold it.
func (s *Spinlock) Unlock() {
	s.held.Store(false)
}
