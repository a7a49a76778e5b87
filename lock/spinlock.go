// Package lock provides the spinlock and counting semaphore the native
// component creates through its OS services layer.
package lock

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield bounds busy-waiting before the acquiring goroutine yields.
const spinsBeforeYield = 64

var yieldFn = runtime.Gosched

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state atomic.Uint32
}

// Acquire blocks until the lock can be acquired. It returns the saved flags
// word the native side hands back on release; no interrupt state is saved,
// so it is always 0. Re-acquiring a held lock from the same task deadlocks.
func (l *Spinlock) Acquire() uint32 {
	for {
		for i := 0; i < spinsBeforeYield; i++ {
			if l.state.CompareAndSwap(0, 1) {
				return 0
			}
		}
		yieldFn()
	}
}

// TryAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release relinquishes a held lock. Calling Release while the lock is free
// has no effect.
func (l *Spinlock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently held.
func (l *Spinlock) Held() bool {
	return l.state.Load() != 0
}
