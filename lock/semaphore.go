package lock

import (
	"sync/atomic"
	"time"

	"github.com/wippyai/acpica-host/status"
)

// Timeouts understood by Semaphore.Wait, in milliseconds.
const (
	NoWait      uint16 = 0
	WaitForever uint16 = 0xFFFF
)

var nowFn = time.Now

// Semaphore is a counting semaphore with a fixed maximum.
type Semaphore struct {
	units atomic.Uint32
	max   uint32
}

// NewSemaphore creates a semaphore holding initial of max units.
func NewSemaphore(max, initial uint32) (*Semaphore, error) {
	if initial > max {
		return nil, status.ErrBadParameter
	}
	s := &Semaphore{max: max}
	s.units.Store(initial)
	return s, nil
}

// Max returns the maximum number of units.
func (s *Semaphore) Max() uint32 { return s.max }

// Units returns the number of units currently available.
func (s *Semaphore) Units() uint32 { return s.units.Load() }

// tryTake removes units if enough are available, without partial effect.
func (s *Semaphore) tryTake(units uint32) bool {
	for {
		cur := s.units.Load()
		if cur < units {
			return false
		}
		if s.units.CompareAndSwap(cur, cur-units) {
			return true
		}
	}
}

// Wait takes units from the semaphore. A timeout of NoWait fails with AE_TIME
// unless the units are available immediately, WaitForever spins until they
// are, and any other value is a deadline in milliseconds. Asking for more
// units than the maximum can never succeed and fails with AE_LIMIT.
func (s *Semaphore) Wait(units uint32, timeout uint16) error {
	if units > s.max {
		return status.ErrLimit
	}
	if s.tryTake(units) {
		return nil
	}
	if timeout == NoWait {
		return status.ErrTime
	}

	var deadline time.Time
	if timeout != WaitForever {
		deadline = nowFn().Add(time.Duration(timeout) * time.Millisecond)
	}
	for {
		for i := 0; i < spinsBeforeYield; i++ {
			if s.tryTake(units) {
				return nil
			}
		}
		if timeout != WaitForever && !nowFn().Before(deadline) {
			return status.ErrTime
		}
		yieldFn()
	}
}

// Signal returns units to the semaphore. It fails with AE_LIMIT, leaving the
// count unchanged, if the result would exceed the maximum.
func (s *Semaphore) Signal(units uint32) error {
	for {
		cur := s.units.Load()
		if uint64(cur)+uint64(units) > uint64(s.max) {
			return status.ErrLimit
		}
		if s.units.CompareAndSwap(cur, cur+units) {
			return nil
		}
	}
}
