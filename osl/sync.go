package osl

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/handle"
	"github.com/wippyai/acpica-host/lock"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
)

// CreateLock creates a spinlock and stores its handle at out.
func (d *Dispatcher) CreateLock(out memory.Ptr) status.Status {
	if out == 0 {
		return code(status.BadParameter)
	}
	h, err := d.locks.Insert(&lock.Spinlock{})
	if err != nil {
		return code(status.NoMemory)
	}
	d.put32("AcpiOsCreateLock", out, uint32(h))
	return status.OK
}

// DeleteLock releases a spinlock handle.
func (d *Dispatcher) DeleteLock(h uint32) {
	if h == 0 {
		return
	}
	if _, err := d.locks.Remove(handle.Handle(h)); err != nil {
		panic(errors.InvalidHandle(errors.PhaseHost, "lock", h))
	}
}

func (d *Dispatcher) spinlock(op string, h uint32) *lock.Spinlock {
	l, ok := d.locks.Get(handle.Handle(h))
	if !ok {
		panic(errors.New(errors.PhaseHost, errors.KindInternal).
			Op(op).
			Value(h).
			Detail("lock handle 0x%x is not live", h).
			Build())
	}
	return l
}

// AcquireLock spins until the lock is held and returns the saved flags.
func (d *Dispatcher) AcquireLock(h uint32) uint32 {
	return d.spinlock("AcpiOsAcquireLock", h).Acquire()
}

// ReleaseLock releases a held lock.
func (d *Dispatcher) ReleaseLock(h uint32, _ uint32) {
	d.spinlock("AcpiOsReleaseLock", h).Release()
}

// CreateSemaphore creates a semaphore and stores its handle at out.
func (d *Dispatcher) CreateSemaphore(max, initial uint32, out memory.Ptr) status.Status {
	if out == 0 {
		return code(status.BadParameter)
	}
	s, err := lock.NewSemaphore(max, initial)
	if err != nil {
		return result("AcpiOsCreateSemaphore", err)
	}
	h, err := d.sems.Insert(s)
	if err != nil {
		return code(status.NoMemory)
	}
	d.put32("AcpiOsCreateSemaphore", out, uint32(h))
	return status.OK
}

func (d *Dispatcher) semaphore(op string, h uint32) (*lock.Semaphore, bool) {
	s, ok := d.sems.Get(handle.Handle(h))
	if !ok {
		Logger().Error("dead semaphore handle", zap.String("op", op), zap.Uint32("handle", h))
	}
	return s, ok
}

// DeleteSemaphore releases a semaphore handle.
func (d *Dispatcher) DeleteSemaphore(h uint32) status.Status {
	if _, err := d.sems.Remove(handle.Handle(h)); err != nil {
		Logger().Error("dead semaphore handle", zap.String("op", "AcpiOsDeleteSemaphore"), zap.Uint32("handle", h))
		return code(status.BadParameter)
	}
	return status.OK
}

// WaitSemaphore takes units, honouring the native timeout in milliseconds.
func (d *Dispatcher) WaitSemaphore(ctx context.Context, h, units uint32, timeout uint16) status.Status {
	s, ok := d.semaphore("AcpiOsWaitSemaphore", h)
	if !ok {
		return code(status.BadParameter)
	}
	if timeout != lock.NoWait {
		defer d.yield(ctx)()
	}
	return result("AcpiOsWaitSemaphore", s.Wait(units, timeout))
}

// SignalSemaphore returns units.
func (d *Dispatcher) SignalSemaphore(h, units uint32) status.Status {
	s, ok := d.semaphore("AcpiOsSignalSemaphore", h)
	if !ok {
		return code(status.BadParameter)
	}
	return result("AcpiOsSignalSemaphore", s.Signal(units))
}
