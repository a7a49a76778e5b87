package osl

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/handle"
	"github.com/wippyai/acpica-host/heap"
	"github.com/wippyai/acpica-host/lock"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/slab"
	"github.com/wippyai/acpica-host/status"
)

// Dispatcher serves the native subsystem's OS services layer imports.
type Dispatcher struct {
	host Host
	mu   sync.Mutex
	gate *gate

	base  context.Context
	mem   memory.Memory
	alloc *heap.Allocator
	inv   callback.Invoker

	locks  *handle.Table[*lock.Spinlock]
	sems   *handle.Table[*lock.Semaphore]
	caches *handle.Table[*slab.Cache]
	walks  *handle.Table[WalkFunc]

	mapMu    sync.Mutex
	mappings map[memory.Ptr]*mapping
}

// New creates a dispatcher forwarding kernel services to host. The
// dispatcher is unusable until Attach is called.
func New(host Host) *Dispatcher {
	if host == nil {
		host = Base{}
	}
	return &Dispatcher{
		host:     host,
		gate:     newGate(),
		locks:    handle.New[*lock.Spinlock](),
		sems:     handle.New[*lock.Semaphore](),
		caches:   handle.New[*slab.Cache](),
		walks:    handle.New[WalkFunc](),
		mappings: make(map[memory.Ptr]*mapping),
	}
}

// Attach binds the dispatcher to an instantiated native module. Memory above
// heapBase is handed to the allocator. base is the context deferred work
// runs under.
func (d *Dispatcher) Attach(base context.Context, mem memory.Memory, heapBase uint32, inv callback.Invoker) {
	d.base = base
	d.mem = mem
	d.alloc = heap.NewAllocator(heap.NewArena(mem, heapBase))
	d.inv = inv
	Logger().Debug("dispatcher attached",
		zap.Uint32("heap_base", heapBase),
		zap.Uint32("memory_size", mem.Size()))
}

// Host returns the host services are forwarded to.
func (d *Dispatcher) Host() Host { return d.host }

// Memory returns the native module's linear memory.
func (d *Dispatcher) Memory() memory.Memory { return d.mem }

// Allocator returns the allocator serving AcpiOsAllocate.
func (d *Dispatcher) Allocator() *heap.Allocator { return d.alloc }

// Invoker returns the native function caller given to Attach.
func (d *Dispatcher) Invoker() callback.Invoker { return d.inv }

// Close releases every handle table. Handles issued before Close are dead.
func (d *Dispatcher) Close() {
	d.locks.Close()
	d.sems.Close()
	d.caches.Close()
	d.walks.Close()

	d.mapMu.Lock()
	clear(d.mappings)
	d.mapMu.Unlock()
}

type hostCallKey struct{}

// enter serializes a Host call. The returned context marks the call so that
// re-entry through it is caught.
func (d *Dispatcher) enter(ctx context.Context, op string) (context.Context, func()) {
	ctx = d.mark(ctx, op)
	d.mu.Lock()
	return ctx, d.mu.Unlock
}

// mark checks for re-entry without taking the mutex. It is used for Host
// calls that block, which must not stall every other native thread.
func (d *Dispatcher) mark(ctx context.Context, op string) context.Context {
	if serving, ok := ctx.Value(hostCallKey{}).(string); ok {
		errors.Fatal(errors.PhaseHost, op, "host re-entered the dispatcher while serving %s", serving)
	}
	return context.WithValue(ctx, hostCallKey{}, op)
}

func result(op string, err error) status.Status {
	if err == nil {
		return status.OK
	}
	s := status.Status(status.FromError(err))
	Logger().Debug("service failed", zap.String("op", op), zap.Stringer("status", status.ErrorCode(s)), zap.Error(err))
	return s
}

func code(c status.ErrorCode) status.Status {
	return status.Status(status.Encode(c))
}

func (d *Dispatcher) put32(op string, ptr memory.Ptr, v uint32) {
	if ptr == 0 {
		panic(errors.NilPointer(errors.PhaseHost, op, "output pointer"))
	}
	if err := d.mem.WriteU32(ptr, v); err != nil {
		errors.Fatal(errors.PhaseHost, op, "write output: %v", err)
	}
}

func (d *Dispatcher) put64(op string, ptr memory.Ptr, v uint64) {
	if ptr == 0 {
		panic(errors.NilPointer(errors.PhaseHost, op, "output pointer"))
	}
	if err := d.mem.WriteU64(ptr, v); err != nil {
		errors.Fatal(errors.PhaseHost, op, "write output: %v", err)
	}
}

func (d *Dispatcher) get32(op string, ptr memory.Ptr) uint32 {
	v, err := d.mem.ReadU32(ptr)
	if err != nil {
		errors.Fatal(errors.PhaseHost, op, "read input: %v", err)
	}
	return v
}

// copyIn places data in fresh native heap storage.
func (d *Dispatcher) copyIn(data []byte) (memory.Ptr, error) {
	ptr, err := d.alloc.Allocate(uint32(len(data)))
	if err != nil {
		return 0, err
	}
	if err := d.mem.Write(ptr, data); err != nil {
		d.alloc.Free(ptr)
		return 0, err
	}
	return ptr, nil
}

func checkWidth(op string, w Width, allow64 bool) {
	switch w {
	case Width8, Width16, Width32:
		return
	case Width64:
		if allow64 {
			return
		}
	}
	errors.Fatal(errors.PhaseHost, op, "invalid access width %d", uint32(w))
}
