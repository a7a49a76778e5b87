// Package acpicatest provides a simulated native ACPI subsystem.
//
// Subsystem implements acpica.Native in Go. It keeps a namespace built from
// Device, Integer, String and Method objects and drives the osl.Dispatcher
// exactly as the native module does: tables are located through the root
// pointer and mapped through the host, overrides are offered to the host,
// namespace walks run through the registered walk callbacks, and buffers
// follow the auto-allocate protocol. No AML is interpreted.
package acpicatest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/wippyai/acpica-host/acpica"
	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// HeapBase is where the simulated module's heap starts.
const HeapBase = 0x1000

// Memory defaults, in pages.
const (
	DefaultPages    = 4
	DefaultMaxPages = 256
)

type stage int

const (
	stageNone stage = iota
	stageSubsystem
	stageTables
	stageLoaded
	stageEnabled
	stageReady
)

// loaded is a table installed in the root table list.
type loaded struct {
	sig    string
	ptr    memory.Ptr
	length uint32
	phys   uint64
	mapped bool
}

// Subsystem is a simulated native subsystem instance.
type Subsystem struct {
	// Pages and MaxPages size the linear memory.
	Pages    uint32
	MaxPages uint32

	d       *osl.Dispatcher
	devices []*Object
	root    *Object
	objects map[uint32]*Object
	tables  []*loaded
	fadt    *table.FADT

	mu       sync.Mutex
	handlers []func(ctx context.Context, arg uint32) uint32
	calls    []string
	stage    stage
	closed   bool

	lockH, semH, cacheH uint32
	sciFn, notifyFn     uint32
	sciIRQ              uint32
	sciInstalled        bool

	interrupts    atomic.Uint32
	notifications atomic.Uint32
}

var _ acpica.Native = (*Subsystem)(nil)

// New creates a subsystem whose DSDT defines devices below \_SB.
func New(devices ...*Object) *Subsystem {
	s := &Subsystem{devices: devices, objects: make(map[uint32]*Object)}
	s.sciFn = s.Handler(func(context.Context, uint32) uint32 {
		s.interrupts.Add(1)
		return uint32(callback.Handled)
	})
	s.notifyFn = s.Handler(func(context.Context, uint32) uint32 {
		s.notifications.Add(1)
		return 0
	})
	return s
}

// Loader returns an acpica.Loader attaching the dispatcher to fresh linear
// memory served by s.
func (s *Subsystem) Loader() acpica.Loader {
	return func(ctx context.Context, d *osl.Dispatcher) (acpica.Native, error) {
		pages, maxPages := s.Pages, s.MaxPages
		if pages == 0 {
			pages = DefaultPages
		}
		if maxPages == 0 {
			maxPages = DefaultMaxPages
		}
		s.d = d
		d.Attach(ctx, memory.NewFlat(pages, maxPages), HeapBase, s)
		return s, nil
	}
}

// Handler makes fn callable as a native function and returns its address.
func (s *Subsystem) Handler(fn func(ctx context.Context, arg uint32) uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
	return uint32(len(s.handlers))
}

// Dispatcher returns the dispatcher given to the loader.
func (s *Subsystem) Dispatcher() *osl.Dispatcher { return s.d }

// Calls returns the names of the native entry points called so far.
func (s *Subsystem) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Interrupts returns how many SCIs the subsystem handled.
func (s *Subsystem) Interrupts() uint32 { return s.interrupts.Load() }

// Notifications returns how many deferred notify handlers ran.
func (s *Subsystem) Notifications() uint32 { return s.notifications.Load() }

// SCI returns the interrupt line the SCI handler was installed on.
func (s *Subsystem) SCI() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sciIRQ, s.sciInstalled
}

// Closed reports whether Close was called.
func (s *Subsystem) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subsystem) enter(ctx context.Context, name string) (context.Context, func()) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
	return s.d.Native(ctx)
}

func (s *Subsystem) at(want stage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage >= want
}

func (s *Subsystem) advance(to stage) {
	s.mu.Lock()
	s.stage = to
	s.mu.Unlock()
}

func code(c status.ErrorCode) status.Status {
	return status.Status(status.Encode(c))
}

func (s *Subsystem) function(fn uint32) (func(context.Context, uint32) uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == 0 || int(fn) > len(s.handlers) {
		return nil, fmt.Errorf("call to unknown native function %d", fn)
	}
	return s.handlers[fn-1], nil
}

// CallHandler implements callback.Invoker.
func (s *Subsystem) CallHandler(ctx context.Context, fn, arg uint32) (uint32, error) {
	f, err := s.function(fn)
	if err != nil {
		return 0, err
	}
	ctx, leave := s.d.Native(ctx)
	defer leave()
	return f(ctx, arg), nil
}

// CallExec implements callback.Invoker.
func (s *Subsystem) CallExec(ctx context.Context, fn, arg uint32) error {
	_, err := s.CallHandler(ctx, fn, arg)
	return err
}

func (s *Subsystem) cstring(str string) memory.Ptr {
	p := s.d.Allocate(uint32(len(str) + 1))
	if p == 0 {
		panic("acpicatest: native heap exhausted")
	}
	if err := memory.WriteCString(s.d.Memory(), p, str); err != nil {
		panic(err)
	}
	return p
}

func (s *Subsystem) scratch(n uint32) memory.Ptr {
	p := s.d.AllocateZeroed(n)
	if p == 0 {
		panic("acpicatest: native heap exhausted")
	}
	return p
}

func (s *Subsystem) read32(p memory.Ptr) uint32 {
	v, err := s.d.Memory().ReadU32(p)
	if err != nil {
		panic(err)
	}
	return v
}

// printf formats through AcpiOsVprintf with a native va_list.
func (s *Subsystem) printf(ctx context.Context, format string, args ...uint32) {
	f := s.cstring(format)
	defer s.d.Free(f)
	va := s.scratch(uint32(4*len(args) + 4))
	defer s.d.Free(va)
	for i, a := range args {
		s.d.Memory().WriteU32(va+uint32(4*i), a)
	}
	s.d.Vprintf(ctx, f, va)
}
