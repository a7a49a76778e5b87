package osl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// Width is an access width in bits.
type Width uint32

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Mask returns the value mask for w.
func (w Width) Mask() uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return 1<<w - 1
}

// PCIID addresses a PCI function.
type PCIID struct {
	Segment  uint16
	Bus      uint16
	Device   uint16
	Function uint16
}

func (id PCIID) String() string {
	return fmt.Sprintf("%04x:%02x:%02x.%x", id.Segment, id.Bus, id.Device, id.Function)
}

// SignalKind is the kind of event AcpiOsSignal reports.
type SignalKind uint32

const (
	SignalFatal      SignalKind = 0
	SignalBreakpoint SignalKind = 1
)

func (k SignalKind) String() string {
	switch k {
	case SignalFatal:
		return "fatal"
	case SignalBreakpoint:
		return "breakpoint"
	}
	return fmt.Sprintf("signal(%d)", uint32(k))
}

// Signal is a decoded AcpiOsSignal request. Fatal events come from the AML
// Fatal operator; breakpoints carry a message.
type Signal struct {
	Kind     SignalKind
	Type     uint32
	Code     uint32
	Argument uint32
	Message  string
}

// Host supplies the kernel services the native subsystem needs. Every method
// receives the context of the native call it serves.
//
// Methods returning error report failure to the native side as a status
// code: *status.Error values map to their code, binding-layer errors map by
// kind, anything else is AE_ERROR.
type Host interface {
	Initialize(ctx context.Context) error
	Terminate(ctx context.Context) error

	// PredefinedOverride may replace the value of a predefined object.
	// A nil result keeps the original.
	PredefinedOverride(ctx context.Context, name string) (*string, error)
	// TableOverride may replace a table by value. A nil result keeps the
	// original.
	TableOverride(ctx context.Context, header table.Header, existing []byte) ([]byte, error)
	// PhysicalTableOverride may replace a table by physical address.
	PhysicalTableOverride(ctx context.Context, header table.Header) (addr uint64, length uint32, ok bool, err error)
	// RootPointer returns the physical address of the RSDP, or 0.
	RootPointer(ctx context.Context) uint64

	// MapMemory returns a window of length bytes of physical memory. The
	// window should alias the backing store: bytes the native side changed
	// are copied into it before UnmapMemory receives it back.
	MapMemory(ctx context.Context, phys uint64, length uint32) ([]byte, error)
	UnmapMemory(ctx context.Context, phys uint64, data []byte) error

	InstallInterruptHandler(ctx context.Context, irq uint32, isr callback.InterruptCallback) error
	RemoveInterruptHandler(ctx context.Context, irq uint32, fn uint32) error

	ThreadID(ctx context.Context) uint64
	Execute(ctx context.Context, work callback.ThreadCallback) error
	WaitEventsComplete(ctx context.Context)
	Sleep(ctx context.Context, ms uint64)
	Stall(ctx context.Context, us uint32)
	// Timer returns a monotonic time in 100 ns units.
	Timer(ctx context.Context) uint64

	ReadPort(ctx context.Context, port uint32, width Width) (uint32, error)
	WritePort(ctx context.Context, port uint32, value uint32, width Width) error
	ReadMemory(ctx context.Context, phys uint64, width Width) (uint64, error)
	WriteMemory(ctx context.Context, phys uint64, value uint64, width Width) error
	ReadPCI(ctx context.Context, id PCIID, reg uint32, width Width) (uint64, error)
	WritePCI(ctx context.Context, id PCIID, reg uint32, value uint64, width Width) error

	// Print receives diagnostic output as it is formatted.
	Print(ctx context.Context, s string)
	RedirectOutput(ctx context.Context, dest uint32)
	GetLine(ctx context.Context) (string, error)
	Signal(ctx context.Context, sig Signal) error
	EnterSleep(ctx context.Context, state uint8, regA, regB uint32) error
}

// Base is a Host whose lifecycle and override hooks do nothing and whose
// hardware access is unsupported. Embed it to implement a subset of Host.
type Base struct{}

var _ Host = Base{}

func unsupported(op string, fields ...zap.Field) error {
	Logger().Warn("host service not supported", append([]zap.Field{zap.String("op", op)}, fields...)...)
	return status.ErrSupport
}

func (Base) Initialize(context.Context) error { return nil }
func (Base) Terminate(context.Context) error  { return nil }

func (Base) PredefinedOverride(context.Context, string) (*string, error) { return nil, nil }

func (Base) TableOverride(context.Context, table.Header, []byte) ([]byte, error) { return nil, nil }

func (Base) PhysicalTableOverride(context.Context, table.Header) (uint64, uint32, bool, error) {
	return 0, 0, false, nil
}

func (Base) RootPointer(context.Context) uint64 {
	Logger().Warn("host has no root pointer")
	return 0
}

func (Base) MapMemory(_ context.Context, phys uint64, length uint32) ([]byte, error) {
	return nil, unsupported("map_memory", zap.Uint64("phys", phys), zap.Uint32("length", length))
}

func (Base) UnmapMemory(_ context.Context, phys uint64, _ []byte) error {
	return unsupported("unmap_memory", zap.Uint64("phys", phys))
}

func (Base) InstallInterruptHandler(_ context.Context, irq uint32, _ callback.InterruptCallback) error {
	return unsupported("install_interrupt_handler", zap.Uint32("irq", irq))
}

func (Base) RemoveInterruptHandler(_ context.Context, irq uint32, _ uint32) error {
	return unsupported("remove_interrupt_handler", zap.Uint32("irq", irq))
}

func (Base) ThreadID(context.Context) uint64 { return 1 }

func (Base) Execute(_ context.Context, work callback.ThreadCallback) error {
	return unsupported("execute", zap.Stringer("type", work.Kind()))
}

func (Base) WaitEventsComplete(context.Context) {}

func (Base) Sleep(context.Context, uint64) {}

func (Base) Stall(context.Context, uint32) {}

func (Base) Timer(context.Context) uint64 { return 0 }

func (Base) ReadPort(_ context.Context, port uint32, width Width) (uint32, error) {
	return 0, unsupported("read_port", zap.Uint32("port", port), zap.Uint32("width", uint32(width)))
}

func (Base) WritePort(_ context.Context, port uint32, _ uint32, width Width) error {
	return unsupported("write_port", zap.Uint32("port", port), zap.Uint32("width", uint32(width)))
}

func (Base) ReadMemory(_ context.Context, phys uint64, width Width) (uint64, error) {
	return 0, unsupported("read_memory", zap.Uint64("phys", phys), zap.Uint32("width", uint32(width)))
}

func (Base) WriteMemory(_ context.Context, phys uint64, _ uint64, width Width) error {
	return unsupported("write_memory", zap.Uint64("phys", phys), zap.Uint32("width", uint32(width)))
}

func (Base) ReadPCI(_ context.Context, id PCIID, reg uint32, _ Width) (uint64, error) {
	return 0, unsupported("read_pci", zap.Stringer("pci", id), zap.Uint32("reg", reg))
}

func (Base) WritePCI(_ context.Context, id PCIID, reg uint32, _ uint64, _ Width) error {
	return unsupported("write_pci", zap.Stringer("pci", id), zap.Uint32("reg", reg))
}

func (Base) Print(context.Context, string) {}

func (Base) RedirectOutput(context.Context, uint32) {}

func (Base) GetLine(context.Context) (string, error) {
	return "", unsupported("get_line")
}

func (Base) Signal(_ context.Context, sig Signal) error {
	Logger().Warn("native signal", zap.Stringer("kind", sig.Kind), zap.String("message", sig.Message))
	return nil
}

func (Base) EnterSleep(context.Context, uint8, uint32, uint32) error { return nil }
