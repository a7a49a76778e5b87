package acpica

import (
	"context"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
)

// RootObject is ACPI_ROOT_OBJECT, the handle of the namespace root.
const RootObject uint32 = 0xFFFFFFFF

// Name types accepted by GetName.
const (
	FullPathname uint32 = 0
	SingleName   uint32 = 1
)

// Initialization flags.
const (
	FullInitialization uint32 = 0x0000
	NoHardwareInit     uint32 = 0x0001
	NoACPIEnable       uint32 = 0x0002
	NoEventInit        uint32 = 0x0004
	NoHandlerInit      uint32 = 0x0008
	NoDeviceInit       uint32 = 0x0020
	NoObjectInit       uint32 = 0x0040
)

// Native is the exported API of a native subsystem instance. Pointer
// arguments address the instance's linear memory; results are raw status
// words. A trap in native code panics.
type Native interface {
	callback.Invoker

	InitializeSubsystem(ctx context.Context) status.Status
	InitializeTables(ctx context.Context, initialCount uint32, allowResize bool) status.Status
	LoadTables(ctx context.Context) status.Status
	EnableSubsystem(ctx context.Context, flags uint32) status.Status
	InitializeObjects(ctx context.Context, flags uint32) status.Status
	Terminate(ctx context.Context) status.Status

	// GetTable stores a pointer to the instance'th table with the 4-byte
	// signature at sig into out.
	GetTable(ctx context.Context, sig memory.Ptr, instance uint32, out memory.Ptr) status.Status
	PutTable(ctx context.Context, table memory.Ptr)

	// GetName fills the buffer descriptor buf.
	GetName(ctx context.Context, handle, nameType uint32, buf memory.Ptr) status.Status
	// GetObjectInfo stores a pointer to a heap allocated ACPI_DEVICE_INFO
	// into out. The caller frees it.
	GetObjectInfo(ctx context.Context, handle uint32, out memory.Ptr) status.Status
	// GetIRQRoutingTable fills the buffer descriptor buf with _PRT records.
	GetIRQRoutingTable(ctx context.Context, handle uint32, buf memory.Ptr) status.Status
	// EvaluateObject evaluates path relative to handle. args may be 0; ret
	// is a buffer descriptor receiving an ACPI_OBJECT, or 0.
	EvaluateObject(ctx context.Context, handle uint32, path, args, ret memory.Ptr) status.Status

	// WalkNamespace walks objects of type typ below start, calling the
	// acpi_host walk imports with walkCtx.
	WalkNamespace(ctx context.Context, typ, start, maxDepth, walkCtx uint32, retval memory.Ptr) status.Status
	// GetDevices walks devices whose _HID or _CID equals the string at hid,
	// every device when hid is 0.
	GetDevices(ctx context.Context, hid memory.Ptr, walkCtx uint32, retval memory.Ptr) status.Status

	Close(ctx context.Context) error
}

// Loader creates a native instance served by d. It attaches d to the
// instance's memory before returning.
type Loader func(ctx context.Context, d *osl.Dispatcher) (Native, error)
