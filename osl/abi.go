package osl

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/status"
)

// Import modules the native module links against.
const (
	ModuleOSL  = "acpi_osl"
	ModuleHost = "acpi_host"
)

// hostFunc is one import. Pointers, sizes, handles and UINT32 are i32;
// physical addresses, UINT64 and thread IDs are i64.
type hostFunc struct {
	name    string
	params  []api.ValueType
	results []api.ValueType
	fn      api.GoModuleFunc
}

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

func types(t ...api.ValueType) []api.ValueType { return t }

func u32(v uint64) uint32 { return api.DecodeU32(v) }

func ret(s status.Status) uint64 { return api.EncodeU32(uint32(s)) }

func boolean(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (d *Dispatcher) oslImports() []hostFunc {
	return []hostFunc{
		{"AcpiOsInitialize", nil, types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.Initialize(ctx))
		}},
		{"AcpiOsTerminate", nil, types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.Terminate(ctx))
		}},
		{"AcpiOsGetRootPointer", nil, types(i64), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = d.GetRootPointer(ctx)
		}},
		{"AcpiOsPredefinedOverride", types(i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.PredefinedOverride(ctx, u32(s[0]), u32(s[1])))
		}},
		{"AcpiOsTableOverride", types(i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.TableOverride(ctx, u32(s[0]), u32(s[1])))
		}},
		{"AcpiOsPhysicalTableOverride", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.PhysicalTableOverride(ctx, u32(s[0]), u32(s[1]), u32(s[2])))
		}},

		{"AcpiOsCreateLock", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.CreateLock(u32(s[0])))
		}},
		{"AcpiOsDeleteLock", types(i32), nil, func(_ context.Context, _ api.Module, s []uint64) {
			d.DeleteLock(u32(s[0]))
		}},
		{"AcpiOsAcquireLock", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = api.EncodeU32(d.AcquireLock(u32(s[0])))
		}},
		{"AcpiOsReleaseLock", types(i32, i32), nil, func(_ context.Context, _ api.Module, s []uint64) {
			d.ReleaseLock(u32(s[0]), u32(s[1]))
		}},

		{"AcpiOsCreateSemaphore", types(i32, i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.CreateSemaphore(u32(s[0]), u32(s[1]), u32(s[2])))
		}},
		{"AcpiOsDeleteSemaphore", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.DeleteSemaphore(u32(s[0])))
		}},
		{"AcpiOsWaitSemaphore", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.WaitSemaphore(ctx, u32(s[0]), u32(s[1]), uint16(u32(s[2]))))
		}},
		{"AcpiOsSignalSemaphore", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.SignalSemaphore(u32(s[0]), u32(s[1])))
		}},

		{"AcpiOsAllocate", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = api.EncodeU32(d.Allocate(u32(s[0])))
		}},
		{"AcpiOsAllocateZeroed", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = api.EncodeU32(d.AllocateZeroed(u32(s[0])))
		}},
		{"AcpiOsFree", types(i32), nil, func(_ context.Context, _ api.Module, s []uint64) {
			d.Free(u32(s[0]))
		}},
		{"AcpiOsMapMemory", types(i64, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = api.EncodeU32(d.MapMemory(ctx, s[0], u32(s[1])))
		}},
		{"AcpiOsUnmapMemory", types(i32, i32), nil, func(ctx context.Context, _ api.Module, s []uint64) {
			d.UnmapMemory(ctx, u32(s[0]), u32(s[1]))
		}},
		{"AcpiOsGetPhysicalAddress", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.GetPhysicalAddress(u32(s[0]), u32(s[1])))
		}},
		{"AcpiOsReadable", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = boolean(d.Readable(u32(s[0]), u32(s[1])))
		}},
		{"AcpiOsWritable", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = boolean(d.Writable(u32(s[0]), u32(s[1])))
		}},

		{"AcpiOsCreateCache", types(i32, i32, i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.CreateCache(u32(s[0]), uint16(u32(s[1])), uint16(u32(s[2])), u32(s[3])))
		}},
		{"AcpiOsDeleteCache", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.DeleteCache(u32(s[0])))
		}},
		{"AcpiOsPurgeCache", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.PurgeCache(u32(s[0])))
		}},
		{"AcpiOsAcquireObject", types(i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = api.EncodeU32(d.AcquireObject(u32(s[0])))
		}},
		{"AcpiOsReleaseObject", types(i32, i32), types(i32), func(_ context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.ReleaseObject(u32(s[0]), u32(s[1])))
		}},

		{"AcpiOsInstallInterruptHandler", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.InstallInterruptHandler(ctx, u32(s[0]), u32(s[1]), u32(s[2])))
		}},
		{"AcpiOsRemoveInterruptHandler", types(i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.RemoveInterruptHandler(ctx, u32(s[0]), u32(s[1])))
		}},

		{"AcpiOsGetThreadId", nil, types(i64), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = d.GetThreadID(ctx)
		}},
		{"AcpiOsExecute", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.Execute(ctx, u32(s[0]), u32(s[1]), u32(s[2])))
		}},
		{"AcpiOsWaitEventsComplete", nil, nil, func(ctx context.Context, _ api.Module, _ []uint64) {
			d.WaitEventsComplete(ctx)
		}},
		{"AcpiOsSleep", types(i64), nil, func(ctx context.Context, _ api.Module, s []uint64) {
			d.Sleep(ctx, s[0])
		}},
		{"AcpiOsStall", types(i32), nil, func(ctx context.Context, _ api.Module, s []uint64) {
			d.Stall(ctx, u32(s[0]))
		}},
		{"AcpiOsGetTimer", nil, types(i64), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = d.GetTimer(ctx)
		}},

		{"AcpiOsReadPort", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.ReadPort(ctx, u32(s[0]), u32(s[1]), Width(u32(s[2]))))
		}},
		{"AcpiOsWritePort", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.WritePort(ctx, u32(s[0]), u32(s[1]), Width(u32(s[2]))))
		}},
		{"AcpiOsReadMemory", types(i64, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.ReadMemory(ctx, s[0], u32(s[1]), Width(u32(s[2]))))
		}},
		{"AcpiOsWriteMemory", types(i64, i64, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.WriteMemory(ctx, s[0], s[1], Width(u32(s[2]))))
		}},
		{"AcpiOsReadPciConfiguration", types(i32, i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.ReadPCIConfiguration(ctx, u32(s[0]), u32(s[1]), u32(s[2]), Width(u32(s[3]))))
		}},
		{"AcpiOsWritePciConfiguration", types(i32, i32, i64, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.WritePCIConfiguration(ctx, u32(s[0]), u32(s[1]), s[2], Width(u32(s[3]))))
		}},

		{"AcpiOsSignal", types(i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.Signal(ctx, u32(s[0]), u32(s[1])))
		}},
		{"AcpiOsEnterSleep", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.EnterSleep(ctx, uint8(u32(s[0])), u32(s[1]), u32(s[2])))
		}},
		{"AcpiOsVprintf", types(i32, i32), nil, func(ctx context.Context, _ api.Module, s []uint64) {
			d.Vprintf(ctx, u32(s[0]), u32(s[1]))
		}},
		{"AcpiOsRedirectOutput", types(i32), nil, func(ctx context.Context, _ api.Module, s []uint64) {
			d.RedirectOutput(ctx, u32(s[0]))
		}},
		{"AcpiOsGetLine", types(i32, i32, i32), types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.GetLine(ctx, u32(s[0]), u32(s[1]), u32(s[2])))
		}},
	}
}

func (d *Dispatcher) hostImports() []hostFunc {
	walk := types(i32, i32, i32, i32)
	return []hostFunc{
		{"walk_descending", walk, types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.WalkDescending(ctx, u32(s[0]), u32(s[1]), u32(s[2]), u32(s[3])))
		}},
		{"walk_ascending", walk, types(i32), func(ctx context.Context, _ api.Module, s []uint64) {
			s[0] = ret(d.WalkAscending(ctx, u32(s[0]), u32(s[1]), u32(s[2]), u32(s[3])))
		}},
	}
}

// ImportNames lists every import the dispatcher provides, per module.
func (d *Dispatcher) ImportNames() map[string][]string {
	out := make(map[string][]string, 2)
	for _, f := range d.oslImports() {
		out[ModuleOSL] = append(out[ModuleOSL], f.name)
	}
	for _, f := range d.hostImports() {
		out[ModuleHost] = append(out[ModuleHost], f.name)
	}
	return out
}

// Instantiate registers the acpi_osl and acpi_host modules in r. It must run
// before the native module is instantiated.
func (d *Dispatcher) Instantiate(ctx context.Context, r wazero.Runtime) error {
	modules := []struct {
		name  string
		funcs []hostFunc
	}{
		{ModuleOSL, d.oslImports()},
		{ModuleHost, d.hostImports()},
	}
	for _, m := range modules {
		builder := r.NewHostModuleBuilder(m.name)
		for _, f := range m.funcs {
			builder.NewFunctionBuilder().
				WithGoModuleFunction(f.fn, f.params, f.results).
				Export(f.name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.New(errors.PhaseLoad, errors.KindInstantiation).
				Op(m.name).
				Cause(err).
				Detail("instantiate host module").
				Build()
		}
	}
	return nil
}
