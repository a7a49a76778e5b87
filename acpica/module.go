package acpica

import (
	"context"
	stderrors "errors"
	"os"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
)

// Export names the native module must provide.
const (
	exportMemory   = "memory"
	exportHeapBase = "__heap_base"
	exportInit     = "_initialize"

	fnInitializeSubsystem = "AcpiInitializeSubsystem"
	fnInitializeTables    = "AcpiInitializeTables"
	fnLoadTables          = "AcpiLoadTables"
	fnEnableSubsystem     = "AcpiEnableSubsystem"
	fnInitializeObjects   = "AcpiInitializeObjects"
	fnTerminate           = "AcpiTerminate"
	fnGetTable            = "AcpiGetTable"
	fnPutTable            = "AcpiPutTable"
	fnGetName             = "AcpiGetName"
	fnGetObjectInfo       = "AcpiGetObjectInfo"
	fnGetIRQRoutingTable  = "AcpiGetIrqRoutingTable"
	fnEvaluateObject      = "AcpiEvaluateObject"
	fnWalkNamespace       = "AcpiHostWalkNamespace"
	fnGetDevices          = "AcpiHostGetDevices"
	fnCallHandler         = "AcpiHostCallHandler"
	fnCallExec            = "AcpiHostCallExec"
)

// RequiredExports lists the functions a native module must export.
var RequiredExports = []string{
	fnInitializeSubsystem, fnInitializeTables, fnLoadTables, fnEnableSubsystem,
	fnInitializeObjects, fnTerminate, fnGetTable, fnPutTable, fnGetName,
	fnGetObjectInfo, fnGetIRQRoutingTable, fnEvaluateObject, fnWalkNamespace,
	fnGetDevices, fnCallHandler, fnCallExec,
}

var _ Native = (*Module)(nil)

// Module is a native subsystem instance running in wazero.
type Module struct {
	runtime wazero.Runtime
	mod     api.Module
	d       *osl.Dispatcher
}

// Load returns a Loader instantiating wasm with cfg.
func Load(wasm []byte, cfg *Config) Loader {
	return func(ctx context.Context, d *osl.Dispatcher) (Native, error) {
		return Instantiate(ctx, wasm, d, cfg)
	}
}

// LoadFile returns a Loader instantiating the module stored at path.
func LoadFile(path string, cfg *Config) Loader {
	return func(ctx context.Context, d *osl.Dispatcher) (Native, error) {
		wasm, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Load("read native module", err)
		}
		return Instantiate(ctx, wasm, d, cfg)
	}
}

// Instantiate compiles and instantiates wasm in a fresh runtime, serving its
// imports with d, and attaches d to the instance.
func Instantiate(ctx context.Context, wasm []byte, d *osl.Dispatcher, cfg *Config) (*Module, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	m, err := instantiate(ctx, r, wasm, d, cfg)
	if err != nil {
		r.Close(ctx)
		return nil, err
	}
	return m, nil
}

func instantiate(ctx context.Context, r wazero.Runtime, wasm []byte, d *osl.Dispatcher, cfg *Config) (*Module, error) {
	if cfg != nil && cfg.EnableWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			return nil, errors.Instantiation(err)
		}
	}
	if err := d.Instantiate(ctx, r); err != nil {
		return nil, err
	}

	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile native module", err)
	}
	if err := checkExports(cfg.moduleName(), compiled); err != nil {
		return nil, err
	}

	mod, err := r.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName(cfg.moduleName()).WithStartFunctions())
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	g := mod.ExportedGlobal(exportHeapBase)
	if g == nil {
		return nil, &errors.MissingExportsError{Module: cfg.moduleName(), Exports: []string{exportHeapBase}}
	}
	heapBase := api.DecodeU32(g.Get())

	m := &Module{runtime: r, mod: mod, d: d}
	d.Attach(ctx, memory.Wrap(mod.Memory()), heapBase, m)

	if mod.ExportedFunction(exportInit) != nil {
		if _, err := m.call(ctx, exportInit); err != nil {
			return nil, errors.Instantiation(err)
		}
	}

	Logger().Info("native module loaded",
		zap.String("module", cfg.moduleName()),
		zap.Uint32("heap_base", heapBase),
		zap.Uint32("memory_size", mod.Memory().Size()))
	return m, nil
}

func checkExports(name string, compiled wazero.CompiledModule) error {
	var missing []string
	if _, ok := compiled.ExportedMemories()[exportMemory]; !ok {
		missing = append(missing, exportMemory)
	}
	fns := compiled.ExportedFunctions()
	for _, fn := range RequiredExports {
		if _, ok := fns[fn]; !ok {
			missing = append(missing, fn)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &errors.MissingExportsError{Module: name, Exports: missing}
	}
	return nil
}

// call runs a native export behind the execution gate. A panic raised by
// the binding layer while native code was running is raised again here.
func (m *Module) call(ctx context.Context, name string, args ...uint64) (uint32, error) {
	ctx, leave := m.d.Native(ctx)
	defer leave()

	res, err := m.mod.ExportedFunction(name).Call(ctx, args...)
	if err != nil {
		var fatal *errors.Error
		if stderrors.As(err, &fatal) {
			panic(fatal)
		}
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return api.DecodeU32(res[0]), nil
}

// mustCall is call for API entry points, where a trap is fatal.
func (m *Module) mustCall(ctx context.Context, name string, args ...uint64) uint32 {
	v, err := m.call(ctx, name, args...)
	if err != nil {
		panic(errors.New(errors.PhaseHost, errors.KindInternal).
			Op(name).
			Cause(err).
			Detail("native code trapped").
			Build())
	}
	return v
}

func u32s(args ...uint32) []uint64 {
	out := make([]uint64, len(args))
	for i, a := range args {
		out[i] = api.EncodeU32(a)
	}
	return out
}

func boolean(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// CallHandler runs a native handler with its context word.
func (m *Module) CallHandler(ctx context.Context, fn, arg uint32) (uint32, error) {
	return m.call(ctx, fnCallHandler, u32s(fn, arg)...)
}

// CallExec runs deferred native work.
func (m *Module) CallExec(ctx context.Context, fn, arg uint32) error {
	_, err := m.call(ctx, fnCallExec, u32s(fn, arg)...)
	return err
}

func (m *Module) InitializeSubsystem(ctx context.Context) status.Status {
	return status.Status(m.mustCall(ctx, fnInitializeSubsystem))
}

func (m *Module) InitializeTables(ctx context.Context, initialCount uint32, allowResize bool) status.Status {
	// A null initial table array makes the subsystem allocate its own.
	return status.Status(m.mustCall(ctx, fnInitializeTables, u32s(0, initialCount, boolean(allowResize))...))
}

func (m *Module) LoadTables(ctx context.Context) status.Status {
	return status.Status(m.mustCall(ctx, fnLoadTables))
}

func (m *Module) EnableSubsystem(ctx context.Context, flags uint32) status.Status {
	return status.Status(m.mustCall(ctx, fnEnableSubsystem, u32s(flags)...))
}

func (m *Module) InitializeObjects(ctx context.Context, flags uint32) status.Status {
	return status.Status(m.mustCall(ctx, fnInitializeObjects, u32s(flags)...))
}

func (m *Module) Terminate(ctx context.Context) status.Status {
	return status.Status(m.mustCall(ctx, fnTerminate))
}

func (m *Module) GetTable(ctx context.Context, sig memory.Ptr, instance uint32, out memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnGetTable, u32s(sig, instance, out)...))
}

func (m *Module) PutTable(ctx context.Context, table memory.Ptr) {
	m.mustCall(ctx, fnPutTable, u32s(table)...)
}

func (m *Module) GetName(ctx context.Context, handle, nameType uint32, buf memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnGetName, u32s(handle, nameType, buf)...))
}

func (m *Module) GetObjectInfo(ctx context.Context, handle uint32, out memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnGetObjectInfo, u32s(handle, out)...))
}

func (m *Module) GetIRQRoutingTable(ctx context.Context, handle uint32, buf memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnGetIRQRoutingTable, u32s(handle, buf)...))
}

func (m *Module) EvaluateObject(ctx context.Context, handle uint32, path, args, ret memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnEvaluateObject, u32s(handle, path, args, ret)...))
}

func (m *Module) WalkNamespace(ctx context.Context, typ, start, maxDepth, walkCtx uint32, retval memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnWalkNamespace, u32s(typ, start, maxDepth, walkCtx, retval)...))
}

func (m *Module) GetDevices(ctx context.Context, hid memory.Ptr, walkCtx uint32, retval memory.Ptr) status.Status {
	return status.Status(m.mustCall(ctx, fnGetDevices, u32s(hid, walkCtx, retval)...))
}

// Close tears down the runtime and every module in it.
func (m *Module) Close(ctx context.Context) error {
	return m.runtime.Close(ctx)
}
