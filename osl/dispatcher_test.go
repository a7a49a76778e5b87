package osl

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

const testHeapBase = 4096

type nopInvoker struct{}

func (nopInvoker) CallHandler(context.Context, uint32, uint32) (uint32, error) { return 0, nil }
func (nopInvoker) CallExec(context.Context, uint32, uint32) error              { return nil }

// recordingHost captures what the dispatcher forwards.
type recordingHost struct {
	Base

	mu      sync.Mutex
	printed strings.Builder
	phys    map[uint64][]byte
	unmaps  []uint64
	ports   map[uint32]uint32
	pci     map[PCIID]uint64
	line    string
	signals []Signal
	isrs    map[uint32]callback.InterruptCallback
	work    []callback.ThreadCallback

	timer func(ctx context.Context) uint64
}

func newRecordingHost() *recordingHost {
	return &recordingHost{
		phys:  make(map[uint64][]byte),
		ports: make(map[uint32]uint32),
		pci:   make(map[PCIID]uint64),
		isrs:  make(map[uint32]callback.InterruptCallback),
	}
}

func (h *recordingHost) Print(_ context.Context, s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.printed.WriteString(s)
}

func (h *recordingHost) MapMemory(_ context.Context, phys uint64, length uint32) ([]byte, error) {
	buf, ok := h.phys[phys]
	if !ok {
		return nil, status.ErrNotExist
	}
	return buf[:length], nil
}

func (h *recordingHost) UnmapMemory(_ context.Context, phys uint64, _ []byte) error {
	h.unmaps = append(h.unmaps, phys)
	return nil
}

func (h *recordingHost) ReadPort(_ context.Context, port uint32, _ Width) (uint32, error) {
	return h.ports[port], nil
}

func (h *recordingHost) WritePort(_ context.Context, port, value uint32, _ Width) error {
	h.ports[port] = value
	return nil
}

func (h *recordingHost) ReadPCI(_ context.Context, id PCIID, reg uint32, _ Width) (uint64, error) {
	return h.pci[id] + uint64(reg), nil
}

func (h *recordingHost) GetLine(context.Context) (string, error) { return h.line, nil }

func (h *recordingHost) Signal(_ context.Context, sig Signal) error {
	h.signals = append(h.signals, sig)
	return nil
}

func (h *recordingHost) InstallInterruptHandler(_ context.Context, irq uint32, isr callback.InterruptCallback) error {
	h.isrs[irq] = isr
	return nil
}

func (h *recordingHost) Execute(_ context.Context, work callback.ThreadCallback) error {
	h.work = append(h.work, work)
	return nil
}

func (h *recordingHost) Timer(ctx context.Context) uint64 {
	if h.timer != nil {
		return h.timer(ctx)
	}
	return 42
}

func (h *recordingHost) TableOverride(_ context.Context, hdr table.Header, _ []byte) ([]byte, error) {
	if hdr.Sig() == "SSDT" {
		return table.BuildSDT("SSDT", 2, []byte{0xA4, 0x01}), nil
	}
	return nil, nil
}

func (h *recordingHost) PredefinedOverride(_ context.Context, name string) (*string, error) {
	if name == "_OS_" {
		v := "Wippy"
		return &v, nil
	}
	return nil, nil
}

func newDispatcher(t *testing.T, host Host) (*Dispatcher, *memory.Flat) {
	t.Helper()
	mem := memory.NewFlat(2, 16)
	d := New(host)
	d.Attach(context.Background(), mem, testHeapBase, nopInvoker{})
	t.Cleanup(d.Close)
	return d, mem
}

// scratch allocates n bytes of native memory for test arguments.
func scratch(t *testing.T, d *Dispatcher, n uint32) memory.Ptr {
	t.Helper()
	p := d.AllocateZeroed(n)
	if p == 0 {
		t.Fatal("scratch allocation failed")
	}
	return p
}

func cstring(t *testing.T, d *Dispatcher, s string) memory.Ptr {
	t.Helper()
	p := scratch(t, d, uint32(len(s)+1))
	if err := memory.WriteCString(d.Memory(), p, s); err != nil {
		t.Fatal(err)
	}
	return p
}

func expectFatal(t *testing.T, kind errors.Kind) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Fatal("expected panic")
	}
	err, ok := r.(error)
	if !ok {
		t.Fatalf("recovered %v", r)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != kind {
		t.Fatalf("recovered %v, want kind %s", err, kind)
	}
}

func TestNew_NilHost(t *testing.T) {
	d := New(nil)
	if _, ok := d.Host().(Base); !ok {
		t.Fatalf("host = %T, want Base", d.Host())
	}
}

func TestReentrancyPanics(t *testing.T) {
	host := newRecordingHost()
	d, _ := newDispatcher(t, host)
	host.timer = func(ctx context.Context) uint64 {
		return d.GetTimer(ctx)
	}

	defer expectFatal(t, errors.KindInternal)
	d.GetTimer(context.Background())
}

func TestHostCallsSerialized(t *testing.T) {
	host := newRecordingHost()
	var inside, peak int
	var mu sync.Mutex
	host.timer = func(context.Context) uint64 {
		mu.Lock()
		inside++
		if inside > peak {
			peak = inside
		}
		mu.Unlock()
		for range 100 {
		}
		mu.Lock()
		inside--
		mu.Unlock()
		return 0
	}
	d, _ := newDispatcher(t, host)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				d.GetTimer(context.Background())
			}
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("%d host calls overlapped", peak)
	}
}

func TestInstantiate(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	d := New(nil)
	if err := d.Instantiate(ctx, r); err != nil {
		t.Fatal(err)
	}

	for module, names := range d.ImportNames() {
		mod := r.Module(module)
		if mod == nil {
			t.Fatalf("module %s not instantiated", module)
		}
		defs := mod.ExportedFunctionDefinitions()
		if len(defs) != len(names) {
			t.Errorf("%s exports %d functions, want %d", module, len(defs), len(names))
		}
		for _, name := range names {
			if _, ok := defs[name]; !ok {
				t.Errorf("%s does not export %s", module, name)
			}
		}
	}
	if got := len(d.ImportNames()[ModuleOSL]); got != 46 {
		t.Errorf("acpi_osl has %d imports, want 46", got)
	}
}

func TestBaseUnsupported(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	old := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(old)

	d, _ := newDispatcher(t, Base{})
	out := scratch(t, d, 4)
	if got := d.ReadPort(context.Background(), 0x60, out, Width8); got != code(status.Support) {
		t.Fatalf("ReadPort = %v, want AE_SUPPORT", got)
	}
	if logs.FilterMessage("host service not supported").Len() != 1 {
		t.Fatalf("logs = %v", logs.All())
	}
	if d.MapMemory(context.Background(), 0x1000, 16) != 0 {
		t.Error("MapMemory succeeded on Base")
	}
}
