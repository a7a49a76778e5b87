package hosted

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

type countingInvoker struct {
	result uint32
	calls  atomic.Int32
}

func (c *countingInvoker) CallHandler(context.Context, uint32, uint32) (uint32, error) {
	c.calls.Add(1)
	return c.result, nil
}

func (c *countingInvoker) CallExec(context.Context, uint32, uint32) error {
	c.calls.Add(1)
	return nil
}

func newHost(t *testing.T, cfg Config) *Host {
	t.Helper()
	h, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestPhysicalMemory(t *testing.T) {
	ctx := context.Background()
	h := newHost(t, Config{Images: []Image{
		{Base: 0x1000, Data: make([]byte, 0x100)},
		{Base: 0x4000, Data: make([]byte, 0x10)},
	}})

	if err := h.WriteMemory(ctx, 0x1010, 0x1122334455667788, osl.Width64); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	tests := []struct {
		phys  uint64
		width osl.Width
		want  uint64
	}{
		{0x1010, osl.Width8, 0x88},
		{0x1010, osl.Width16, 0x7788},
		{0x1010, osl.Width32, 0x55667788},
		{0x1010, osl.Width64, 0x1122334455667788},
	}
	for _, tt := range tests {
		got, err := h.ReadMemory(ctx, tt.phys, tt.width)
		if err != nil || got != tt.want {
			t.Errorf("ReadMemory(0x%x, %d) = 0x%x, %v; want 0x%x", tt.phys, tt.width, got, err, tt.want)
		}
	}

	w, err := h.MapMemory(ctx, 0x1010, 4)
	if err != nil {
		t.Fatalf("MapMemory: %v", err)
	}
	w = append([]byte(nil), w...)
	w[0] = 0xAA
	if err := h.UnmapMemory(ctx, 0x1010, w); err != nil {
		t.Fatalf("UnmapMemory: %v", err)
	}
	if got, _ := h.ReadMemory(ctx, 0x1010, osl.Width8); got != 0xAA {
		t.Errorf("write back: got 0x%x", got)
	}

	for _, phys := range []uint64{0x0, 0x10FE, 0x2000, 0x400C} {
		_, err := h.MapMemory(ctx, phys, 8)
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseHost, Kind: errors.KindOutOfBounds}) {
			t.Errorf("MapMemory(0x%x): got %v, want out of bounds", phys, err)
		}
	}
}

func TestOverlappingRegions(t *testing.T) {
	_, err := New(Config{Images: []Image{
		{Base: 0x1000, Data: make([]byte, 0x100)},
		{Base: 0x10F0, Data: make([]byte, 0x100)},
	}})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMemory, Kind: errors.KindInvalidInput}) {
		t.Fatalf("got %v, want invalid input", err)
	}
}

func TestOpenImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0o600); err != nil {
		t.Fatal(err)
	}
	h := newHost(t, Config{Images: []Image{{Path: path, Base: 0x8000}}})

	ctx := context.Background()
	got, err := h.ReadMemory(ctx, 0x8004, osl.Width32)
	if err != nil || got != 0x08070605 {
		t.Fatalf("ReadMemory = 0x%x, %v", got, err)
	}
	if err := h.WriteMemory(ctx, 0x8000, 0xFF, osl.Width8); err != nil {
		t.Fatalf("WriteMemory: %v", err)
	}
	data, _ := os.ReadFile(path)
	if data[0] != 1 {
		t.Errorf("write reached the image file")
	}

	empty := filepath.Join(t.TempDir(), "empty.bin")
	os.WriteFile(empty, nil, 0o600)
	if _, err := OpenImage(empty, 0); err == nil {
		t.Error("expected error for empty image")
	}
	if _, err := OpenImage(filepath.Join(t.TempDir(), "missing"), 0); err == nil {
		t.Error("expected error for missing image")
	}
}

func TestRootPointerScan(t *testing.T) {
	fw := NewFirmware(DefaultPlatform, table.BuildDSDT())
	h := newHost(t, fw.Config())
	if got := h.RootPointer(context.Background()); got != fw.RSDP() {
		t.Fatalf("RootPointer = 0x%x, want 0x%x", got, fw.RSDP())
	}

	h = newHost(t, Config{Images: []Image{{Base: biosAreaStart, Data: make([]byte, 0x100)}}})
	if got := h.RootPointer(context.Background()); got != 0 {
		t.Fatalf("RootPointer = 0x%x, want 0", got)
	}

	h = newHost(t, Config{RSDP: 0x1234})
	if got := h.RootPointer(context.Background()); got != 0x1234 {
		t.Fatalf("RootPointer = 0x%x, want configured", got)
	}
}

func TestFirmwareTables(t *testing.T) {
	fw := NewFirmware(DefaultPlatform, table.BuildDSDT(), table.BuildMADT(0xFEE00000, 1))
	h := newHost(t, fw.Config())
	ctx := context.Background()

	for _, sig := range []string{"DSDT", "FACP", "APIC", "XSDT"} {
		addr, ok := fw.Tables[sig]
		if !ok {
			t.Fatalf("%s not placed", sig)
		}
		hdr, err := h.MapMemory(ctx, addr, table.HeaderSize)
		if err != nil {
			t.Fatalf("map %s: %v", sig, err)
		}
		if string(hdr[:4]) != sig {
			t.Errorf("table at 0x%x is %q, want %s", addr, hdr[:4], sig)
		}
	}

	raw, _ := h.MapMemory(ctx, fw.Tables["FACP"], 276)
	fadt, err := table.ParseFADT(raw)
	if err != nil {
		t.Fatalf("ParseFADT: %v", err)
	}
	if fadt.DSDTAddress() != fw.Tables["DSDT"] || fadt.SCIInterrupt != 9 || fadt.PM1aControlBlock != 0x604 {
		t.Errorf("FADT = %+v", fadt)
	}
}

func TestACPIModeSwitch(t *testing.T) {
	fw := NewFirmware(DefaultPlatform, table.BuildDSDT())
	h := newHost(t, fw.Config())
	ctx := context.Background()

	read := func() uint32 {
		v, err := h.ReadPort(ctx, 0x604, osl.Width16)
		if err != nil {
			t.Fatalf("ReadPort: %v", err)
		}
		return v
	}
	if read()&PM1SCIEnable != 0 {
		t.Fatal("SCI_EN set before enable")
	}
	h.WritePort(ctx, 0xB2, 0xF0, osl.Width8)
	if read()&PM1SCIEnable == 0 || !fw.PM1.SCIEnabled() {
		t.Fatal("SCI_EN clear after enable")
	}

	var slept uint8
	fw.PM1.OnSleep = func(typ uint8) { slept = typ }
	h.WritePort(ctx, 0x604, PM1SCIEnable|5<<10|PM1SleepEnable, osl.Width16)
	if slept != 5 {
		t.Errorf("OnSleep got %d, want 5", slept)
	}
	if got := read(); got&PM1SleepEnable != 0 {
		t.Errorf("SLP_EN reads back set: 0x%x", got)
	}
	if got := fw.PM1.SleepRequests(); len(got) != 1 || got[0] != 5 {
		t.Errorf("SleepRequests = %v", got)
	}

	h.WritePort(ctx, 0xB2, 0xF1, osl.Width8)
	if fw.PM1.SCIEnabled() {
		t.Error("SCI_EN set after disable")
	}

	if v, _ := h.ReadPort(ctx, 0x80, osl.Width8); v != 0xFF {
		t.Errorf("unclaimed port read 0x%x, want 0xff", v)
	}
}

func TestPCIStore(t *testing.T) {
	present := osl.PCIID{Bus: 0, Device: 1}
	h := newHost(t, Config{PCI: map[osl.PCIID][]byte{present: {0x86, 0x80, 0x34, 0x12}}})
	ctx := context.Background()

	if v, err := h.ReadPCI(ctx, present, 0, osl.Width32); err != nil || v != 0x12348086 {
		t.Fatalf("ReadPCI = 0x%x, %v", v, err)
	}
	if err := h.WritePCI(ctx, present, 0x40, 0xBEEF, osl.Width16); err != nil {
		t.Fatal(err)
	}
	if v, _ := h.ReadPCI(ctx, present, 0x40, osl.Width16); v != 0xBEEF {
		t.Errorf("read back 0x%x", v)
	}

	absent := osl.PCIID{Bus: 3}
	if v, _ := h.ReadPCI(ctx, absent, 0, osl.Width16); v != 0xFFFF {
		t.Errorf("absent function read 0x%x", v)
	}
	if err := h.WritePCI(ctx, absent, 0, 1, osl.Width8); err != nil {
		t.Errorf("write to absent function: %v", err)
	}
	if _, err := h.ReadPCI(ctx, present, 4094, osl.Width32); err == nil {
		t.Error("expected out of range error")
	}
}

func TestInterrupts(t *testing.T) {
	h := newHost(t, Config{})
	ctx := context.Background()
	inv := &countingInvoker{result: uint32(callback.Handled)}
	isr := callback.NewInterrupt(inv, 7, 0)

	if _, err := h.Raise(ctx, 9); err == nil {
		t.Fatal("raise without handler succeeded")
	}
	if err := h.InstallInterruptHandler(ctx, 9, isr); err != nil {
		t.Fatal(err)
	}
	if err := h.InstallInterruptHandler(ctx, 9, isr); status.CodeOf(err) != status.AlreadyExists {
		t.Fatalf("second install: %v", err)
	}
	if res, err := h.Raise(ctx, 9); err != nil || res != callback.Handled {
		t.Fatalf("Raise = %v, %v", res, err)
	}
	if !h.Installed(9) {
		t.Fatal("not installed")
	}
	if err := h.RemoveInterruptHandler(ctx, 9, 8); status.CodeOf(err) != status.BadParameter {
		t.Errorf("remove with wrong routine: %v", err)
	}
	if err := h.RemoveInterruptHandler(ctx, 9, 7); err != nil {
		t.Fatal(err)
	}
	if err := h.RemoveInterruptHandler(ctx, 9, 7); status.CodeOf(err) != status.NotExist {
		t.Errorf("second remove: %v", err)
	}
	if inv.calls.Load() != 1 {
		t.Errorf("routine ran %d times", inv.calls.Load())
	}
}

func TestExecute(t *testing.T) {
	h := newHost(t, Config{})
	ctx := context.Background()
	inv := &countingInvoker{}
	for range 8 {
		work := callback.NewThread(ctx, inv, callback.ExecNotifyHandler, 1, 0)
		if err := h.Execute(ctx, work); err != nil {
			t.Fatal(err)
		}
	}
	h.WaitEventsComplete(ctx)
	if got := inv.calls.Load(); got != 8 {
		t.Fatalf("ran %d, want 8", got)
	}
}

func TestTimerAndSleep(t *testing.T) {
	h := newHost(t, Config{})
	ctx := context.Background()
	start := h.Timer(ctx)
	h.Sleep(ctx, 2)
	if elapsed := h.Timer(ctx) - start; elapsed < 20000 {
		t.Errorf("timer advanced %d ticks over 2ms", elapsed)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	h.Sleep(cancelled, 60_000)
}

func TestPrint(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	var out bytes.Buffer
	h := newHost(t, Config{Output: &out})
	h.Print(context.Background(), "ACPI: DSDT ")
	h.Print(context.Background(), "loaded\n")

	if out.String() != "ACPI: DSDT loaded\n" {
		t.Errorf("output %q", out.String())
	}
	if n := logs.FilterMessage("native output").Len(); n != 2 {
		t.Errorf("mirrored %d entries, want 2", n)
	}
}

func TestGetLine(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	w.WriteString("first\r\nsecond")
	w.Close()

	h := newHost(t, Config{Input: r})
	for _, want := range []string{"first", "second"} {
		got, err := h.GetLine(context.Background())
		if err != nil || got != want {
			t.Fatalf("GetLine = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := h.GetLine(context.Background()); err == nil {
		t.Fatal("expected error at end of input")
	}
}

func TestOverridesAndSignals(t *testing.T) {
	repl := table.BuildSDT("SSDT", 2, nil)
	h := newHost(t, Config{
		Predefined: map[string]string{"_OS_": "Linux"},
		Tables:     map[string][]byte{"SSDT": repl},
	})
	ctx := context.Background()

	if v, _ := h.PredefinedOverride(ctx, "_OS_"); v == nil || *v != "Linux" {
		t.Errorf("_OS_ override = %v", v)
	}
	if v, _ := h.PredefinedOverride(ctx, "_REV"); v != nil {
		t.Errorf("_REV override = %q", *v)
	}
	hdr, _ := table.ParseHeader(repl)
	if got, _ := h.TableOverride(ctx, hdr, nil); !bytes.Equal(got, repl) {
		t.Error("SSDT not replaced")
	}

	h.Signal(ctx, osl.Signal{Kind: osl.SignalFatal, Type: 1, Code: 2})
	h.EnterSleep(ctx, 5, 0x1400, 0)
	if s := h.Signals(); len(s) != 1 || s[0].Code != 2 {
		t.Errorf("Signals = %+v", s)
	}
	if s := h.SleepRequests(); len(s) != 1 || s[0] != 5 {
		t.Errorf("SleepRequests = %v", s)
	}
}
