package hosted

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/table"
)

// Host serves kernel services from the current process.
type Host struct {
	cfg  Config
	boot time.Time

	mem  space
	bus  bus
	pci  *pciStore
	irqs interrupts
	work sync.WaitGroup

	rsdpOnce sync.Once
	rsdp     uint64

	outMu  sync.Mutex
	out    io.Writer
	redir  uint32
	reader *bufio.Reader

	stateMu sync.Mutex
	sleeps  []uint8
	signals []osl.Signal
}

var _ osl.Host = (*Host)(nil)

// New creates a Host, mapping every configured image.
func New(cfg Config) (*Host, error) {
	h := &Host{
		cfg:  cfg,
		boot: time.Now(),
		bus:  bus{ranges: cfg.Ports},
		pci:  newPCIStore(cfg.PCI),
		out:  cfg.output(),
	}
	for _, img := range cfg.Images {
		r := NewRegion(img.Base, img.Data)
		if img.Path != "" {
			var err error
			if r, err = OpenImage(img.Path, img.Base); err != nil {
				h.mem.close()
				return nil, err
			}
		}
		if err := h.mem.add(r); err != nil {
			r.Close()
			h.mem.close()
			return nil, err
		}
	}
	return h, nil
}

// AddRegion adds physical memory.
func (h *Host) AddRegion(r *Region) error { return h.mem.add(r) }

// Close releases the mapped images.
func (h *Host) Close() error { return h.mem.close() }

// Raise delivers interrupt irq to its installed routine. It must not be
// called from within a native call.
func (h *Host) Raise(ctx context.Context, irq uint32) (callback.InterruptResult, error) {
	return h.irqs.raise(ctx, irq)
}

// Installed reports whether a routine is installed on irq.
func (h *Host) Installed(irq uint32) bool { return h.irqs.installed(irq) }

// SleepRequests returns the sleep states entered so far.
func (h *Host) SleepRequests() []uint8 {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return append([]uint8(nil), h.sleeps...)
}

// Signals returns the signals the native side raised.
func (h *Host) Signals() []osl.Signal {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return append([]osl.Signal(nil), h.signals...)
}

func (h *Host) Initialize(context.Context) error {
	Logger().Debug("host initialized")
	return nil
}

func (h *Host) Terminate(context.Context) error {
	Logger().Debug("host terminated")
	return nil
}

func (h *Host) PredefinedOverride(_ context.Context, name string) (*string, error) {
	if v, ok := h.cfg.Predefined[name]; ok {
		return &v, nil
	}
	return nil, nil
}

func (h *Host) TableOverride(_ context.Context, hdr table.Header, _ []byte) ([]byte, error) {
	if repl, ok := h.cfg.Tables[hdr.Sig()]; ok {
		return repl, nil
	}
	return nil, nil
}

func (h *Host) PhysicalTableOverride(context.Context, table.Header) (uint64, uint32, bool, error) {
	return 0, 0, false, nil
}

func (h *Host) RootPointer(context.Context) uint64 {
	h.rsdpOnce.Do(func() {
		h.rsdp = h.cfg.RSDP
		if h.rsdp == 0 {
			h.rsdp = h.mem.scanRSDP()
		}
		Logger().Debug("root pointer located", zap.Uint64("rsdp", h.rsdp))
	})
	return h.rsdp
}

func (h *Host) MapMemory(_ context.Context, phys uint64, length uint32) ([]byte, error) {
	return h.mem.window(phys, length)
}

func (h *Host) UnmapMemory(_ context.Context, phys uint64, data []byte) error {
	w, err := h.mem.window(phys, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(w, data)
	return nil
}

func (h *Host) InstallInterruptHandler(_ context.Context, irq uint32, isr callback.InterruptCallback) error {
	return h.irqs.install(irq, isr)
}

func (h *Host) RemoveInterruptHandler(_ context.Context, irq uint32, fn uint32) error {
	return h.irqs.remove(irq, fn)
}

func (h *Host) ThreadID(context.Context) uint64 { return 1 }

// Execute runs work on a new goroutine.
func (h *Host) Execute(_ context.Context, work callback.ThreadCallback) error {
	h.work.Add(1)
	go func() {
		defer h.work.Done()
		if err := work.Call(); err != nil {
			Logger().Error("deferred work failed", zap.Stringer("kind", work.Kind()), zap.Error(err))
		}
	}()
	return nil
}

func (h *Host) WaitEventsComplete(context.Context) { h.work.Wait() }

func (h *Host) Sleep(ctx context.Context, ms uint64) {
	t := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (h *Host) Stall(_ context.Context, us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// Timer counts 100 ns ticks since the host was created.
func (h *Host) Timer(context.Context) uint64 {
	return uint64(time.Since(h.boot) / 100)
}

func (h *Host) ReadPort(_ context.Context, port uint32, width osl.Width) (uint32, error) {
	return h.bus.read(port, width), nil
}

func (h *Host) WritePort(_ context.Context, port uint32, value uint32, width osl.Width) error {
	h.bus.write(port, value, width)
	return nil
}

func (h *Host) ReadMemory(_ context.Context, phys uint64, width osl.Width) (uint64, error) {
	return h.mem.read(phys, width)
}

func (h *Host) WriteMemory(_ context.Context, phys uint64, value uint64, width osl.Width) error {
	return h.mem.write(phys, value, width)
}

func (h *Host) ReadPCI(_ context.Context, id osl.PCIID, reg uint32, width osl.Width) (uint64, error) {
	return h.pci.read(id, reg, width)
}

func (h *Host) WritePCI(_ context.Context, id osl.PCIID, reg uint32, value uint64, width osl.Width) error {
	return h.pci.write(id, reg, value, width)
}

func (h *Host) Signal(_ context.Context, sig osl.Signal) error {
	h.stateMu.Lock()
	h.signals = append(h.signals, sig)
	h.stateMu.Unlock()
	if sig.Kind == osl.SignalFatal {
		Logger().Error("AML fatal",
			zap.Uint32("type", sig.Type),
			zap.Uint32("code", sig.Code),
			zap.Uint32("argument", sig.Argument))
	}
	return nil
}

func (h *Host) EnterSleep(_ context.Context, state uint8, regA, regB uint32) error {
	h.stateMu.Lock()
	h.sleeps = append(h.sleeps, state)
	h.stateMu.Unlock()
	Logger().Info("entering sleep state",
		zap.Uint8("state", state),
		zap.Uint32("pm1a", regA),
		zap.Uint32("pm1b", regB))
	return nil
}
