package osl

import (
	"context"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
)

// ReadPort reads an I/O port into the UINT32 at out.
func (d *Dispatcher) ReadPort(ctx context.Context, port uint32, out memory.Ptr, width Width) status.Status {
	checkWidth("AcpiOsReadPort", width, false)
	hctx, done := d.enter(ctx, "AcpiOsReadPort")
	v, err := d.host.ReadPort(hctx, port, width)
	done()
	if err != nil {
		return result("AcpiOsReadPort", err)
	}
	d.put32("AcpiOsReadPort", out, uint32(uint64(v)&width.Mask()))
	return status.OK
}

// WritePort writes an I/O port.
func (d *Dispatcher) WritePort(ctx context.Context, port, value uint32, width Width) status.Status {
	checkWidth("AcpiOsWritePort", width, false)
	hctx, done := d.enter(ctx, "AcpiOsWritePort")
	defer done()
	return result("AcpiOsWritePort", d.host.WritePort(hctx, port, uint32(uint64(value)&width.Mask()), width))
}

// ReadMemory reads physical memory into the UINT64 at out.
func (d *Dispatcher) ReadMemory(ctx context.Context, phys uint64, out memory.Ptr, width Width) status.Status {
	checkWidth("AcpiOsReadMemory", width, true)
	hctx, done := d.enter(ctx, "AcpiOsReadMemory")
	v, err := d.host.ReadMemory(hctx, phys, width)
	done()
	if err != nil {
		return result("AcpiOsReadMemory", err)
	}
	d.put64("AcpiOsReadMemory", out, v&width.Mask())
	return status.OK
}

// WriteMemory writes physical memory.
func (d *Dispatcher) WriteMemory(ctx context.Context, phys, value uint64, width Width) status.Status {
	checkWidth("AcpiOsWriteMemory", width, true)
	hctx, done := d.enter(ctx, "AcpiOsWriteMemory")
	defer done()
	return result("AcpiOsWriteMemory", d.host.WriteMemory(hctx, phys, value&width.Mask(), width))
}

// pciID decodes an ACPI_PCI_ID.
func (d *Dispatcher) pciID(op string, ptr memory.Ptr) PCIID {
	if ptr == 0 {
		panic(errors.NilPointer(errors.PhaseHost, op, "PCI ID"))
	}
	raw, err := d.mem.Read(ptr, 8)
	if err != nil {
		errors.Fatal(errors.PhaseHost, op, "PCI ID: %v", err)
	}
	u16 := func(i int) uint16 { return uint16(raw[i]) | uint16(raw[i+1])<<8 }
	return PCIID{Segment: u16(0), Bus: u16(2), Device: u16(4), Function: u16(6)}
}

// ReadPCIConfiguration reads a configuration register into the UINT64 at out.
func (d *Dispatcher) ReadPCIConfiguration(ctx context.Context, idPtr memory.Ptr, reg uint32, out memory.Ptr, width Width) status.Status {
	checkWidth("AcpiOsReadPciConfiguration", width, true)
	id := d.pciID("AcpiOsReadPciConfiguration", idPtr)
	hctx, done := d.enter(ctx, "AcpiOsReadPciConfiguration")
	v, err := d.host.ReadPCI(hctx, id, reg, width)
	done()
	if err != nil {
		return result("AcpiOsReadPciConfiguration", err)
	}
	d.put64("AcpiOsReadPciConfiguration", out, v&width.Mask())
	return status.OK
}

// WritePCIConfiguration writes a configuration register.
func (d *Dispatcher) WritePCIConfiguration(ctx context.Context, idPtr memory.Ptr, reg uint32, value uint64, width Width) status.Status {
	checkWidth("AcpiOsWritePciConfiguration", width, true)
	id := d.pciID("AcpiOsWritePciConfiguration", idPtr)
	hctx, done := d.enter(ctx, "AcpiOsWritePciConfiguration")
	defer done()
	return result("AcpiOsWritePciConfiguration", d.host.WritePCI(hctx, id, reg, value&width.Mask(), width))
}

// InstallInterruptHandler hands a native service routine to the host.
func (d *Dispatcher) InstallInterruptHandler(ctx context.Context, irq, fn, arg uint32) status.Status {
	if fn == 0 {
		return code(status.BadParameter)
	}
	hctx, done := d.enter(ctx, "AcpiOsInstallInterruptHandler")
	defer done()
	return result("AcpiOsInstallInterruptHandler",
		d.host.InstallInterruptHandler(hctx, irq, callback.NewInterrupt(d.inv, fn, arg)))
}

// RemoveInterruptHandler removes a service routine.
func (d *Dispatcher) RemoveInterruptHandler(ctx context.Context, irq, fn uint32) status.Status {
	if fn == 0 {
		return code(status.BadParameter)
	}
	hctx, done := d.enter(ctx, "AcpiOsRemoveInterruptHandler")
	defer done()
	return result("AcpiOsRemoveInterruptHandler", d.host.RemoveInterruptHandler(hctx, irq, fn))
}

// GetThreadID returns the host's identifier for the calling thread.
func (d *Dispatcher) GetThreadID(ctx context.Context) uint64 {
	hctx, done := d.enter(ctx, "AcpiOsGetThreadId")
	defer done()
	return d.host.ThreadID(hctx)
}

// Execute queues native work on a new thread.
func (d *Dispatcher) Execute(ctx context.Context, kind, fn, arg uint32) status.Status {
	if fn == 0 {
		return code(status.BadParameter)
	}
	work := callback.NewThread(d.base, d.inv, callback.ExecuteType(kind), fn, arg)
	hctx, done := d.enter(ctx, "AcpiOsExecute")
	defer done()
	return result("AcpiOsExecute", d.host.Execute(hctx, work))
}

// WaitEventsComplete blocks until queued work has finished. The host mutex
// is not held, since the work itself calls back into the dispatcher.
func (d *Dispatcher) WaitEventsComplete(ctx context.Context) {
	defer d.yield(ctx)()
	d.host.WaitEventsComplete(d.mark(ctx, "AcpiOsWaitEventsComplete"))
}

// Sleep suspends the calling thread for ms milliseconds.
func (d *Dispatcher) Sleep(ctx context.Context, ms uint64) {
	defer d.yield(ctx)()
	d.host.Sleep(d.mark(ctx, "AcpiOsSleep"), ms)
}

// Stall busy-waits for us microseconds.
func (d *Dispatcher) Stall(ctx context.Context, us uint32) {
	d.host.Stall(d.mark(ctx, "AcpiOsStall"), us)
}

// GetTimer returns the host timer in 100 ns units.
func (d *Dispatcher) GetTimer(ctx context.Context) uint64 {
	hctx, done := d.enter(ctx, "AcpiOsGetTimer")
	defer done()
	return d.host.Timer(hctx)
}
