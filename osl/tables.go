package osl

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// maxTableLength bounds tables copied out of native memory.
const maxTableLength = 16 << 20

// GetRootPointer returns the physical address of the RSDP.
func (d *Dispatcher) GetRootPointer(ctx context.Context) uint64 {
	hctx, done := d.enter(ctx, "AcpiOsGetRootPointer")
	defer done()
	rsdp := d.host.RootPointer(hctx)
	Logger().Debug("root pointer", zap.Uint64("rsdp", rsdp))
	return rsdp
}

// PredefinedOverride lets the host replace a predefined object's value.
// init points to an ACPI_PREDEFINED_NAMES; the replacement string pointer,
// or null, is stored at out.
func (d *Dispatcher) PredefinedOverride(ctx context.Context, init memory.Ptr, out memory.Ptr) status.Status {
	if init == 0 || out == 0 {
		return code(status.BadParameter)
	}
	name, err := memory.ReadString(d.mem, d.get32("AcpiOsPredefinedOverride", init), 256)
	if err != nil {
		panic(err)
	}

	hctx, done := d.enter(ctx, "AcpiOsPredefinedOverride")
	val, err := d.host.PredefinedOverride(hctx, name)
	done()
	if err != nil {
		return result("AcpiOsPredefinedOverride", err)
	}
	if val == nil {
		d.put32("AcpiOsPredefinedOverride", out, 0)
		return status.OK
	}
	ptr, err := d.copyIn(append([]byte(*val), 0))
	if err != nil {
		return code(status.NoMemory)
	}
	Logger().Info("predefined object overridden", zap.String("name", name), zap.String("value", *val))
	d.put32("AcpiOsPredefinedOverride", out, ptr)
	return status.OK
}

// readTable copies a table out of native memory.
func (d *Dispatcher) readTable(op string, ptr memory.Ptr) (table.Header, []byte) {
	if ptr == 0 {
		panic(errors.NilPointer(errors.PhaseHost, op, "table"))
	}
	raw, err := d.mem.Read(ptr, table.HeaderSize)
	if err != nil {
		errors.Fatal(errors.PhaseHost, op, "table header: %v", err)
	}
	h, err := table.ParseHeader(raw)
	if err != nil {
		errors.Fatal(errors.PhaseHost, op, "table header: %v", err)
	}
	length := h.Length
	if length < table.HeaderSize || length > maxTableLength {
		length = table.HeaderSize
	}
	data, err := d.mem.Read(ptr, length)
	if err != nil {
		data = raw
	}
	return h, append([]byte(nil), data...)
}

// TableOverride lets the host replace a table by value. The replacement, or
// null, is stored at out; replacement storage belongs to the native side.
func (d *Dispatcher) TableOverride(ctx context.Context, existing memory.Ptr, out memory.Ptr) status.Status {
	if out == 0 {
		return code(status.BadParameter)
	}
	h, data := d.readTable("AcpiOsTableOverride", existing)

	hctx, done := d.enter(ctx, "AcpiOsTableOverride")
	repl, err := d.host.TableOverride(hctx, h, data)
	done()
	if err != nil {
		return result("AcpiOsTableOverride", err)
	}
	if len(repl) == 0 {
		d.put32("AcpiOsTableOverride", out, 0)
		return status.OK
	}
	if len(repl) < table.HeaderSize {
		return code(status.InvalidTableLength)
	}
	ptr, err := d.copyIn(repl)
	if err != nil {
		return code(status.NoMemory)
	}
	Logger().Info("table overridden", zap.String("signature", h.Sig()), zap.Int("length", len(repl)))
	d.put32("AcpiOsTableOverride", out, ptr)
	return status.OK
}

// PhysicalTableOverride lets the host replace a table by physical address.
func (d *Dispatcher) PhysicalTableOverride(ctx context.Context, existing memory.Ptr, addrOut, lengthOut memory.Ptr) status.Status {
	if addrOut == 0 || lengthOut == 0 {
		return code(status.BadParameter)
	}
	h, _ := d.readTable("AcpiOsPhysicalTableOverride", existing)

	hctx, done := d.enter(ctx, "AcpiOsPhysicalTableOverride")
	addr, length, ok, err := d.host.PhysicalTableOverride(hctx, h)
	done()
	if err != nil {
		return result("AcpiOsPhysicalTableOverride", err)
	}
	if !ok {
		addr, length = 0, 0
	}
	d.put64("AcpiOsPhysicalTableOverride", addrOut, addr)
	d.put32("AcpiOsPhysicalTableOverride", lengthOut, length)
	return status.OK
}
