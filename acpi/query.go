package acpi

import (
	"bytes"
	"context"
	"encoding/binary"
	"unicode/utf8"

	"github.com/wippyai/acpica-host/acpica"
	"github.com/wippyai/acpica-host/buffer"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// Handle is an opaque reference to a namespace object. It is never
// dereferenced on the Go side.
type Handle uint32

// Root is the namespace root.
const Root = Handle(acpica.RootObject)

// KnownSignatures are the tables Headers looks for.
var KnownSignatures = []string{
	"FACP", "DSDT", "SSDT", "APIC", "MCFG", "HPET", "SRAT", "SLIT", "BGRT", "WAET",
}

// ACPI_OBJECT in a 32-bit build.
const (
	objectSize       = 16
	objectType       = 0
	objectInteger    = 8
	objectStrLength  = 4
	objectStrPointer = 8
)

// scratch allocates native memory for the duration of one query.
type scratch struct {
	r    *Ready
	ptrs []memory.Ptr
}

func (r *Ready) scratch() *scratch { return &scratch{r: r} }

func (s *scratch) alloc(size uint32) (memory.Ptr, error) {
	p, err := s.r.sys.d.Allocator().AllocateZeroed(size)
	if err != nil {
		return 0, status.ErrNoMemory
	}
	s.ptrs = append(s.ptrs, p)
	return p, nil
}

func (s *scratch) cstring(v string) (memory.Ptr, error) {
	p, err := s.alloc(uint32(len(v)) + 1)
	if err != nil {
		return 0, err
	}
	if err := memory.WriteCString(s.r.sys.d.Memory(), p, v); err != nil {
		return 0, err
	}
	return p, nil
}

func (s *scratch) release() {
	for _, p := range s.ptrs {
		s.r.sys.d.Allocator().Free(p)
	}
}

// Table returns a copy of the instance'th table with signature sig.
// Instances count from 1.
func (r *Ready) Table(ctx context.Context, sig string, instance uint32) ([]byte, error) {
	if err := r.live(); err != nil {
		return nil, err
	}
	if len(sig) != 4 {
		return nil, errors.InvalidInput(errors.PhaseTables, "table signature must be 4 bytes")
	}
	s := r.scratch()
	defer s.release()

	sp, err := s.cstring(sig)
	if err != nil {
		return nil, err
	}
	out, err := s.alloc(4)
	if err != nil {
		return nil, err
	}
	native := r.sys.native
	if err := r.sys.check("AcpiGetTable", native.GetTable(ctx, sp, instance, out)); err != nil {
		return nil, err
	}

	mem := r.sys.d.Memory()
	ptr, err := mem.ReadU32(out)
	if err != nil {
		return nil, err
	}
	defer native.PutTable(ctx, ptr)
	if ptr == 0 {
		errors.Fatal(errors.PhaseTables, "AcpiGetTable", "table %s returned as null", sig)
	}

	hdr, err := mem.Read(ptr, table.HeaderSize)
	if err != nil {
		return nil, err
	}
	h, err := table.ParseHeader(hdr)
	if err != nil {
		return nil, err
	}
	raw, err := mem.Read(ptr, h.Length)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(raw), nil
}

// Headers lists the headers of every installed table named in
// KnownSignatures, in that order.
func (r *Ready) Headers(ctx context.Context) ([]table.Header, error) {
	var out []table.Header
	for _, sig := range KnownSignatures {
		for i := uint32(1); ; i++ {
			raw, err := r.Table(ctx, sig, i)
			if status.CodeOf(err) == status.NotFound {
				break
			}
			if err != nil {
				return nil, err
			}
			h, err := table.ParseHeader(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// FADT decodes the fixed ACPI description table.
func (r *Ready) FADT(ctx context.Context) (table.FADT, error) {
	raw, err := r.Table(ctx, "FACP", 1)
	if err != nil {
		return table.FADT{}, err
	}
	return table.ParseFADT(raw)
}

// MADT decodes the multiple APIC description table.
func (r *Ready) MADT(ctx context.Context) (table.MADT, error) {
	raw, err := r.Table(ctx, "APIC", 1)
	if err != nil {
		return table.MADT{}, err
	}
	return table.ParseMADT(raw)
}

// MCFG decodes the PCI Express configuration space allocations.
func (r *Ready) MCFG(ctx context.Context) ([]table.MCFGAllocation, error) {
	raw, err := r.Table(ctx, "MCFG", 1)
	if err != nil {
		return nil, err
	}
	return table.ParseMCFG(raw)
}

// Name returns the full path of h, or its single segment when full is false.
func (r *Ready) Name(ctx context.Context, h Handle, full bool) (string, error) {
	if err := r.live(); err != nil {
		return "", err
	}
	nameType := acpica.SingleName
	if full {
		nameType = acpica.FullPathname
	}
	st, data, err := buffer.AllocatePattern(r.sys.d.Allocator(), func(desc memory.Ptr) status.Status {
		return r.sys.native.GetName(ctx, uint32(h), nameType, desc)
	})
	if serr := r.sys.check("AcpiGetName", st); serr != nil {
		return "", serr
	}
	if err != nil {
		return "", err
	}
	data, _, _ = bytes.Cut(data, []byte{0})
	if !utf8.Valid(data) {
		panic(errors.InvalidUTF8(errors.PhaseNamespace, "AcpiGetName", data))
	}
	return string(data), nil
}

// DeviceInfo returns the identification block of h.
func (r *Ready) DeviceInfo(ctx context.Context, h Handle) (table.DeviceInfo, error) {
	if err := r.live(); err != nil {
		return table.DeviceInfo{}, err
	}
	s := r.scratch()
	defer s.release()

	out, err := s.alloc(4)
	if err != nil {
		return table.DeviceInfo{}, err
	}
	if err := r.sys.check("AcpiGetObjectInfo", r.sys.native.GetObjectInfo(ctx, uint32(h), out)); err != nil {
		return table.DeviceInfo{}, err
	}

	alloc := r.sys.d.Allocator()
	ptr, err := alloc.Memory().ReadU32(out)
	if err != nil {
		return table.DeviceInfo{}, err
	}
	if !alloc.Owns(ptr) {
		errors.Fatal(errors.PhaseNamespace, "AcpiGetObjectInfo", "device info 0x%x was not allocated by the host allocator", ptr)
	}
	defer alloc.Free(ptr)
	return table.DecodeDeviceInfo(alloc.Memory(), ptr)
}

// IRQRoutingTable returns the _PRT of a PCI root bridge or bridge.
func (r *Ready) IRQRoutingTable(ctx context.Context, h Handle) (table.PRT, error) {
	if err := r.live(); err != nil {
		return table.PRT{}, err
	}
	st, data, err := buffer.AllocatePattern(r.sys.d.Allocator(), func(desc memory.Ptr) status.Status {
		return r.sys.native.GetIRQRoutingTable(ctx, uint32(h), desc)
	})
	if serr := r.sys.check("AcpiGetIrqRoutingTable", st); serr != nil {
		return table.PRT{}, serr
	}
	if err != nil {
		return table.PRT{}, err
	}
	return table.NewPRT(data), nil
}

type evaluation struct {
	st   status.Status
	base memory.Ptr
}

// evaluate runs path relative to h and returns the result object with the
// native address it was stored at.
func (r *Ready) evaluate(ctx context.Context, h Handle, path string) ([]byte, memory.Ptr, error) {
	if err := r.live(); err != nil {
		return nil, 0, err
	}
	s := r.scratch()
	defer s.release()

	var pp memory.Ptr
	if path != "" {
		p, err := s.cstring(path)
		if err != nil {
			return nil, 0, err
		}
		pp = p
	}

	mem := r.sys.d.Memory()
	ev, data, err := buffer.AllocatePattern(r.sys.d.Allocator(), func(desc memory.Ptr) evaluation {
		st := r.sys.native.EvaluateObject(ctx, uint32(h), pp, 0, desc)
		b, _ := buffer.Read(mem, desc)
		return evaluation{st: st, base: b.Pointer}
	})
	if serr := r.sys.check("AcpiEvaluateObject", ev.st); serr != nil {
		return nil, 0, serr
	}
	if err != nil {
		return nil, 0, err
	}
	if len(data) < objectSize {
		return nil, 0, errors.InvalidData(errors.PhaseDecode, "AcpiEvaluateObject", "method returned no object")
	}
	return data, ev.base, nil
}

func objectTypeOf(obj []byte) table.ObjectType {
	return table.ObjectType(binary.LittleEndian.Uint32(obj[objectType:]))
}

func typeMismatch(want, got table.ObjectType) error {
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Op("AcpiEvaluateObject").
		Value(got).
		Detail("result is %s, not %s", got, want).
		Build()
}

// EvaluateInteger evaluates path relative to h and returns its integer
// result. path may be absolute, in which case h may be 0.
func (r *Ready) EvaluateInteger(ctx context.Context, h Handle, path string) (uint64, error) {
	obj, _, err := r.evaluate(ctx, h, path)
	if err != nil {
		return 0, err
	}
	if t := objectTypeOf(obj); t != table.TypeInteger {
		return 0, typeMismatch(table.TypeInteger, t)
	}
	return binary.LittleEndian.Uint64(obj[objectInteger:]), nil
}

// EvaluateString evaluates path relative to h and returns its string result.
func (r *Ready) EvaluateString(ctx context.Context, h Handle, path string) (string, error) {
	obj, base, err := r.evaluate(ctx, h, path)
	if err != nil {
		return "", err
	}
	if t := objectTypeOf(obj); t != table.TypeString {
		return "", typeMismatch(table.TypeString, t)
	}
	n := binary.LittleEndian.Uint32(obj[objectStrLength:])
	p := binary.LittleEndian.Uint32(obj[objectStrPointer:])
	off := uint64(p) - uint64(base)
	if p < base || off+uint64(n) > uint64(len(obj)) {
		return "", errors.InvalidData(errors.PhaseDecode, "AcpiEvaluateObject", "string result lies outside the returned buffer")
	}
	s := obj[off : off+uint64(n)]
	if !utf8.Valid(s) {
		panic(errors.InvalidUTF8(errors.PhaseDecode, "AcpiEvaluateObject", s))
	}
	return string(s), nil
}
