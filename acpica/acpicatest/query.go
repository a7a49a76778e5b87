package acpicatest

import (
	"context"
	"encoding/binary"
	"strings"

	"github.com/wippyai/acpica-host/acpica"
	"github.com/wippyai/acpica-host/buffer"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// objectSize is sizeof(ACPI_OBJECT) in a 32-bit build.
const objectSize = 16

func (s *Subsystem) resolve(h uint32) *Object {
	if h == acpica.RootObject {
		return s.root
	}
	return s.objects[h]
}

// fill stores size bytes produced by marshal into the buffer descriptor at
// desc, allocating the storage when the descriptor asks for it. marshal is
// given the address the data will live at.
func (s *Subsystem) fill(desc memory.Ptr, size uint32, marshal func(base memory.Ptr) []byte) status.Status {
	mem := s.d.Memory()
	b, err := buffer.Read(mem, desc)
	if err != nil {
		panic(err)
	}
	if b.Kind() == buffer.KindAutoAllocate {
		p := s.d.Allocate(size)
		if p == 0 {
			return code(status.NoMemory)
		}
		if err := mem.Write(p, marshal(p)); err != nil {
			panic(err)
		}
		buffer.Write(mem, desc, buffer.Buffer{Length: size, Pointer: p})
		return status.OK
	}
	if b.Length < size {
		buffer.Write(mem, desc, buffer.Buffer{Length: size, Pointer: b.Pointer})
		return code(status.BufferOverflow)
	}
	if err := mem.Write(b.Pointer, marshal(b.Pointer)); err != nil {
		panic(err)
	}
	buffer.Write(mem, desc, buffer.Buffer{Length: size, Pointer: b.Pointer})
	return status.OK
}

// GetTable finds an installed table by signature.
func (s *Subsystem) GetTable(ctx context.Context, sig memory.Ptr, instance uint32, out memory.Ptr) status.Status {
	_, leave := s.enter(ctx, "AcpiGetTable")
	defer leave()
	if sig == 0 || out == 0 {
		return code(status.BadParameter)
	}
	raw, err := s.d.Memory().Read(sig, 4)
	if err != nil {
		panic(err)
	}
	t := s.find(string(raw), max(instance, 1))
	if t == nil {
		return code(status.NotFound)
	}
	s.d.Memory().WriteU32(out, t.ptr)
	return status.OK
}

// PutTable releases a table reference. Tables stay mapped until Terminate.
func (s *Subsystem) PutTable(ctx context.Context, _ memory.Ptr) {
	_, leave := s.enter(ctx, "AcpiPutTable")
	leave()
}

// GetName stores the full path or the single segment name of an object.
func (s *Subsystem) GetName(ctx context.Context, h, nameType uint32, buf memory.Ptr) status.Status {
	_, leave := s.enter(ctx, "AcpiGetName")
	defer leave()
	o := s.resolve(h)
	if o == nil || buf == 0 || nameType > acpica.SingleName {
		return code(status.BadParameter)
	}
	name := o.Path()
	if nameType == acpica.SingleName {
		name = nameSeg(o.Name)
	}
	data := append([]byte(name), 0)
	return s.fill(buf, uint32(len(data)), func(memory.Ptr) []byte { return data })
}

// GetObjectInfo returns an allocated identification block for an object.
func (s *Subsystem) GetObjectInfo(ctx context.Context, h uint32, out memory.Ptr) status.Status {
	_, leave := s.enter(ctx, "AcpiGetObjectInfo")
	defer leave()
	o := s.resolve(h)
	if o == nil || out == 0 {
		return code(status.BadParameter)
	}

	info := table.DeviceInfo{Name: nameSeg(o.Name), Type: o.Type}
	for i := range info.HighestDstates {
		info.HighestDstates[i] = 0xFF
	}
	for i := range info.LowestDstates {
		info.LowestDstates[i] = 0xFF
	}
	if o.Type == table.TypeDevice {
		if o.HID != "" {
			info.HardwareID = o.HID
			info.Valid |= table.ValidHID
		}
		if o.UID != "" {
			info.UniqueID = o.UID
			info.Valid |= table.ValidUID
		}
		if o.CLS != "" {
			info.ClassCode = o.CLS
			info.Valid |= table.ValidCLS
		}
		if len(o.CID) > 0 {
			info.Compatible = o.CID
			info.Valid |= table.ValidCID
		}
		if o.HasADR {
			info.Address = o.Address
			info.Valid |= table.ValidADR
		}
		if o.pciRoot() {
			info.Flags |= table.FlagPCIRootBridge
		}
	}

	size := uint32(len(info.Marshal(0)))
	p := s.d.Allocate(size)
	if p == 0 {
		return code(status.NoMemory)
	}
	if err := s.d.Memory().Write(p, info.Marshal(p)); err != nil {
		panic(err)
	}
	s.d.Memory().WriteU32(out, p)
	return status.OK
}

// GetIRQRoutingTable returns the _PRT records of a PCI bus device.
func (s *Subsystem) GetIRQRoutingTable(ctx context.Context, h uint32, buf memory.Ptr) status.Status {
	_, leave := s.enter(ctx, "AcpiGetIrqRoutingTable")
	defer leave()
	o := s.resolve(h)
	if o == nil || buf == 0 {
		return code(status.BadParameter)
	}
	if o.Type != table.TypeDevice {
		return code(status.Type)
	}
	if o.Routing == nil {
		return code(status.NotFound)
	}
	data := table.BuildPRT(o.Routing)
	return s.fill(buf, uint32(len(data)), func(memory.Ptr) []byte { return data })
}

// lookup resolves a relative or absolute path from o. The last segment may
// name an identification object synthesized for a device.
func (s *Subsystem) lookup(o *Object, path string) (*Object, any, status.Status) {
	if strings.HasPrefix(path, `\`) {
		o, path = s.root, path[1:]
	}
	for strings.HasPrefix(path, "^") {
		if o.parent == nil {
			return nil, nil, code(status.NotFound)
		}
		o, path = o.parent, path[1:]
	}
	if path == "" {
		return o, nil, status.OK
	}

	segs := strings.Split(path, ".")
	for i, seg := range segs {
		if len(seg) == 0 || len(seg) > 4 {
			return nil, nil, code(status.BadPathname)
		}
		seg = nameSeg(seg)
		if c := o.child(seg); c != nil {
			o = c
			continue
		}
		if i == len(segs)-1 {
			if v, ok := o.implicit(seg); ok {
				return nil, v, status.OK
			}
		}
		return nil, nil, code(status.NotFound)
	}
	return o, nil, status.OK
}

// EvaluateObject evaluates an object and stores the result as an
// ACPI_OBJECT. Arguments are ignored.
func (s *Subsystem) EvaluateObject(ctx context.Context, h uint32, path, _, ret memory.Ptr) status.Status {
	_, leave := s.enter(ctx, "AcpiEvaluateObject")
	defer leave()

	var rel string
	if path != 0 {
		p, err := memory.ReadString(s.d.Memory(), path, 1024)
		if err != nil {
			panic(err)
		}
		rel = p
	}
	start := s.root
	if h != 0 {
		if start = s.resolve(h); start == nil {
			return code(status.BadParameter)
		}
	} else if !strings.HasPrefix(rel, `\`) {
		return code(status.BadParameter)
	}

	o, val, st := s.lookup(start, rel)
	if st != status.OK {
		return st
	}
	if o != nil {
		switch o.Type {
		case table.TypeInteger, table.TypeString, table.TypeMethod:
			val = o.Value
		default:
			return code(status.Type)
		}
	}
	if ret == 0 {
		return status.OK
	}

	switch v := val.(type) {
	case uint64:
		return s.fill(ret, objectSize, func(memory.Ptr) []byte {
			b := make([]byte, objectSize)
			binary.LittleEndian.PutUint32(b, uint32(table.TypeInteger))
			binary.LittleEndian.PutUint64(b[8:], v)
			return b
		})
	case string:
		return s.fill(ret, objectSize+uint32(len(v))+1, func(base memory.Ptr) []byte {
			b := make([]byte, objectSize, objectSize+len(v)+1)
			binary.LittleEndian.PutUint32(b, uint32(table.TypeString))
			binary.LittleEndian.PutUint32(b[4:], uint32(len(v)))
			binary.LittleEndian.PutUint32(b[8:], base+objectSize)
			return append(append(b, v...), 0)
		})
	case nil:
		buffer.Write(s.d.Memory(), ret, buffer.Buffer{})
		return status.OK
	default:
		return code(status.AmlOperandType)
	}
}

// visit hands an object to the host walk callback and translates the
// returned status into a walk step.
func (s *Subsystem) visit(ctx context.Context, o *Object, depth, walkCtx uint32, retval memory.Ptr, failed *status.Status) walkStep {
	switch st := s.d.WalkDescending(ctx, o.handle, depth, walkCtx, retval); st {
	case status.OK:
		return stepContinue
	case code(status.CtrlDepth):
		return stepSkip
	case code(status.CtrlTerminate):
		return stepStop
	default:
		*failed = st
		return stepStop
	}
}

// WalkNamespace visits objects of type typ below start in pre-order.
func (s *Subsystem) WalkNamespace(ctx context.Context, typ, start, maxDepth, walkCtx uint32, retval memory.Ptr) status.Status {
	ctx, leave := s.enter(ctx, "AcpiHostWalkNamespace")
	defer leave()
	o := s.resolve(start)
	if o == nil || maxDepth == 0 || table.ObjectType(typ) > table.TypeDebugObject {
		return code(status.BadParameter)
	}

	failed := status.OK
	o.walk(1, maxDepth, func(c *Object, depth uint32) walkStep {
		if typ != uint32(table.TypeAny) && c.Type != table.ObjectType(typ) {
			return stepContinue
		}
		return s.visit(ctx, c, depth, walkCtx, retval, &failed)
	})
	return failed
}

// GetDevices visits present devices whose _HID or a _CID equals the string
// at hid, or every present device when hid is 0. Devices neither present
// nor functioning are skipped together with their children.
func (s *Subsystem) GetDevices(ctx context.Context, hid memory.Ptr, walkCtx uint32, retval memory.Ptr) status.Status {
	ctx, leave := s.enter(ctx, "AcpiHostGetDevices")
	defer leave()

	var id string
	if hid != 0 {
		v, err := memory.ReadString(s.d.Memory(), hid, 256)
		if err != nil {
			panic(err)
		}
		id = v
	}

	failed := status.OK
	s.root.walk(1, ^uint32(0), func(c *Object, depth uint32) walkStep {
		if c.Type != table.TypeDevice {
			return stepContinue
		}
		if id != "" && !c.matchesID(id) {
			return stepContinue
		}
		if c.Status&(StaPresent|StaFunctioning) == 0 {
			return stepSkip
		}
		return s.visit(ctx, c, depth, walkCtx, retval, &failed)
	})
	return failed
}
