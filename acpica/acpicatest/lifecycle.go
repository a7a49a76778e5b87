package acpicatest

import (
	"context"

	"github.com/wippyai/acpica-host/acpica"
	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// maxTableLength bounds tables read through the root table.
const maxTableLength = 1 << 20

// sciEnable is the SCI_EN bit of PM1 control.
const sciEnable = 0x0001

// predefined are the objects the namespace root is created with.
var predefined = []struct {
	name string
	typ  table.ObjectType
	val  string
}{
	{"_GPE", typeLocalScope, ""},
	{"_PR_", typeLocalScope, ""},
	{"_SB_", table.TypeDevice, ""},
	{"_SI_", typeLocalScope, ""},
	{"_TZ_", table.TypeDevice, ""},
	{"_REV", table.TypeInteger, "2"},
	{"_OS_", table.TypeString, "Microsoft Windows NT"},
	{"_GL_", table.TypeMutex, ""},
}

// InitializeSubsystem creates the global primitives and the namespace root.
func (s *Subsystem) InitializeSubsystem(ctx context.Context) status.Status {
	ctx, leave := s.enter(ctx, "AcpiInitializeSubsystem")
	defer leave()

	if st := s.d.Initialize(ctx); st != status.OK {
		return st
	}

	out := s.scratch(4)
	defer s.d.Free(out)
	if st := s.d.CreateLock(out); st != status.OK {
		return st
	}
	s.lockH = s.read32(out)
	if st := s.d.CreateSemaphore(1, 1, out); st != status.OK {
		return st
	}
	s.semH = s.read32(out)
	name := s.cstring("Acpi-Operand")
	st := s.d.CreateCache(name, 16, 64, out)
	s.d.Free(name)
	if st != status.OK {
		return st
	}
	s.cacheH = s.read32(out)

	s.root = &Object{Name: `\`, Type: table.TypeDevice, Status: staDefault}
	s.attach(s.root, nil)
	for _, p := range predefined {
		o := &Object{Name: p.name, Type: p.typ, Status: staDefault}
		switch p.typ {
		case table.TypeInteger:
			o.Value = uint64(2)
		case table.TypeString:
			o.Value = s.override(ctx, p.name, uint8(p.typ), p.val)
		}
		s.root.Children = append(s.root.Children, o)
		s.attach(o, s.root)
	}

	s.advance(stageSubsystem)
	return status.OK
}

// override offers a predefined object to the host through an
// ACPI_PREDEFINED_NAMES block.
func (s *Subsystem) override(ctx context.Context, name string, typ uint8, val string) string {
	init := s.scratch(12)
	defer s.d.Free(init)
	namePtr := s.cstring(name)
	defer s.d.Free(namePtr)
	valPtr := s.cstring(val)
	defer s.d.Free(valPtr)

	mem := s.d.Memory()
	mem.WriteU32(init, namePtr)
	mem.WriteU8(init+4, typ)
	mem.WriteU32(init+8, valPtr)

	out := s.scratch(4)
	defer s.d.Free(out)
	if s.d.PredefinedOverride(ctx, init, out) != status.OK {
		return val
	}
	repl := s.read32(out)
	if repl == 0 {
		return val
	}
	v, err := memory.ReadString(mem, repl, 256)
	if err != nil {
		panic(err)
	}
	s.printf(ctx, "ACPI: Override [%4.4s] with value \"%s\"\n", namePtr, repl)
	s.d.Free(repl)
	return v
}

func (s *Subsystem) attach(o, parent *Object) {
	o.parent = parent
	node := s.scratch(16)
	mem := s.d.Memory()
	mem.Write(node, []byte(nameSeg(o.Name)))
	mem.WriteU32(node+4, uint32(o.Type))
	o.handle = node
	s.objects[node] = o
	for _, c := range o.Children {
		s.attach(c, o)
	}
}

// peek copies length bytes of physical memory through a temporary mapping.
func (s *Subsystem) peek(ctx context.Context, phys uint64, length uint32) []byte {
	p := s.d.MapMemory(ctx, phys, length)
	if p == 0 {
		return nil
	}
	defer s.d.UnmapMemory(ctx, p, length)
	b, err := s.d.Memory().Read(p, length)
	if err != nil {
		panic(err)
	}
	return append([]byte(nil), b...)
}

func (s *Subsystem) peekTable(ctx context.Context, phys uint64) ([]byte, status.Status) {
	raw := s.peek(ctx, phys, table.HeaderSize)
	if raw == nil {
		return nil, code(status.NoMemory)
	}
	h, err := table.ParseHeader(raw)
	if err != nil {
		return nil, code(status.BadHeader)
	}
	if h.Length < table.HeaderSize || h.Length > maxTableLength {
		return nil, code(status.InvalidTableLength)
	}
	raw = s.peek(ctx, phys, h.Length)
	if raw == nil {
		return nil, code(status.NoMemory)
	}
	return raw, status.OK
}

// InitializeTables builds the root table list from the RSDP.
func (s *Subsystem) InitializeTables(ctx context.Context, initialCount uint32, allowResize bool) status.Status {
	ctx, leave := s.enter(ctx, "AcpiInitializeTables")
	defer leave()
	if !s.at(stageSubsystem) {
		return code(status.AeError)
	}

	rsdpAddr := s.d.GetRootPointer(ctx)
	if rsdpAddr == 0 {
		return code(status.NoAcpiTables)
	}
	raw := s.peek(ctx, rsdpAddr, 20)
	if raw == nil {
		return code(status.NoMemory)
	}
	if raw[15] >= 2 {
		if raw = s.peek(ctx, rsdpAddr, table.RSDPSize); raw == nil {
			return code(status.NoMemory)
		}
	}
	rsdp, err := table.ParseRSDP(raw)
	if err != nil {
		return code(status.BadSignature)
	}
	rootAddr := uint64(rsdp.RSDTAddr)
	if rsdp.Revision >= 2 && rsdp.XSDTAddr != 0 {
		rootAddr = rsdp.XSDTAddr
	}

	root, st := s.peekTable(ctx, rootAddr)
	if st != status.OK {
		return st
	}
	entries, err := table.RootEntries(root)
	if err != nil {
		return code(status.InvalidTableLength)
	}
	if uint32(len(entries)) > initialCount && !allowResize {
		return code(status.NoMemory)
	}
	for _, addr := range entries {
		if addr == 0 {
			continue
		}
		if st := s.install(ctx, addr); st != status.OK {
			return st
		}
	}

	if t := s.find("FACP", 1); t != nil {
		raw, err := s.d.Memory().Read(t.ptr, t.length)
		if err != nil {
			panic(err)
		}
		fadt, err := table.ParseFADT(raw)
		if err != nil {
			return code(status.BadHeader)
		}
		s.fadt = &fadt
		if dsdt := fadt.DSDTAddress(); dsdt != 0 {
			if st := s.install(ctx, dsdt); st != status.OK {
				return st
			}
		}
	}

	s.advance(stageTables)
	return status.OK
}

// install maps a table, offers it for override and adds it to the list.
func (s *Subsystem) install(ctx context.Context, phys uint64) status.Status {
	raw := s.peek(ctx, phys, table.HeaderSize)
	if raw == nil {
		return code(status.NoMemory)
	}
	h, err := table.ParseHeader(raw)
	if err != nil {
		return code(status.BadHeader)
	}
	if h.Length < table.HeaderSize || h.Length > maxTableLength {
		return code(status.InvalidTableLength)
	}
	ptr := s.d.MapMemory(ctx, phys, h.Length)
	if ptr == 0 {
		return code(status.NoMemory)
	}
	t := &loaded{sig: h.Sig(), ptr: ptr, length: h.Length, phys: phys, mapped: true}

	out := s.scratch(8)
	defer s.d.Free(out)
	if st := s.d.TableOverride(ctx, ptr, out); st != status.OK {
		return st
	}
	if repl := s.read32(out); repl != 0 {
		s.d.UnmapMemory(ctx, ptr, h.Length)
		length, err := s.d.Memory().ReadU32(repl + 4)
		if err != nil {
			panic(err)
		}
		t.ptr, t.length, t.phys, t.mapped = repl, length, 0, false
		s.printf(ctx, "ACPI: Table Upgrade: override [%4.4s]\n", repl)
	} else {
		lengthOut := s.scratch(4)
		defer s.d.Free(lengthOut)
		st := s.d.PhysicalTableOverride(ctx, ptr, out, lengthOut)
		addr, _ := s.d.Memory().ReadU64(out)
		if st == status.OK && addr != 0 {
			length := s.read32(lengthOut)
			np := s.d.MapMemory(ctx, addr, length)
			if np == 0 {
				return code(status.NoMemory)
			}
			s.d.UnmapMemory(ctx, ptr, h.Length)
			t.ptr, t.length, t.phys = np, length, addr
		}
	}

	s.mu.Lock()
	s.tables = append(s.tables, t)
	s.mu.Unlock()

	rev, _ := s.d.Memory().ReadU8(t.ptr + 8)
	s.printf(ctx, "ACPI: %4.4s 0x%8.8X%8.8X %06X (v%.2d %6.6s)\n",
		t.ptr, uint32(t.phys>>32), uint32(t.phys), t.length, uint32(rev), t.ptr+10)
	return status.OK
}

// find returns the instance'th table with signature sig, counting from 1.
func (s *Subsystem) find(sig string, instance uint32) *loaded {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint32
	for _, t := range s.tables {
		if t.sig != sig {
			continue
		}
		if n++; n >= instance {
			return t
		}
	}
	return nil
}

// LoadTables loads the definition blocks into the namespace.
func (s *Subsystem) LoadTables(ctx context.Context) status.Status {
	ctx, leave := s.enter(ctx, "AcpiLoadTables")
	defer leave()
	if !s.at(stageTables) || s.find("DSDT", 1) == nil {
		return code(status.NoAcpiTables)
	}

	sb := s.root.child("_SB_")
	for _, dev := range s.devices {
		sb.Children = append(sb.Children, dev)
		s.attach(dev, sb)
	}

	var aml uint32
	s.mu.Lock()
	for _, t := range s.tables {
		if t.sig == "DSDT" || t.sig == "SSDT" {
			aml++
		}
	}
	s.mu.Unlock()
	s.printf(ctx, "ACPI: %u ACPI AML tables successfully acquired and loaded\n", aml)

	s.advance(stageLoaded)
	return status.OK
}

// EnableSubsystem switches the platform to ACPI mode and installs the SCI
// handler.
func (s *Subsystem) EnableSubsystem(ctx context.Context, flags uint32) status.Status {
	ctx, leave := s.enter(ctx, "AcpiEnableSubsystem")
	defer leave()
	if !s.at(stageLoaded) {
		return code(status.NoNamespace)
	}
	fixed := s.fadt != nil && !s.fadt.HardwareReduced()

	if fixed && flags&acpica.NoHardwareInit == 0 && flags&acpica.NoACPIEnable == 0 {
		if st := s.enableACPI(ctx); st != status.OK {
			return st
		}
	}
	if fixed && flags&acpica.NoHandlerInit == 0 && s.fadt.SCIInterrupt != 0 {
		irq := uint32(s.fadt.SCIInterrupt)
		if st := s.d.InstallInterruptHandler(ctx, irq, s.sciFn, 0); st != status.OK {
			return st
		}
		s.mu.Lock()
		s.sciIRQ, s.sciInstalled = irq, true
		s.mu.Unlock()
	}

	s.advance(stageEnabled)
	return status.OK
}

func (s *Subsystem) enableACPI(ctx context.Context) status.Status {
	out := s.scratch(4)
	defer s.d.Free(out)
	enabled := func() (bool, status.Status) {
		if s.fadt.PM1aControlBlock == 0 {
			return true, status.OK
		}
		if st := s.d.ReadPort(ctx, s.fadt.PM1aControlBlock, out, osl.Width16); st != status.OK {
			return false, st
		}
		return s.read32(out)&sciEnable != 0, status.OK
	}

	if on, st := enabled(); st != status.OK || on {
		return st
	}
	if s.fadt.SMICommandPort == 0 || s.fadt.AcpiEnable == 0 {
		return code(status.NoHardwareResponse)
	}
	if st := s.d.WritePort(ctx, s.fadt.SMICommandPort, uint32(s.fadt.AcpiEnable), osl.Width8); st != status.OK {
		return st
	}
	for range 3 {
		on, st := enabled()
		if st != status.OK {
			return st
		}
		if on {
			s.printf(ctx, "ACPI: Enabled ACPI mode\n")
			return status.OK
		}
		s.d.Sleep(ctx, 1)
	}
	return code(status.NoHardwareResponse)
}

// InitializeObjects finishes device initialization. A bus check for \_SB is
// queued through AcpiOsExecute and awaited.
func (s *Subsystem) InitializeObjects(ctx context.Context, flags uint32) status.Status {
	ctx, leave := s.enter(ctx, "AcpiInitializeObjects")
	defer leave()
	if !s.at(stageEnabled) {
		return code(status.NoNamespace)
	}

	if flags&acpica.NoDeviceInit == 0 {
		sb := s.root.child("_SB_")
		st := s.d.Execute(ctx, uint32(callback.ExecNotifyHandler), s.notifyFn, sb.handle)
		if st != status.OK {
			s.printf(ctx, "ACPI Warning: could not queue notify, status 0x%4.4X\n", uint32(st))
		}
		s.d.WaitEventsComplete(ctx)
	}

	s.advance(stageReady)
	return status.OK
}

// Terminate releases every resource the subsystem holds.
func (s *Subsystem) Terminate(ctx context.Context) status.Status {
	ctx, leave := s.enter(ctx, "AcpiTerminate")
	defer leave()

	s.mu.Lock()
	irq, installed := s.sciIRQ, s.sciInstalled
	s.sciInstalled = false
	tables := s.tables
	s.tables = nil
	s.mu.Unlock()

	if installed {
		s.d.RemoveInterruptHandler(ctx, irq, s.sciFn)
	}
	for _, t := range tables {
		if t.mapped {
			s.d.UnmapMemory(ctx, t.ptr, t.length)
		} else {
			s.d.Free(t.ptr)
		}
	}
	for h, o := range s.objects {
		s.d.Free(h)
		o.handle = 0
	}
	clear(s.objects)

	s.d.DeleteCache(s.cacheH)
	s.d.DeleteSemaphore(s.semH)
	s.d.DeleteLock(s.lockH)
	st := s.d.Terminate(ctx)

	s.advance(stageNone)
	return st
}

// Close marks the instance closed.
func (s *Subsystem) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
