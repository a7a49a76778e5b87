package table

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/acpica-host/errors"
)

// MADTEntryType identifies an interrupt controller structure in the MADT.
type MADTEntryType uint8

const (
	MADTEntryLocalAPIC MADTEntryType = iota
	MADTEntryIOAPIC
	MADTEntryInterruptSrcOverride
	MADTEntryNMISource
	MADTEntryLocalAPICNMI
	MADTEntryLocalAPICAddrOverride
	MADTEntryLocalX2APIC MADTEntryType = 9
)

func (t MADTEntryType) String() string {
	switch t {
	case MADTEntryLocalAPIC:
		return "LocalAPIC"
	case MADTEntryIOAPIC:
		return "IOAPIC"
	case MADTEntryInterruptSrcOverride:
		return "InterruptSourceOverride"
	case MADTEntryNMISource:
		return "NMISource"
	case MADTEntryLocalAPICNMI:
		return "LocalAPICNMI"
	case MADTEntryLocalAPICAddrOverride:
		return "LocalAPICAddressOverride"
	case MADTEntryLocalX2APIC:
		return "LocalX2APIC"
	}
	return "Unknown"
}

// MADT describes all interrupt controllers present within the system.
type MADT struct {
	Header

	LocalControllerAddress uint32
	Flags                  uint32

	entries []byte
}

// MADTPCATCompat is set when the system also has a PC-AT compatible dual 8259 setup.
const MADTPCATCompat = 1

// MADTEntry is a single interrupt controller structure. Body excludes the
// two-byte type/length prefix.
type MADTEntry struct {
	Type   MADTEntryType
	Length uint8
	Body   []byte
}

// MADTLocalAPIC describes a single physical processor and its local
// interrupt controller.
type MADTLocalAPIC struct {
	ProcessorID uint8
	APICID      uint8
	Flags       uint32
}

// Enabled reports whether the processor is usable.
func (e MADTLocalAPIC) Enabled() bool { return e.Flags&1 != 0 }

// MADTIOAPIC describes an I/O Advanced Programmable Interrupt Controller.
type MADTIOAPIC struct {
	APICID uint8
	_      uint8

	Address uint32

	// The global system interrupt number where this APIC's inputs start.
	SysInterruptBase uint32
}

// MADTInterruptSourceOverride describes how an ISA interrupt maps to a
// global system interrupt.
type MADTInterruptSourceOverride struct {
	BusSrc       uint8
	IRQSrc       uint8
	GlobalSysInt uint32
	Flags        uint16
}

// MADTNMISource marks a global system interrupt as non-maskable.
type MADTNMISource struct {
	Flags        uint16
	GlobalSysInt uint32
}

// MADTLocalAPICNMI describes a local APIC input wired to NMI.
type MADTLocalAPICNMI struct {
	ProcessorID uint8
	Flags       uint16
	LINT        uint8
}

// MADTLocalAPICAddrOverride supplies a 64-bit local APIC address.
type MADTLocalAPICAddrOverride struct {
	_       uint16
	Address uint64
}

// MADTLocalX2APIC describes a processor using the x2APIC architecture.
type MADTLocalX2APIC struct {
	_            uint16
	X2APICID     uint32
	Flags        uint32
	ProcessorUID uint32
}

// Decode returns the typed structure for known entry types. Unknown types
// return the entry itself.
func (e MADTEntry) Decode() (any, error) {
	var v any
	switch e.Type {
	case MADTEntryLocalAPIC:
		v = &MADTLocalAPIC{}
	case MADTEntryIOAPIC:
		v = &MADTIOAPIC{}
	case MADTEntryInterruptSrcOverride:
		v = &MADTInterruptSourceOverride{}
	case MADTEntryNMISource:
		v = &MADTNMISource{}
	case MADTEntryLocalAPICNMI:
		v = &MADTLocalAPICNMI{}
	case MADTEntryLocalAPICAddrOverride:
		v = &MADTLocalAPICAddrOverride{}
	case MADTEntryLocalX2APIC:
		v = &MADTLocalX2APIC{}
	default:
		return e, nil
	}
	if binary.Size(v) > len(e.Body) {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Op("APIC").
			Detail("%s entry is %d bytes, need %d", e.Type, len(e.Body)+2, binary.Size(v)+2).
			Build()
	}
	binary.Read(bytes.NewReader(e.Body), binary.LittleEndian, v)
	switch t := v.(type) {
	case *MADTLocalAPIC:
		return *t, nil
	case *MADTIOAPIC:
		return *t, nil
	case *MADTInterruptSourceOverride:
		return *t, nil
	case *MADTNMISource:
		return *t, nil
	case *MADTLocalAPICNMI:
		return *t, nil
	case *MADTLocalAPICAddrOverride:
		return *t, nil
	case *MADTLocalX2APIC:
		return *t, nil
	}
	return v, nil
}

// ParseMADT decodes the fixed part of a MADT and keeps a copy of its entries.
func ParseMADT(b []byte) (MADT, error) {
	var m MADT
	h, err := ParseHeader(b)
	if err != nil {
		return m, err
	}
	if h.Sig() != "APIC" {
		return m, errors.InvalidData(errors.PhaseDecode, "APIC", "signature is "+h.Sig())
	}
	if int(h.Length) > len(b) || h.Length < HeaderSize+8 {
		return m, errors.InvalidData(errors.PhaseDecode, "APIC", "table length exceeds data")
	}
	m.Header = h
	m.LocalControllerAddress = binary.LittleEndian.Uint32(b[HeaderSize:])
	m.Flags = binary.LittleEndian.Uint32(b[HeaderSize+4:])
	m.entries = bytes.Clone(b[HeaderSize+8 : h.Length])
	return m, nil
}

// Entries returns a fresh cursor over the interrupt controller structures.
func (m MADT) Entries() *MADTIterator {
	return &MADTIterator{data: m.entries}
}

// MADTIterator walks MADT entries. Check Err after Next returns false.
type MADTIterator struct {
	data []byte
	off  int
	err  error
}

// Next returns the next entry.
func (it *MADTIterator) Next() (MADTEntry, bool) {
	if it.err != nil || it.off >= len(it.data) {
		return MADTEntry{}, false
	}
	rest := it.data[it.off:]
	if len(rest) < 2 {
		it.err = errors.InvalidData(errors.PhaseDecode, "APIC", "truncated entry header")
		return MADTEntry{}, false
	}
	length := int(rest[1])
	if length < 2 || length > len(rest) {
		it.err = errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Op("APIC").
			Value(it.off).
			Detail("entry at offset %d has invalid length %d", it.off, length).
			Build()
		return MADTEntry{}, false
	}
	it.off += length
	return MADTEntry{Type: MADTEntryType(rest[0]), Length: uint8(length), Body: rest[2:length]}, true
}

// Err returns the first malformed-entry error.
func (it *MADTIterator) Err() error { return it.err }
