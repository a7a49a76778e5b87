package table

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// OEM identifies the producer written into built table headers.
type OEM struct {
	ID       string
	TableID  string
	Revision uint32
}

// DefaultOEM is used by the Build functions.
var DefaultOEM = OEM{ID: "WIPPY", TableID: "ACPIHOST", Revision: 1}

const creatorID = 0x54534f48 // "HOST"

func newHeader(sig string, revision uint8) Header {
	var h Header
	copy(h.Signature[:], sig)
	h.Revision = revision
	pad(h.OEMID[:], DefaultOEM.ID)
	pad(h.OEMTableID[:], DefaultOEM.TableID)
	h.OEMRevision = DefaultOEM.Revision
	h.CreatorID = creatorID
	h.CreatorRevision = 1
	return h
}

// newSDT starts a table with its 36-byte header. Length and checksum are
// filled in by Finalize.
func newSDT(sig string, revision uint8) *bytes.Buffer {
	h := newHeader(sig, revision)
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, &h)
	return buf
}

func pad(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = ' '
	}
}

// Finalize writes the length of b at offset 4 and fixes the checksum byte at
// offset 9 so the table sums to zero.
func Finalize(b []byte) []byte {
	binary.LittleEndian.PutUint32(b[4:], uint32(len(b)))
	b[9] = 0
	b[9] = -Checksum(b)
	return b
}

// BuildSDT builds a table with an arbitrary body.
func BuildSDT(sig string, revision uint8, body []byte) []byte {
	buf := newSDT(sig, revision)
	buf.Write(body)
	return Finalize(buf.Bytes())
}

// BuildRSDP builds an ACPI 2.0 root pointer referencing the XSDT.
func BuildRSDP(xsdtAddr uint64) []byte {
	r := RSDP{Revision: 2, Length: RSDPSize, XSDTAddr: xsdtAddr}
	copy(r.Signature[:], RSDPSignature)
	pad(r.OEMID[:], DefaultOEM.ID)

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, &r)
	b := buf.Bytes()

	// Checksum (byte 8) over the first 20 bytes, extended checksum
	// (byte 32) over the full structure.
	b[8] = -Checksum(b[:20])
	b[32] = -Checksum(b)
	return b
}

// BuildXSDT builds an XSDT listing the given table addresses.
func BuildXSDT(entries []uint64) []byte {
	buf := newSDT("XSDT", 1)
	for _, e := range entries {
		binary.Write(buf, binary.LittleEndian, e)
	}
	return Finalize(buf.Bytes())
}

// BuildFADT serializes f as a revision 6 FADT. The header fields of f are
// replaced.
func BuildFADT(f FADT) []byte {
	f.Header = newHeader("FACP", 6)
	f.MinorVersion = 4

	out := &bytes.Buffer{}
	binary.Write(out, binary.LittleEndian, &f)
	return Finalize(out.Bytes())
}

// NewMADTEntry encodes one of the typed MADT structures.
func NewMADTEntry(v any) MADTEntry {
	var t MADTEntryType
	switch v.(type) {
	case MADTLocalAPIC:
		t = MADTEntryLocalAPIC
	case MADTIOAPIC:
		t = MADTEntryIOAPIC
	case MADTInterruptSourceOverride:
		t = MADTEntryInterruptSrcOverride
	case MADTNMISource:
		t = MADTEntryNMISource
	case MADTLocalAPICNMI:
		t = MADTEntryLocalAPICNMI
	case MADTLocalAPICAddrOverride:
		t = MADTEntryLocalAPICAddrOverride
	case MADTLocalX2APIC:
		t = MADTEntryLocalX2APIC
	case MADTEntry:
		return v.(MADTEntry)
	default:
		panic(fmt.Sprintf("table: %T is not a MADT entry", v))
	}
	body := &bytes.Buffer{}
	binary.Write(body, binary.LittleEndian, v)
	return MADTEntry{Type: t, Length: uint8(body.Len() + 2), Body: body.Bytes()}
}

// BuildMADT builds a MADT from typed entries (see NewMADTEntry).
func BuildMADT(lapicAddr, flags uint32, entries ...any) []byte {
	buf := newSDT("APIC", 5)
	binary.Write(buf, binary.LittleEndian, lapicAddr)
	binary.Write(buf, binary.LittleEndian, flags)
	for _, v := range entries {
		e := NewMADTEntry(v)
		buf.WriteByte(byte(e.Type))
		buf.WriteByte(e.Length)
		buf.Write(e.Body)
	}
	return Finalize(buf.Bytes())
}

// BuildMCFG builds a MCFG table from allocation records.
func BuildMCFG(allocs []MCFGAllocation) []byte {
	buf := newSDT("MCFG", 1)
	buf.Write(make([]byte, mcfgReserved))
	for _, a := range allocs {
		rec := make([]byte, mcfgEntrySize)
		binary.LittleEndian.PutUint64(rec, a.BaseAddress)
		binary.LittleEndian.PutUint16(rec[8:], a.Segment)
		rec[10] = a.StartBus
		rec[11] = a.EndBus
		buf.Write(rec)
	}
	return Finalize(buf.Bytes())
}

// BuildDSDT wraps AML terms in a DSDT.
func BuildDSDT(terms ...[]byte) []byte {
	return BuildSDT("DSDT", 2, concat(terms))
}

// BuildPRT lays entries out the way the native routing table query returns
// them: 8-byte aligned records ended by a zero length word.
func BuildPRT(entries []PRTEntry) []byte {
	var out []byte
	for _, e := range entries {
		length := (prtSourceOff + len(e.Source) + 1 + 7) &^ 7
		rec := make([]byte, length)
		binary.LittleEndian.PutUint32(rec[prtLengthOff:], uint32(length))
		binary.LittleEndian.PutUint32(rec[prtPinOff:], uint32(e.Pin))
		binary.LittleEndian.PutUint64(rec[prtAddressOff:], uint64(e.Device)<<16|prtAnyFunction)
		binary.LittleEndian.PutUint32(rec[prtSourceIndexOff:], e.SourceIndex)
		copy(rec[prtSourceOff:], e.Source)
		out = append(out, rec...)
	}
	return append(out, 0, 0, 0, 0)
}
