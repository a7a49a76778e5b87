package table

import (
	"bytes"
	"encoding/binary"

	"github.com/wippyai/acpica-host/errors"
)

// HeaderSize is the size of the standard description table header.
const HeaderSize = 36

// Header defines the common header for all ACPI-related tables.
type Header struct {
	// The signature defines the table type.
	Signature [4]byte

	// The length of the table, header included.
	Length uint32

	Revision uint8

	// A value that when added to the sum of all other bytes in the table
	// should result in the value 0.
	Checksum uint8

	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	// Information about the ASL compiler that generated this table
	CreatorID       uint32
	CreatorRevision uint32
}

// Sig returns the signature as a string.
func (h Header) Sig() string { return string(h.Signature[:]) }

// OEM returns the OEM ID with trailing padding removed.
func (h Header) OEM() string { return string(bytes.TrimRight(h.OEMID[:], " \x00")) }

// ParseHeader decodes the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, errors.InvalidData(errors.PhaseDecode, "header", "table shorter than its header")
	}
	binary.Read(bytes.NewReader(b[:HeaderSize]), binary.LittleEndian, &h)
	return h, nil
}

// Checksum returns the byte sum of b. A valid table sums to zero.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum += v
	}
	return sum
}

// RSDP is the ACPI 2.0+ root system description pointer.
type RSDP struct {
	// The signature must contain "RSD PTR " (last byte is a space).
	Signature [8]byte
	Checksum  uint8
	OEMID     [6]byte

	// ACPI revision number. It is 0 for ACPI1.0 and 2 for later versions.
	Revision uint8
	RSDTAddr uint32

	// Fields below are only valid when Revision >= 2.
	Length           uint32
	XSDTAddr         uint64
	ExtendedChecksum uint8
	_                [3]byte
}

// RSDPSize is the size of the ACPI 2.0+ RSDP; ACPI 1.0 uses the first 20 bytes.
const RSDPSize = 36

// RSDPSignature identifies the root pointer.
const RSDPSignature = "RSD PTR "

// ParseRSDP decodes a root pointer, accepting ACPI 1.0 (20 byte) descriptors.
func ParseRSDP(b []byte) (RSDP, error) {
	var r RSDP
	if len(b) < 20 || string(b[:8]) != RSDPSignature {
		return r, errors.InvalidData(errors.PhaseDecode, "rsdp", "missing RSD PTR signature")
	}
	buf := make([]byte, RSDPSize)
	n := copy(buf, b)
	if b[15] < 2 && n > 20 {
		clear(buf[20:])
	}
	binary.Read(bytes.NewReader(buf), binary.LittleEndian, &r)
	return r, nil
}

// Valid reports whether the checksums of the descriptor in b are correct.
func (r RSDP) Valid(b []byte) bool {
	if len(b) < 20 || Checksum(b[:20]) != 0 {
		return false
	}
	if r.Revision < 2 {
		return true
	}
	return int(r.Length) <= len(b) && Checksum(b[:r.Length]) == 0
}

// RootEntries decodes the table pointers of an RSDT (4-byte entries) or XSDT
// (8-byte entries).
func RootEntries(b []byte) ([]uint64, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if int(h.Length) > len(b) || h.Length < HeaderSize {
		return nil, errors.InvalidData(errors.PhaseDecode, h.Sig(), "table length exceeds data")
	}
	width := 4
	if h.Sig() == "XSDT" {
		width = 8
	}
	body := b[HeaderSize:h.Length]
	out := make([]uint64, 0, len(body)/width)
	for len(body) >= width {
		if width == 8 {
			out = append(out, binary.LittleEndian.Uint64(body))
		} else {
			out = append(out, uint64(binary.LittleEndian.Uint32(body)))
		}
		body = body[width:]
	}
	return out, nil
}
