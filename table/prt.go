package table

import (
	"encoding/binary"
	"iter"
	"unicode/utf8"

	"github.com/wippyai/acpica-host/errors"
)

// Pin is a PCI interrupt pin.
type Pin uint8

const (
	PinA Pin = iota
	PinB
	PinC
	PinD
)

func (p Pin) String() string {
	return "INT" + string(rune('A'+p))
}

// PRT record layout, as produced by AcpiGetIrqRoutingTable.
const (
	prtLengthOff      = 0
	prtPinOff         = 4
	prtAddressOff     = 8
	prtSourceIndexOff = 16
	prtSourceOff      = 20

	// prtAnyFunction is the function field of every _PRT address.
	prtAnyFunction = 0xFFFF
)

// PRTEntry is one decoded PCI routing entry.
type PRTEntry struct {
	// Device number on the bus the routing table belongs to.
	Device uint16
	Pin    Pin

	// Source names the link device the pin is wired to. Empty when the pin
	// is hardwired and SourceIndex is the global system interrupt.
	Source      string
	SourceIndex uint32
}

// Hardwired reports whether SourceIndex is a global system interrupt.
func (e PRTEntry) Hardwired() bool { return e.Source == "" }

// PRT is an owned copy of a routing table buffer.
type PRT struct {
	data []byte
}

// NewPRT wraps the raw buffer returned by the native routing table query.
func NewPRT(data []byte) PRT { return PRT{data: data} }

// Iter returns a cursor positioned at the first record.
func (p PRT) Iter() *PRTIterator {
	return &PRTIterator{data: p.data}
}

// All yields every entry, restarting from the first record on each call.
func (p PRT) All() iter.Seq[PRTEntry] {
	return func(yield func(PRTEntry) bool) {
		it := p.Iter()
		for {
			e, ok := it.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// PRTIterator decodes records one by one, advancing by each record's
// declared length. It cannot be rewound.
type PRTIterator struct {
	data []byte
	off  int
}

// Next decodes the next record. A record that breaks the routing table
// layout panics: the buffer comes straight from the native subsystem.
func (it *PRTIterator) Next() (PRTEntry, bool) {
	rest := it.data[it.off:]
	if len(rest) < 4 {
		return PRTEntry{}, false
	}
	length := binary.LittleEndian.Uint32(rest[prtLengthOff:])
	if length == 0 {
		return PRTEntry{}, false
	}
	if length <= prtSourceOff || uint64(length) > uint64(len(rest)) {
		errors.Fatal(errors.PhaseDecode, "_PRT", "record at offset %d has length %d (%d bytes left)", it.off, length, len(rest))
	}
	rec := rest[:length]

	rawPin := binary.LittleEndian.Uint32(rec[prtPinOff:])
	if rawPin > uint32(PinD) {
		errors.Fatal(errors.PhaseDecode, "_PRT", "pin %d out of range", rawPin)
	}
	addr := binary.LittleEndian.Uint64(rec[prtAddressOff:])
	if addr&0xFFFF != prtAnyFunction {
		errors.Fatal(errors.PhaseDecode, "_PRT", "address 0x%x does not name all functions", addr)
	}

	src := rec[prtSourceOff:]
	for i, c := range src {
		if c == 0 {
			src = src[:i]
			break
		}
	}
	if !utf8.Valid(src) {
		panic(errors.InvalidUTF8(errors.PhaseDecode, "_PRT", src))
	}

	it.off += int(length)
	return PRTEntry{
		Device:      uint16(addr >> 16),
		Pin:         Pin(rawPin),
		Source:      string(src),
		SourceIndex: binary.LittleEndian.Uint32(rec[prtSourceIndexOff:]),
	}, true
}
