package table

import (
	"encoding/binary"

	"github.com/wippyai/acpica-host/errors"
)

// MCFGAllocation describes the memory mapped configuration space of one PCI
// segment's bus range.
type MCFGAllocation struct {
	BaseAddress uint64
	Segment     uint16
	StartBus    uint8
	EndBus      uint8
}

const (
	mcfgReserved  = 8
	mcfgEntrySize = 16
)

// ConfigAddress returns the physical address of a function's configuration space.
func (a MCFGAllocation) ConfigAddress(bus, device, function uint8) (uint64, bool) {
	if bus < a.StartBus || bus > a.EndBus || device > 31 || function > 7 {
		return 0, false
	}
	off := uint64(bus-a.StartBus)<<20 | uint64(device)<<15 | uint64(function)<<12
	return a.BaseAddress + off, true
}

// ParseMCFG decodes the allocation records of a MCFG table.
func ParseMCFG(b []byte) ([]MCFGAllocation, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if h.Sig() != "MCFG" {
		return nil, errors.InvalidData(errors.PhaseDecode, "MCFG", "signature is "+h.Sig())
	}
	if int(h.Length) > len(b) || h.Length < HeaderSize+mcfgReserved {
		return nil, errors.InvalidData(errors.PhaseDecode, "MCFG", "table length exceeds data")
	}
	body := b[HeaderSize+mcfgReserved : h.Length]
	if len(body)%mcfgEntrySize != 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, "MCFG", "trailing partial allocation record")
	}
	out := make([]MCFGAllocation, 0, len(body)/mcfgEntrySize)
	for ; len(body) > 0; body = body[mcfgEntrySize:] {
		out = append(out, MCFGAllocation{
			BaseAddress: binary.LittleEndian.Uint64(body),
			Segment:     binary.LittleEndian.Uint16(body[8:]),
			StartBus:    body[10],
			EndBus:      body[11],
		})
	}
	return out, nil
}
