package hosted

import (
	"github.com/wippyai/acpica-host/table"
)

// Platform is the fixed hardware a synthetic firmware image advertises.
type Platform struct {
	SCI         uint16
	SMICommand  uint32
	AcpiEnable  uint8
	AcpiDisable uint8
	PM1aControl uint32
}

// DefaultPlatform uses the legacy PC assignments.
var DefaultPlatform = Platform{
	SCI:         9,
	SMICommand:  0xB2,
	AcpiEnable:  0xF0,
	AcpiDisable: 0xF1,
	PM1aControl: 0x604,
}

// TableBase is where Firmware places the description tables.
const TableBase = 0x7FF0_0000

// Firmware is a synthetic platform: tables in physical memory and the
// devices the FADT points at.
type Firmware struct {
	Platform
	Images []Image
	PM1    *PM1Control
	SMI    *SMICommand

	// Tables maps signatures to physical addresses.
	Tables map[string]uint64
}

func align16(n int) int { return (n + 15) &^ 15 }

// NewFirmware lays out dsdt and extra tables behind a FADT and an XSDT, and
// puts the root pointer at the start of the BIOS area.
func NewFirmware(p Platform, dsdt []byte, extra ...[]byte) *Firmware {
	f := &Firmware{Platform: p, Tables: make(map[string]uint64)}
	var img []byte
	place := func(t []byte) uint64 {
		addr := TableBase + uint64(len(img))
		img = append(img, t...)
		img = append(img, make([]byte, align16(len(img))-len(img))...)
		if h, err := table.ParseHeader(t); err == nil {
			if _, ok := f.Tables[h.Sig()]; !ok {
				f.Tables[h.Sig()] = addr
			}
		}
		return addr
	}

	dsdtAddr := place(dsdt)
	var entries []uint64
	entries = append(entries, place(table.BuildFADT(table.FADT{
		Dsdt:             uint32(dsdtAddr),
		XDsdt:            dsdtAddr,
		SCIInterrupt:     p.SCI,
		SMICommandPort:   p.SMICommand,
		AcpiEnable:       p.AcpiEnable,
		AcpiDisable:      p.AcpiDisable,
		PM1aControlBlock: p.PM1aControl,
		PM1ControlLength: 2,
	})))
	for _, t := range extra {
		entries = append(entries, place(t))
	}
	xsdt := place(table.BuildXSDT(entries))

	bios := make([]byte, biosAreaEnd-biosAreaStart)
	copy(bios, table.BuildRSDP(xsdt))

	f.Images = []Image{
		{Base: biosAreaStart, Data: bios},
		{Base: TableBase, Data: img},
	}
	f.PM1 = &PM1Control{}
	f.SMI = &SMICommand{Enable: p.AcpiEnable, Disable: p.AcpiDisable, PM1: f.PM1}
	return f
}

// RSDP returns the address of the root pointer.
func (f *Firmware) RSDP() uint64 { return biosAreaStart }

// Config returns a host configuration serving f. The root pointer is found
// by scanning.
func (f *Firmware) Config() Config {
	return Config{
		Images: f.Images,
		Ports: []PortRange{
			{Base: f.PM1aControl, Size: 2, Device: f.PM1},
			{Base: f.SMICommand, Size: 1, Device: f.SMI},
		},
	}
}
