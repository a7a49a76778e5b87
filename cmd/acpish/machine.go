package main

import (
	"github.com/wippyai/acpica-host/acpica/acpicatest"
	"github.com/wippyai/acpica-host/hosted"
	"github.com/wippyai/acpica-host/table"
)

// node describes one device of the synthetic machine. The same description
// produces the DSDT and the simulated namespace.
type node struct {
	name     string
	hid      string
	cid      string
	uid      string
	adr      uint64
	hasADR   bool
	sta      uint64
	hasSTA   bool
	prt      []table.PRTEntry
	children []node
}

func device(name, hid string) node { return node{name: name, hid: hid} }

func (n node) withUID(uid string) node          { n.uid = uid; return n }
func (n node) withCID(cid string) node          { n.cid = cid; return n }
func (n node) withADR(adr uint64) node          { n.adr, n.hasADR = adr, true; return n }
func (n node) withSTA(sta uint64) node          { n.sta, n.hasSTA = sta, true; return n }
func (n node) withPRT(e ...table.PRTEntry) node { n.prt = e; return n }
func (n node) with(children ...node) node       { n.children = children; return n }

// syntheticMachine is a small PC: one PCI root bridge with an LPC bridge,
// two interrupt links and a power button.
func syntheticMachine() []node {
	return []node{
		device("PCI0", "PNP0A08").withCID("PNP0A03").withUID("0").withADR(0).
			withPRT(
				table.PRTEntry{Device: 1, Pin: table.PinA, Source: `\_SB_.LNKA`},
				table.PRTEntry{Device: 1, Pin: table.PinB, Source: `\_SB_.LNKB`},
				table.PRTEntry{Device: 2, Pin: table.PinA, SourceIndex: 16},
				table.PRTEntry{Device: 3, Pin: table.PinA, SourceIndex: 17},
			).
			with(
				device("LPC", "").withADR(0x001F0000).with(
					device("COM1", "PNP0501").withUID("1"),
					device("PS2K", "PNP0303"),
					device("RTC", "PNP0B00"),
				),
			),
		device("LNKA", "PNP0C0F").withUID("1"),
		device("LNKB", "PNP0C0F").withUID("2"),
		device("PWRB", "PNP0C0C"),
		device("FLPY", "PNP0700").withSTA(0),
	}
}

func hidTerm(hid string) []byte {
	if len(hid) == 7 {
		return table.AMLName("_HID", table.AMLInteger(uint64(table.EISAID(hid))))
	}
	return table.AMLName("_HID", table.AMLString(hid))
}

func (n node) aml() []byte {
	var terms [][]byte
	if n.hid != "" {
		terms = append(terms, hidTerm(n.hid))
	}
	if n.cid != "" {
		terms = append(terms, table.AMLName("_CID", table.AMLInteger(uint64(table.EISAID(n.cid)))))
	}
	if n.uid != "" {
		terms = append(terms, table.AMLName("_UID", table.AMLString(n.uid)))
	}
	if n.hasADR {
		terms = append(terms, table.AMLName("_ADR", table.AMLInteger(n.adr)))
	}
	if n.hasSTA {
		terms = append(terms, table.AMLMethod("_STA", 0, table.AMLInteger(n.sta)))
	}
	if len(n.prt) > 0 {
		var entries [][]byte
		for _, e := range n.prt {
			src := table.AMLInteger(0)
			if e.Source != "" {
				src = table.AMLString(e.Source)
			}
			entries = append(entries, table.AMLPackage(
				table.AMLInteger(uint64(e.Device)<<16|0xFFFF),
				table.AMLInteger(uint64(e.Pin)),
				src,
				table.AMLInteger(uint64(e.SourceIndex)),
			))
		}
		terms = append(terms, table.AMLName("_PRT", table.AMLPackage(entries...)))
	}
	for _, c := range n.children {
		terms = append(terms, c.aml())
	}
	return table.AMLDevice(n.name, terms...)
}

func (n node) object() *acpicatest.Object {
	var opts []acpicatest.Option
	if n.hid != "" {
		opts = append(opts, acpicatest.HID(n.hid))
	}
	if n.cid != "" {
		opts = append(opts, acpicatest.CID(n.cid))
	}
	if n.uid != "" {
		opts = append(opts, acpicatest.UID(n.uid))
	}
	if n.hasADR {
		opts = append(opts, acpicatest.ADR(n.adr))
	}
	if n.hasSTA {
		opts = append(opts, acpicatest.STA(n.sta))
	}
	if len(n.prt) > 0 {
		opts = append(opts, acpicatest.PRT(n.prt...))
	}
	var children []*acpicatest.Object
	for _, c := range n.children {
		children = append(children, c.object())
	}
	if len(children) > 0 {
		opts = append(opts, acpicatest.Children(children...))
	}
	return acpicatest.Device(n.name, opts...)
}

// syntheticDSDT encodes the machine under \_SB_.
func syntheticDSDT(nodes []node) []byte {
	var devs [][]byte
	for _, n := range nodes {
		devs = append(devs, n.aml())
	}
	return table.BuildDSDT(table.AMLScope(`\_SB_`, devs...))
}

func syntheticObjects(nodes []node) []*acpicatest.Object {
	out := make([]*acpicatest.Object, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.object())
	}
	return out
}

// syntheticFirmware builds the tables of the synthetic machine in memory.
func syntheticFirmware(nodes []node) *hosted.Firmware {
	madt := table.BuildMADT(0xFEE00000, table.MADTPCATCompat,
		table.MADTLocalAPIC{ProcessorID: 0, APICID: 0, Flags: 1},
		table.MADTLocalAPIC{ProcessorID: 1, APICID: 1, Flags: 1},
		table.MADTIOAPIC{APICID: 2, Address: 0xFEC00000},
		table.MADTInterruptSourceOverride{IRQSrc: 0, GlobalSysInt: 2},
		table.MADTInterruptSourceOverride{IRQSrc: 9, GlobalSysInt: 9, Flags: 0x000D},
	)
	mcfg := table.BuildMCFG([]table.MCFGAllocation{
		{BaseAddress: 0xB0000000, Segment: 0, StartBus: 0, EndBus: 0xFF},
	})
	return hosted.NewFirmware(hosted.DefaultPlatform, syntheticDSDT(nodes), madt, mcfg)
}
