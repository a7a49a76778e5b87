// Package hosted implements osl.Host for a binding layer running as an
// ordinary process.
//
// Physical memory is a set of regions, each backed by a memory-mapped image
// file or a byte slice. I/O ports are routed to pluggable devices, PCI
// configuration space is a sparse store, and interrupts are raised
// explicitly through Raise. Deferred work runs on goroutines.
//
// Firmware builds a self-consistent synthetic platform: an RSDP in the BIOS
// area, an XSDT, a FADT wired to the PM1 control and SMI command devices,
// and the caller's DSDT and extra tables.
package hosted
