// Package table decodes the binary records the native component hands back:
// firmware tables (RSDP, SDT headers, FADT, MADT, MCFG), PCI interrupt routing
// tables, and device information blocks. It also builds well-formed firmware
// tables for synthetic platforms and tests.
//
// Decoders copy what they need out of the input and never retain it. Fixed
// layouts are read with encoding/binary into packed structs; variable-length
// record arrays are walked with cursor types that advance by each record's
// own length.
package table
