// Package memory provides access to the native component's linear memory.
//
// Wrap adapts a wazero api.Memory; Flat is a growable byte slice used by
// in-process fakes and tests. Both report out-of-range accesses as structured
// errors instead of panicking. Slices returned by Read alias the underlying
// memory and must be copied before the memory can grow or be reused.
package memory
