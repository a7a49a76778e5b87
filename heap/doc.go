// Package heap manages the native component's dynamic memory.
//
// The native component never allocates on its own: every AcpiOsAllocate and
// every object cache arena is carved from linear memory above __heap_base by an
// Arena. Allocator layers the C allocation contract on top of it. A free call
// only receives a pointer, so each block carries its requested size in an
// 8-byte header placed immediately before the returned pointer.
//
//	ptr-8      ptr
//	| size u64 | size bytes of caller data ... |
package heap
