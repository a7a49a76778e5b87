// Package handle provides typed handle tables for objects whose identity is
// passed through the native component as an opaque word.
//
// A Handle packs a slot index (low 20 bits, biased by one so that 0 is never
// issued) with a 12-bit generation that is bumped whenever the slot is
// released. Looking up a handle whose slot was reused fails instead of
// returning the new occupant, so use-after-delete by the native side is
// detected rather than silently aliasing another object.
//
// Entries can be borrowed for the duration of an operation; a borrowed entry
// cannot be removed.
package handle
