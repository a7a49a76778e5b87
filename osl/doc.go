// Package osl implements the operating system services layer the native ACPI
// subsystem calls into.
//
// A Dispatcher serves every AcpiOs* import of the native module. Services the
// binding layer can provide by itself (locks, semaphores, the heap, object
// caches, mapping bookkeeping, formatted output) are handled here; everything
// that needs a kernel is forwarded to a Host.
//
// Host methods are serialized by a single mutex. A Host method that calls
// back into the dispatcher through the context it was given, for example by
// running an interrupt callback inline, panics instead of deadlocking.
// Primitives such as locks and semaphores never take the mutex.
//
// Native code runs behind an execution gate taken by Native. Host services
// that block a native thread (Sleep, WaitEventsComplete, a semaphore wait
// with a timeout) open the gate while they wait, so deferred work queued
// with Execute can run. Live call stacks are kept in LIFO order: a thread
// that opened the gate resumes only after every call stack entered above it
// has returned. Callbacks reached from native code inherit the gate through
// their context.
//
// Native resources are addressed by generation-checked handles, so a handle
// used after delete is caught at the boundary.
package osl
