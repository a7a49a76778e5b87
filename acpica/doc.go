// Package acpica loads and drives the native ACPI subsystem.
//
// The subsystem is a wasm32 build of ACPICA plus a small shim, executed with
// wazero. Its AcpiOs* imports are served by an osl.Dispatcher; its exported
// API is exposed through the Native interface, one method per native entry
// point, with arguments and results in native form (pointers into linear
// memory and raw status words). Package acpi builds the typed API on top.
//
// Native code runs behind the dispatcher's execution gate, so calls from
// different goroutines are serialized. A panic raised by the binding layer
// while serving an import surfaces again from the Native method that
// triggered it.
package acpica
