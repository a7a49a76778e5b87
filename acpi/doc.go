// Package acpi is the typed API of the native ACPI subsystem.
//
// Initialization is a chain of distinct state types:
//
//	Register -> *Registered
//	  .InitializeTables  -> *TablesInitialized
//	  .LoadTables        -> *TablesLoaded
//	  .EnableSubsystem   -> *SubsystemEnabled
//	  .InitializeObjects -> *Ready
//
// Each transition consumes its receiver; using a state a second time
// returns ErrStateConsumed without calling into the native side. Only
// *Ready has query methods, so a query against an unready subsystem does
// not compile.
//
// Register may be called once per process. The native subsystem keeps
// global state that cannot be reset, so a second call panics.
//
// Namespace walks take a callback receiving the context of the walk.
// Queries issued from inside the callback must use that context: native
// execution is serialized and the walk holds it.
package acpi
