// Package errors provides structured error types for the ACPI binding layer.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the native operation name, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseTables, errors.KindStateConsumed).
//		Op("AcpiLoadTables").
//		Detail("initialization token already used").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.AllocationFailed(errors.PhaseMemory, 4096)
//	err := errors.OutOfBounds(errors.PhaseMemory, 0x10000, 8)
//
// Fatal contract violations are raised with Fatal, which panics with an *Error
// of Kind internal.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
