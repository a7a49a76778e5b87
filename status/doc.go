// Package status translates between the native ACPI status word and Go errors.
//
// A status word is 0 on success. Any other value carries a class in bits 12-15
// and a class-relative code in bits 0-11. Decode turns a word into an error,
// Encode turns an ErrorCode back into a word, and FromError maps arbitrary
// binding-layer errors onto the status the native side expects from a host
// service.
//
// Codes the binding does not recognise decode to Unknown. The raw word is kept
// on the *Error for diagnostics, but Unknown always encodes as AE_ERROR, so the
// round trip is exact only for defined codes.
package status
