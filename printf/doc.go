// Package printf interprets C format strings against the native component's
// variadic argument lists.
//
// Fprintf walks the format once, writing literal runs and each conversion to
// the destination as soon as it is produced. Arguments are pulled one at a
// time from an Args cursor whose type is dictated by the conversion, exactly
// like va_arg. Two cursors are provided: VaList reads a wasm32 va_list out of
// linear memory, and Values serves a pre-built list of tagged values.
//
// Supported conversions:
//
//	%%        literal percent
//	%c        character
//	%d %i     signed decimal
//	%u        unsigned decimal
//	%o        octal; the # flag prefixes 0o
//	%x %X     hexadecimal; the # flag prefixes 0x or 0X
//	%s        NUL-terminated string; precision limits the bytes written
//	%p        pointer as 0x followed by lower-case hex
//
// Flags (- + space 0 #), field width and precision are honoured; either may be
// given as * to take the value from the next int argument, and a negative *
// width selects left justification. Precision on an integer is the minimum
// digit count, so %.0o of zero prints nothing.
//
// Floating point conversions, length modifiers and %n cannot be served from a
// va_list without knowing the caller's types, and unknown conversions have no
// defined output. All of them panic rather than produce wrong text.
package printf
