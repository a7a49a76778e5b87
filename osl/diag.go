package osl

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/printf"
	"github.com/wippyai/acpica-host/status"
)

// printWriter forwards each formatted chunk to Host.Print.
type printWriter struct {
	ctx  context.Context
	host Host
}

func (w printWriter) Write(p []byte) (int, error) {
	w.host.Print(w.ctx, string(p))
	return len(p), nil
}

// Vprintf formats a native format string with its va_list and streams the
// output to the host.
func (d *Dispatcher) Vprintf(ctx context.Context, format memory.Ptr, args memory.Ptr) {
	if format == 0 {
		panic(errors.NilPointer(errors.PhaseFormat, "AcpiOsVprintf", "format"))
	}
	f, err := memory.ReadCString(d.mem, format, printf.MaxString)
	if err != nil {
		errors.Fatal(errors.PhaseFormat, "AcpiOsVprintf", "format string: %v", err)
	}
	hctx, done := d.enter(ctx, "AcpiOsVprintf")
	defer done()
	printf.Fprintf(printWriter{ctx: hctx, host: d.host}, f, &printf.VaList{Mem: d.mem, Ptr: args})
}

// Printf formats Go values the same way, for diagnostics the binding layer
// itself emits through the host.
func (d *Dispatcher) Printf(ctx context.Context, format string, args ...printf.Value) {
	hctx, done := d.enter(ctx, "printf")
	defer done()
	printf.Fprintf(printWriter{ctx: hctx, host: d.host}, []byte(format), printf.NewValues(args...))
}

// RedirectOutput forwards an output destination change.
func (d *Dispatcher) RedirectOutput(ctx context.Context, dest uint32) {
	hctx, done := d.enter(ctx, "AcpiOsRedirectOutput")
	defer done()
	d.host.RedirectOutput(hctx, dest)
}

// GetLine reads a line from the host into buf, NUL-terminated and truncated
// to fit, and stores the byte count at out when out is not null.
func (d *Dispatcher) GetLine(ctx context.Context, buf memory.Ptr, length uint32, out memory.Ptr) status.Status {
	if buf == 0 || length == 0 {
		return code(status.BadParameter)
	}
	hctx, done := d.enter(ctx, "AcpiOsGetLine")
	line, err := d.host.GetLine(hctx)
	done()
	if err != nil {
		return result("AcpiOsGetLine", err)
	}
	if uint32(len(line)) > length-1 {
		line = line[:length-1]
	}
	if err := memory.WriteCString(d.mem, buf, line); err != nil {
		errors.Fatal(errors.PhaseHost, "AcpiOsGetLine", "write line: %v", err)
	}
	if out != 0 {
		d.put32("AcpiOsGetLine", out, uint32(len(line)))
	}
	return status.OK
}

// Signal decodes an AcpiOsSignal request and forwards it.
func (d *Dispatcher) Signal(ctx context.Context, kind, info uint32) status.Status {
	sig := Signal{Kind: SignalKind(kind)}
	switch sig.Kind {
	case SignalFatal:
		if info != 0 {
			sig.Type = d.get32("AcpiOsSignal", info)
			sig.Code = d.get32("AcpiOsSignal", info+4)
			sig.Argument = d.get32("AcpiOsSignal", info+8)
		}
	case SignalBreakpoint:
		if info != 0 {
			b, err := memory.ReadCString(d.mem, info, printf.MaxString)
			if err != nil {
				errors.Fatal(errors.PhaseHost, "AcpiOsSignal", "breakpoint message: %v", err)
			}
			sig.Message = string(b)
		}
	default:
		return code(status.BadParameter)
	}
	Logger().Info("native signal",
		zap.Stringer("kind", sig.Kind),
		zap.Uint32("type", sig.Type),
		zap.Uint32("code", sig.Code),
		zap.String("message", sig.Message))

	hctx, done := d.enter(ctx, "AcpiOsSignal")
	defer done()
	return result("AcpiOsSignal", d.host.Signal(hctx, sig))
}

// EnterSleep notifies the host of a sleep state transition.
func (d *Dispatcher) EnterSleep(ctx context.Context, state uint8, regA, regB uint32) status.Status {
	hctx, done := d.enter(ctx, "AcpiOsEnterSleep")
	defer done()
	return result("AcpiOsEnterSleep", d.host.EnterSleep(hctx, state, regA, regB))
}

// Initialize forwards OS layer initialization.
func (d *Dispatcher) Initialize(ctx context.Context) status.Status {
	hctx, done := d.enter(ctx, "AcpiOsInitialize")
	defer done()
	return result("AcpiOsInitialize", d.host.Initialize(hctx))
}

// Terminate forwards OS layer shutdown.
func (d *Dispatcher) Terminate(ctx context.Context) status.Status {
	hctx, done := d.enter(ctx, "AcpiOsTerminate")
	defer done()
	return result("AcpiOsTerminate", d.host.Terminate(hctx))
}
