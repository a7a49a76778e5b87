// Package callback wraps native function pointers so the kernel can invoke
// them without knowing anything about the native calling convention.
//
// Every wrapper stores the native function (a table index in the native
// module) and the opaque context word registered with it. The wrappers are
// only valid in the calling context documented on each type.
package callback

import (
	"context"
	"fmt"

	"github.com/wippyai/acpica-host/errors"
)

// Invoker calls native function pointers. It is implemented by the native module.
type Invoker interface {
	// CallHandler calls a UINT32 (*)(void *) function.
	CallHandler(ctx context.Context, fn, arg uint32) (uint32, error)
	// CallExec calls a void (*)(void *) function.
	CallExec(ctx context.Context, fn, arg uint32) error
}

// Callback is a native function taking one context argument and returning a word.
type Callback struct {
	inv Invoker
	fn  uint32
	arg uint32
}

// New wraps fn and its context argument.
func New(inv Invoker, fn, arg uint32) Callback {
	return Callback{inv: inv, fn: fn, arg: arg}
}

// Function returns the native function pointer.
func (c Callback) Function() uint32 { return c.fn }

// Context returns the context word passed to the function.
func (c Callback) Context() uint32 { return c.arg }

func (c Callback) String() string {
	return fmt.Sprintf("callback(fn=%#x, ctx=%#x)", c.fn, c.arg)
}

// Call invokes the function and returns its result.
func (c Callback) Call(ctx context.Context) (uint32, error) {
	return c.inv.CallHandler(ctx, c.fn, c.arg)
}

// InterruptResult is the value an interrupt service routine returns.
type InterruptResult uint32

const (
	NotHandled InterruptResult = 0
	Handled    InterruptResult = 1
)

func (r InterruptResult) String() string {
	if r == Handled {
		return "handled"
	}
	return "not_handled"
}

// InterruptCallback is a native interrupt service routine. Call may only be
// used from within the handler of the interrupt it was installed for, and
// must be given the context that handler received.
type InterruptCallback struct {
	Callback
}

// NewInterrupt wraps a native service routine.
func NewInterrupt(inv Invoker, fn, arg uint32) InterruptCallback {
	return InterruptCallback{Callback: New(inv, fn, arg)}
}

// Call runs the service routine. A trap in native code or a return value
// other than handled or not handled panics.
func (c InterruptCallback) Call(ctx context.Context) InterruptResult {
	v, err := c.Callback.Call(ctx)
	if err != nil {
		panic(errors.Wrap(errors.PhaseHost, errors.KindInternal, err, "interrupt service routine trapped"))
	}
	switch InterruptResult(v) {
	case Handled, NotHandled:
		return InterruptResult(v)
	}
	errors.Fatal(errors.PhaseHost, "AcpiOsInstallInterruptHandler", "service routine %#x returned %d", c.fn, v)
	return NotHandled
}

// ExecuteType identifies why the native side asked for deferred execution.
type ExecuteType uint32

const (
	ExecGlobalLockHandler ExecuteType = iota
	ExecNotifyHandler
	ExecGPEHandler
	ExecDebuggerMainThread
	ExecDebuggerExecThread
	ExecECPollHandler
	ExecECBurstHandler
)

func (t ExecuteType) String() string {
	switch t {
	case ExecGlobalLockHandler:
		return "global_lock"
	case ExecNotifyHandler:
		return "notify"
	case ExecGPEHandler:
		return "gpe"
	case ExecDebuggerMainThread:
		return "debugger_main"
	case ExecDebuggerExecThread:
		return "debugger_exec"
	case ExecECPollHandler:
		return "ec_poll"
	case ExecECBurstHandler:
		return "ec_burst"
	default:
		return fmt.Sprintf("execute_type(%d)", uint32(t))
	}
}

// ThreadCallback is work the native side wants run on a new thread. Call may
// only be used from a freshly created execution context, never from the
// goroutine that received the callback.
type ThreadCallback struct {
	base context.Context
	Callback
	kind ExecuteType
}

// NewThread wraps deferred work. base is the context the work runs under.
func NewThread(base context.Context, inv Invoker, kind ExecuteType, fn, arg uint32) ThreadCallback {
	return ThreadCallback{base: base, Callback: New(inv, fn, arg), kind: kind}
}

// Kind returns the reason the work was scheduled.
func (c ThreadCallback) Kind() ExecuteType { return c.kind }

// Call runs the work to completion.
func (c ThreadCallback) Call() error {
	return c.inv.CallExec(c.base, c.fn, c.arg)
}
