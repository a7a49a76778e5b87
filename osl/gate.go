package osl

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/errors"
)

type nativeKey struct{}

// callStack is one goroutine's run of frames on the native shadow stack.
type callStack struct {
	resuming bool
}

// gate serialises native execution. Call stacks are live from Native until
// their leave function runs and form a LIFO: a stack that opened the gate
// with yield may only run again once every stack entered above it has left.
type gate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running bool
	stacks  []*callStack
}

func newGate() *gate {
	g := &gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *gate) top() *callStack {
	if len(g.stacks) == 0 {
		return nil
	}
	return g.stacks[len(g.stacks)-1]
}

// enter waits until nothing runs and the topmost stack is not waiting to
// resume, then pushes a new stack.
func (g *gate) enter() *callStack {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.running || (g.top() != nil && g.top().resuming) {
		g.cond.Wait()
	}
	s := &callStack{}
	g.stacks = append(g.stacks, s)
	g.running = true
	return s
}

func (g *gate) leave(s *callStack) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.top() != s {
		errors.Fatal(errors.PhaseHost, "native_gate", "call stack left out of order with %d stacks live", len(g.stacks))
	}
	g.stacks[len(g.stacks)-1] = nil
	g.stacks = g.stacks[:len(g.stacks)-1]
	g.running = false
	g.cond.Broadcast()
}

func (g *gate) suspend() {
	g.mu.Lock()
	g.running = false
	g.cond.Broadcast()
	g.mu.Unlock()
}

// resume blocks until s is the topmost live stack and nothing runs.
func (g *gate) resume(s *callStack) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.resuming = true
	if g.top() != s {
		Logger().Debug("waiting for nested native calls to unwind", zap.Int("stacks", len(g.stacks)))
	}
	for g.running || g.top() != s {
		g.cond.Wait()
	}
	s.resuming = false
	g.running = true
}

func (g *gate) depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.stacks)
}

// Native takes the execution gate for a call into native code and marks ctx
// as holding it. Nested calls made with a marked context pass straight
// through. The native module has one shadow stack, so only one goroutine may
// execute native code at a time.
func (d *Dispatcher) Native(ctx context.Context) (context.Context, func()) {
	if s, _ := ctx.Value(nativeKey{}).(*callStack); s != nil {
		return ctx, func() {}
	}
	s := d.gate.enter()
	return context.WithValue(ctx, nativeKey{}, s), func() { d.gate.leave(s) }
}

// yield opens the gate while a native thread blocks in a host service and
// returns the function that closes it again. Other goroutines may enter
// native code meanwhile; the blocked thread does not run again until all of
// them have returned, since their frames sit above its own.
func (d *Dispatcher) yield(ctx context.Context) func() {
	s, _ := ctx.Value(nativeKey{}).(*callStack)
	if s == nil {
		return func() {}
	}
	d.gate.suspend()
	return func() { d.gate.resume(s) }
}

// CallStacks returns the number of native call stacks currently live,
// including ones suspended in a host service.
func (d *Dispatcher) CallStacks() int { return d.gate.depth() }
