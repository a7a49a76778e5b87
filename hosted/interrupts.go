package hosted

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/acpica-host/callback"
	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/status"
)

// interrupts maps interrupt lines to their service routine.
type interrupts struct {
	mu    sync.Mutex
	lines map[uint32]callback.InterruptCallback
}

func (in *interrupts) install(irq uint32, isr callback.InterruptCallback) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.lines == nil {
		in.lines = make(map[uint32]callback.InterruptCallback)
	}
	if _, ok := in.lines[irq]; ok {
		return status.ErrAlreadyExist
	}
	in.lines[irq] = isr
	Logger().Debug("interrupt handler installed", zap.Uint32("irq", irq), zap.Stringer("isr", isr))
	return nil
}

func (in *interrupts) remove(irq, fn uint32) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	isr, ok := in.lines[irq]
	if !ok {
		return status.ErrNotExist
	}
	if isr.Function() != fn {
		return status.ErrBadParameter
	}
	delete(in.lines, irq)
	return nil
}

func (in *interrupts) installed(irq uint32) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	_, ok := in.lines[irq]
	return ok
}

// raise runs the routine installed on irq.
func (in *interrupts) raise(ctx context.Context, irq uint32) (callback.InterruptResult, error) {
	in.mu.Lock()
	isr, ok := in.lines[irq]
	in.mu.Unlock()
	if !ok {
		return callback.NotHandled, errors.New(errors.PhaseHost, errors.KindNotFound).
			Op("raise").
			Detail("no handler on interrupt %d", irq).
			Value(irq).
			Build()
	}
	res := isr.Call(ctx)
	Logger().Debug("interrupt raised", zap.Uint32("irq", irq), zap.Stringer("result", res))
	return res, nil
}
