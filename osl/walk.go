package osl

import (
	"context"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/handle"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/status"
)

// WalkFunc is called for each object a namespace walk visits, in pre-order.
// Returning true ends the walk.
type WalkFunc func(ctx context.Context, obj, depth uint32) bool

// RegisterWalk makes fn reachable from the native walk callbacks. The
// returned word is passed to the native walker as its context pointer.
func (d *Dispatcher) RegisterWalk(fn WalkFunc) (uint32, error) {
	h, err := d.walks.Insert(fn)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseNamespace, errors.KindAllocation, err, "register walk callback")
	}
	return uint32(h), nil
}

// UnregisterWalk forgets a walk callback.
func (d *Dispatcher) UnregisterWalk(id uint32) {
	d.walks.Remove(handle.Handle(id))
}

// WalkDescending serves the descending callback of a native namespace walk.
// On a match the walk context is stored at retval and the walk is ended
// with AE_CTRL_TERMINATE. The host mutex is not held while fn runs.
func (d *Dispatcher) WalkDescending(ctx context.Context, obj, depth, walkCtx uint32, retval memory.Ptr) status.Status {
	fn, ok := d.walks.Get(handle.Handle(walkCtx))
	if !ok {
		errors.Fatal(errors.PhaseNamespace, "walk_descending", "walk context 0x%x is not registered", walkCtx)
	}
	if !fn(ctx, obj, depth) {
		return status.OK
	}
	if retval != 0 {
		d.put32("walk_descending", retval, walkCtx)
	}
	return code(status.CtrlTerminate)
}

// WalkAscending serves the ascending callback; it never ends the walk.
func (d *Dispatcher) WalkAscending(context.Context, uint32, uint32, uint32, memory.Ptr) status.Status {
	return status.OK
}
