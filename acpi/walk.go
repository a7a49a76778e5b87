package acpi

import (
	"context"

	"github.com/wippyai/acpica-host/errors"
	"github.com/wippyai/acpica-host/memory"
	"github.com/wippyai/acpica-host/osl"
	"github.com/wippyai/acpica-host/status"
	"github.com/wippyai/acpica-host/table"
)

// WalkFunc is called for each visited object with its depth below the
// start object. Returning true ends the walk with the returned value.
// Queries made from inside the callback must use the context it receives.
type WalkFunc[T any] func(ctx context.Context, h Handle, depth uint32) (T, bool)

// Walk visits objects of type typ below start in pre-order, at most
// maxDepth levels deep. It reports the value of the first callback that
// returned true.
func Walk[T any](ctx context.Context, r *Ready, typ table.ObjectType, start Handle, maxDepth uint32, fn WalkFunc[T]) (T, bool, error) {
	var zero T
	if maxDepth == 0 {
		return zero, false, errors.InvalidInput(errors.PhaseNamespace, "walk depth must be positive")
	}
	if typ > table.TypeDebugObject {
		return zero, false, errors.InvalidInput(errors.PhaseNamespace, "unknown object type "+typ.String())
	}
	return run(ctx, r, "AcpiHostWalkNamespace", fn, func(ctx context.Context, walkCtx uint32, retval memory.Ptr) status.Status {
		return r.sys.native.WalkNamespace(ctx, uint32(typ), uint32(start), maxDepth, walkCtx, retval)
	})
}

// WalkDevices visits present devices whose _HID or a _CID equals hid, or
// every present device when hid is empty.
func WalkDevices[T any](ctx context.Context, r *Ready, hid string, fn WalkFunc[T]) (T, bool, error) {
	var zero T
	if err := r.live(); err != nil {
		return zero, false, err
	}
	s := r.scratch()
	defer s.release()

	var hp memory.Ptr
	if hid != "" {
		p, err := s.cstring(hid)
		if err != nil {
			return zero, false, err
		}
		hp = p
	}
	return run(ctx, r, "AcpiHostGetDevices", fn, func(ctx context.Context, walkCtx uint32, retval memory.Ptr) status.Status {
		return r.sys.native.GetDevices(ctx, hp, walkCtx, retval)
	})
}

func run[T any](ctx context.Context, r *Ready, op string, fn WalkFunc[T], call func(context.Context, uint32, memory.Ptr) status.Status) (T, bool, error) {
	var result T
	if err := r.live(); err != nil {
		return result, false, err
	}
	d := r.sys.d

	id, err := d.RegisterWalk(osl.WalkFunc(func(ctx context.Context, obj, depth uint32) bool {
		v, stop := fn(ctx, Handle(obj), depth)
		if stop {
			result = v
		}
		return stop
	}))
	if err != nil {
		return result, false, err
	}
	defer d.UnregisterWalk(id)

	s := r.scratch()
	defer s.release()
	retval, err := s.alloc(4)
	if err != nil {
		return result, false, err
	}

	st := call(ctx, id, retval)
	if status.ErrorCode(st) == status.BadParameter {
		errors.Fatal(errors.PhaseNamespace, op, "native walker rejected its parameters")
	}
	if err := r.sys.check(op, st); err != nil {
		var zero T
		return zero, false, err
	}

	got, err := d.Memory().ReadU32(retval)
	if err != nil {
		return result, false, err
	}
	if got != id {
		var zero T
		return zero, false, nil
	}
	return result, true, nil
}

// Children lists the objects directly below h.
func (r *Ready) Children(ctx context.Context, h Handle) ([]Handle, error) {
	var out []Handle
	_, _, err := Walk(ctx, r, table.TypeAny, h, 1, func(_ context.Context, c Handle, _ uint32) (struct{}, bool) {
		out = append(out, c)
		return struct{}{}, false
	})
	return out, err
}

// Devices lists present devices matching hid, every present device when
// hid is empty.
func (r *Ready) Devices(ctx context.Context, hid string) ([]Handle, error) {
	var out []Handle
	_, _, err := WalkDevices(ctx, r, hid, func(_ context.Context, h Handle, _ uint32) (struct{}, bool) {
		out = append(out, h)
		return struct{}{}, false
	})
	return out, err
}

// FindDevice returns the first present device matching hid.
func (r *Ready) FindDevice(ctx context.Context, hid string) (Handle, bool, error) {
	return WalkDevices(ctx, r, hid, func(_ context.Context, h Handle, _ uint32) (Handle, bool) {
		return h, true
	})
}
