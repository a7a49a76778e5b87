package callback

import (
	"context"
	"errors"
	"testing"
)

type ctxKey struct{}

type fakeInvoker struct {
	ret   uint32
	err   error
	calls []uint32
	ctxs  []context.Context
}

func (f *fakeInvoker) CallHandler(ctx context.Context, fn, arg uint32) (uint32, error) {
	f.calls = append(f.calls, fn, arg)
	f.ctxs = append(f.ctxs, ctx)
	return f.ret, f.err
}

func (f *fakeInvoker) CallExec(ctx context.Context, fn, arg uint32) error {
	f.calls = append(f.calls, fn, arg)
	f.ctxs = append(f.ctxs, ctx)
	return f.err
}

func TestCallback(t *testing.T) {
	inv := &fakeInvoker{ret: 42}
	cb := New(inv, 7, 0x1000)

	if cb.Function() != 7 || cb.Context() != 0x1000 {
		t.Errorf("cb = %v", cb)
	}
	v, err := cb.Call(context.Background())
	if err != nil || v != 42 {
		t.Errorf("Call = %d, %v", v, err)
	}
	if len(inv.calls) != 2 || inv.calls[0] != 7 || inv.calls[1] != 0x1000 {
		t.Errorf("invoker saw %v", inv.calls)
	}
}

func TestInterruptCallback(t *testing.T) {
	tests := []struct {
		name string
		ret  uint32
		want InterruptResult
	}{
		{"handled", 1, Handled},
		{"not handled", 0, NotHandled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewInterrupt(&fakeInvoker{ret: tt.ret}, 3, 4)
			if got := cb.Call(context.Background()); got != tt.want {
				t.Errorf("Call = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("invalid return panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for return value 2")
			}
		}()
		NewInterrupt(&fakeInvoker{ret: 2}, 3, 4).Call(context.Background())
	})

	t.Run("trap panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for trapped routine")
			}
		}()
		NewInterrupt(&fakeInvoker{err: errors.New("unreachable")}, 3, 4).Call(context.Background())
	})
}

func TestThreadCallback(t *testing.T) {
	inv := &fakeInvoker{}
	base := context.WithValue(context.Background(), ctxKey{}, "base")
	cb := NewThread(base, inv, ExecNotifyHandler, 9, 10)

	if cb.Kind() != ExecNotifyHandler || cb.Kind().String() != "notify" {
		t.Errorf("Kind = %v", cb.Kind())
	}

	done := make(chan error)
	go func() { done <- cb.Call() }()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if inv.ctxs[0].Value(ctxKey{}) != "base" {
		t.Error("thread callback did not run under its base context")
	}
}
