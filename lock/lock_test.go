package lock

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/wippyai/acpica-host/status"
)

func TestSpinlock(t *testing.T) {
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)
	yieldFn = runtime.Gosched

	var (
		sl         Spinlock
		wg         sync.WaitGroup
		numWorkers = 10
		counter    int
	)

	if flags := sl.Acquire(); flags != 0 {
		t.Errorf("Acquire returned flags %d, want 0", flags)
	}

	if sl.TryAcquire() {
		t.Error("expected TryAcquire to return false when lock is held")
	}

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sl.Acquire()
				counter++
				sl.Release()
			}
		}()
	}

	<-time.After(50 * time.Millisecond)
	sl.Release()
	wg.Wait()

	if counter != numWorkers*100 {
		t.Errorf("counter = %d, want %d", counter, numWorkers*100)
	}
	if sl.Held() {
		t.Error("lock still held")
	}
}

func TestNewSemaphore(t *testing.T) {
	if _, err := NewSemaphore(1, 2); !errors.Is(err, status.ErrBadParameter) {
		t.Errorf("initial > max = %v, want AE_BAD_PARAMETER", err)
	}
	s, err := NewSemaphore(4, 4)
	if err != nil || s.Units() != 4 || s.Max() != 4 {
		t.Fatalf("NewSemaphore = %v, %v", s, err)
	}
}

func TestSemaphore_NoWait(t *testing.T) {
	s, _ := NewSemaphore(3, 1)

	if err := s.Wait(2, NoWait); !errors.Is(err, status.ErrTime) {
		t.Errorf("Wait(2, 0) = %v, want AE_TIME", err)
	}
	if s.Units() != 1 {
		t.Errorf("failed wait changed units to %d", s.Units())
	}
	if err := s.Wait(1, NoWait); err != nil {
		t.Errorf("Wait(1, 0) = %v", err)
	}
	if s.Units() != 0 {
		t.Errorf("units = %d, want 0", s.Units())
	}
	if err := s.Wait(4, WaitForever); !errors.Is(err, status.ErrLimit) {
		t.Errorf("Wait past max = %v, want AE_LIMIT", err)
	}
}

func TestSemaphore_SignalLimit(t *testing.T) {
	s, _ := NewSemaphore(3, 2)

	if err := s.Signal(2); !errors.Is(err, status.ErrLimit) {
		t.Errorf("Signal(2) = %v, want AE_LIMIT", err)
	}
	if s.Units() != 2 {
		t.Errorf("failed signal changed units to %d", s.Units())
	}
	if err := s.Signal(1); err != nil {
		t.Errorf("Signal(1) = %v", err)
	}
	if s.Units() != 3 {
		t.Errorf("units = %d, want 3", s.Units())
	}
}

func TestSemaphore_WaitForever(t *testing.T) {
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)
	yieldFn = runtime.Gosched

	s, _ := NewSemaphore(1, 0)
	done := make(chan error)
	go func() { done <- s.Wait(1, WaitForever) }()

	select {
	case err := <-done:
		t.Fatalf("Wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	if err := s.Signal(1); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Errorf("Wait = %v", err)
	}
}

func TestSemaphore_Deadline(t *testing.T) {
	defer func(orig func() time.Time) { nowFn = orig }(nowFn)
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)

	clock := time.Unix(0, 0)
	nowFn = func() time.Time { return clock }
	yieldFn = func() { clock = clock.Add(time.Millisecond) }

	s, _ := NewSemaphore(1, 0)
	if err := s.Wait(1, 10); !errors.Is(err, status.ErrTime) {
		t.Errorf("Wait(1, 10ms) = %v, want AE_TIME", err)
	}
	if elapsed := clock.Sub(time.Unix(0, 0)); elapsed != 10*time.Millisecond {
		t.Errorf("waited %v, want 10ms", elapsed)
	}
}

func TestSemaphore_Concurrent(t *testing.T) {
	defer func(origYieldFn func()) { yieldFn = origYieldFn }(yieldFn)
	yieldFn = runtime.Gosched

	s, _ := NewSemaphore(2, 2)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := s.Wait(1, WaitForever); err != nil {
					t.Error(err)
					return
				}
				if s.Units() > 2 {
					t.Error("units exceeded max")
				}
				if err := s.Signal(1); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
	if s.Units() != 2 {
		t.Errorf("units = %d, want 2", s.Units())
	}
}
