package handle

import (
	"errors"
	"sync"
	"testing"
)

func TestTable_Basic(t *testing.T) {
	tbl := New[string]()

	h, err := tbl.Insert("spinlock")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	v, ok := tbl.Get(h)
	if !ok || v != "spinlock" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	v, err = tbl.Remove(h)
	if err != nil || v != "spinlock" {
		t.Fatalf("Remove = %q, %v", v, err)
	}

	if _, ok := tbl.Get(h); ok {
		t.Fatal("Expected Get to fail after Remove")
	}
	if _, err := tbl.Remove(h); !errors.Is(err, ErrInvalid) {
		t.Fatalf("double Remove = %v, want ErrInvalid", err)
	}
}

func TestTable_Generation(t *testing.T) {
	tbl := New[int]()

	first, _ := tbl.Insert(1)
	if _, err := tbl.Remove(first); err != nil {
		t.Fatal(err)
	}
	second, _ := tbl.Insert(2)

	if first.slot() != second.slot() {
		t.Fatalf("slot not reused: %d vs %d", first.slot(), second.slot())
	}
	if first == second {
		t.Fatal("reused slot must carry a new generation")
	}
	if _, ok := tbl.Get(first); ok {
		t.Error("stale handle resolved after slot reuse")
	}
	if v, ok := tbl.Get(second); !ok || v != 2 {
		t.Errorf("Get(second) = %d, %v", v, ok)
	}
}

func TestTable_InvalidHandles(t *testing.T) {
	tbl := New[int]()
	tbl.Insert(1)

	for _, h := range []Handle{0, 2, 0xFFFFFFFF, makeHandle(0, 5)} {
		if _, ok := tbl.Get(h); ok {
			t.Errorf("Get(%#x) should fail", uint32(h))
		}
	}
}

func TestTable_Borrow(t *testing.T) {
	tbl := New[string]()
	h, _ := tbl.Insert("semaphore")

	if _, ok := tbl.Borrow(h); !ok {
		t.Fatal("Borrow failed")
	}
	if _, err := tbl.Remove(h); !errors.Is(err, ErrOutstandingBorrow) {
		t.Fatalf("Remove while borrowed = %v", err)
	}
	if !tbl.Return(h) {
		t.Fatal("Return failed")
	}
	if tbl.Return(h) {
		t.Fatal("Return without borrow should fail")
	}
	if _, err := tbl.Remove(h); err != nil {
		t.Fatalf("Remove after Return = %v", err)
	}
}

func TestTable_LenEachClose(t *testing.T) {
	tbl := New[int]()
	var hs []Handle
	for i := 0; i < 5; i++ {
		h, _ := tbl.Insert(i)
		hs = append(hs, h)
	}
	tbl.Remove(hs[1])
	tbl.Remove(hs[3])

	if tbl.Len() != 3 {
		t.Errorf("Len = %d, want 3", tbl.Len())
	}

	sum := 0
	tbl.Each(func(h Handle, v int) bool {
		if got, ok := tbl.Get(h); !ok || got != v {
			t.Errorf("Each handle %#x does not resolve", uint32(h))
		}
		sum += v
		return true
	})
	if sum != 0+2+4 {
		t.Errorf("sum = %d", sum)
	}

	tbl.Close()
	if _, err := tbl.Insert(9); !errors.Is(err, ErrClosed) {
		t.Errorf("Insert after Close = %v", err)
	}
	if tbl.Len() != 0 {
		t.Errorf("Len after Close = %d", tbl.Len())
	}
}

func TestTable_Concurrent(t *testing.T) {
	tbl := New[int]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h, err := tbl.Insert(w*1000 + i)
				if err != nil {
					t.Error(err)
					return
				}
				if v, ok := tbl.Get(h); !ok || v != w*1000+i {
					t.Errorf("Get = %d, %v", v, ok)
				}
				if _, err := tbl.Remove(h); err != nil {
					t.Error(err)
				}
			}
		}(w)
	}
	wg.Wait()
	if tbl.Len() != 0 {
		t.Errorf("Len = %d after concurrent churn", tbl.Len())
	}
}
