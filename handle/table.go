package handle

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("handle table closed")
	ErrFull              = errors.New("handle table full")
	ErrInvalid           = errors.New("handle is not live")
	ErrOutstandingBorrow = errors.New("cannot remove handle with outstanding borrows")
)

// Handle is an opaque reference to a table entry. 0 is never a valid handle.
type Handle uint32

const (
	indexBits = 20
	indexMask = 1<<indexBits - 1
	genMask   = 1<<(32-indexBits) - 1

	// MaxEntries is the number of slots a table can hold.
	MaxEntries = indexMask
)

func makeHandle(slot int, gen uint32) Handle {
	return Handle(gen&genMask)<<indexBits | Handle(slot+1)
}

func (h Handle) slot() int {
	return int(h&indexMask) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h>>indexBits) & genMask
}

// Table stores values of type T behind generation-checked handles.
type Table[T any] struct {
	entries  []entry[T]
	freeList []int
	mu       sync.RWMutex
	closed   bool
}

type entry[T any] struct {
	value       T
	gen         uint32
	borrowCount uint32
	valid       bool
}

// New creates an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{
		entries:  make([]entry[T], 0, 16),
		freeList: make([]int, 0, 8),
	}
}

// Insert stores a value and returns its handle.
func (t *Table[T]) Insert(value T) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrClosed
	}

	if len(t.freeList) > 0 {
		slot := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		e := &t.entries[slot]
		e.value = value
		e.valid = true
		return makeHandle(slot, e.gen), nil
	}

	if len(t.entries) >= MaxEntries {
		return 0, ErrFull
	}
	t.entries = append(t.entries, entry[T]{value: value, valid: true})
	return makeHandle(len(t.entries)-1, 0), nil
}

// lookup returns the live entry for h. Caller holds the lock.
func (t *Table[T]) lookup(h Handle) *entry[T] {
	slot := h.slot()
	if slot < 0 || slot >= len(t.entries) {
		return nil
	}
	e := &t.entries[slot]
	if !e.valid || e.gen != h.generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if e := t.lookup(h); e != nil {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Borrow retrieves a value and marks it in use until Return is called.
func (t *Table[T]) Borrow(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.lookup(h); e != nil {
		e.borrowCount++
		return e.value, true
	}
	var zero T
	return zero, false
}

// Return ends a borrow started by Borrow.
func (t *Table[T]) Return(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.lookup(h)
	if e == nil || e.borrowCount == 0 {
		return false
	}
	e.borrowCount--
	return true
}

// Remove releases a handle and returns its value. The slot's generation is
// advanced so the released handle can never resolve again.
func (t *Table[T]) Remove(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	e := t.lookup(h)
	if e == nil {
		return zero, ErrInvalid
	}
	if e.borrowCount > 0 {
		return zero, ErrOutstandingBorrow
	}

	value := e.value
	e.value = zero
	e.valid = false
	e.gen = (e.gen + 1) & genMask
	t.freeList = append(t.freeList, h.slot())
	return value, nil
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries) - len(t.freeList)
}

// Each iterates over all live entries until fn returns false.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(makeHandle(i, e.gen), e.value) {
				break
			}
		}
	}
}

// Close drops every entry and rejects further inserts.
func (t *Table[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.entries = nil
	t.freeList = nil
}
