// Package shared provides a reference counted copy-on-write handle for
// containers that are shared between owners and copied before mutation.
package shared

import "sync/atomic"

// Cloner is implemented by data that can produce an independent deep copy.
type Cloner[T any] interface {
	Clone() T
}

type component[T Cloner[T]] struct {
	users atomic.Int32
	data  T
}

// Handle references shared data. The zero Handle is empty.
//
// A Handle may be read by any number of goroutines while no owner writes.
// Write on one Handle must be serialized with all other use of that Handle.
type Handle[T Cloner[T]] struct {
	c *component[T]
}

// NewHandle wraps data in a handle with one user.
func NewHandle[T Cloner[T]](data T) Handle[T] {
	c := &component[T]{data: data}
	c.users.Store(1)
	return Handle[T]{c: c}
}

// Valid reports whether the handle references data.
func (h Handle[T]) Valid() bool {
	return h.c != nil
}

// Users returns the current number of owners.
func (h Handle[T]) Users() int {
	if h.c == nil {
		return 0
	}
	return int(h.c.users.Load())
}

// Share returns a second handle to the same data and adds a user.
func (h Handle[T]) Share() Handle[T] {
	if h.c != nil {
		h.c.users.Add(1)
	}
	return h
}

// Release drops this owner. The handle is empty afterwards.
func (h *Handle[T]) Release() {
	if h.c == nil {
		return
	}
	h.c.users.Add(-1)
	h.c = nil
}

// IsMutable reports whether the data may be modified in place, which is
// the case while at most one owner references it.
func (h Handle[T]) IsMutable() bool {
	return h.c == nil || h.c.users.Load() <= 1
}

// Read returns the data for reading. Callers must not modify it.
func (h Handle[T]) Read() T {
	if h.c == nil {
		var zero T
		return zero
	}
	return h.c.data
}

// Write returns the data for modification. Shared data is copied first so
// that other owners keep seeing the previous state.
func (h *Handle[T]) Write() T {
	if h.c == nil {
		var zero T
		return zero
	}
	if !h.IsMutable() {
		copied := NewHandle(h.c.data.Clone())
		h.Release()
		*h = copied
	}
	return h.c.data
}

// Replace makes the handle own data, releasing the previous data.
func (h *Handle[T]) Replace(data T) {
	h.Release()
	*h = NewHandle(data)
}
