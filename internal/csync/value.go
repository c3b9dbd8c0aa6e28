// Package csync provides small concurrency-safe containers.
package csync

import (
	"fmt"
	"reflect"
	"sync"
)

// Value is a concurrency-safe holder for a single value. Reads and writes
// never block each other for longer than a copy, and concurrent writers
// resolve by last write wins.
//
// Value only accepts value types. Reference types (pointers, slices, maps,
// channels and funcs) would let callers mutate the shared state without
// holding the lock, so NewValue panics on them.
type Value[T any] struct {
	mu sync.RWMutex
	v  T
}

// NewValue creates a new [Value] holding v.
func NewValue[T any](v T) *Value[T] {
	switch k := reflect.TypeOf(&v).Elem().Kind(); k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		panic(fmt.Sprintf("csync: Value does not support reference kind %s", k))
	}
	return &Value[T]{v: v}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Set replaces the current value.
func (v *Value[T]) Set(nv T) {
	v.mu.Lock()
	v.v = nv
	v.mu.Unlock()
}

// Update atomically replaces the value with fn applied to the current one and
// returns the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = fn(v.v)
	return v.v
}
