// Package record defines the dynamic record shape shared by the store,
// the hydration engine and the REST layer.
package record

import (
	"context"
	"reflect"
	"sync"
)

// Record is a field-name-to-value mapping. Values may be scalars, nested
// Records, sequences of Records, nil, or a *Deferred placeholder that has
// not been forced yet.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Deferred wraps a computation that has not been evaluated yet. Force
// evaluates it at most once and caches the result, including the error.
type Deferred struct {
	once sync.Once
	fn   func(context.Context) (any, error)
	val  any
	err  error
}

// Defer wraps fn into a Deferred placeholder.
func Defer(fn func(context.Context) (any, error)) *Deferred {
	return &Deferred{fn: fn}
}

// DeferValue wraps an already-known value. Useful in tests and for store
// layers that sometimes have the value on hand.
func DeferValue(v any) *Deferred {
	return &Deferred{fn: func(context.Context) (any, error) { return v, nil }}
}

// Force evaluates the deferred computation. Subsequent calls return the
// cached value and error without re-evaluating.
func (d *Deferred) Force(ctx context.Context) (any, error) {
	d.once.Do(func() {
		d.val, d.err = d.fn(ctx)
	})
	return d.val, d.err
}

// IsNullish returns true for nil interfaces and typed nils (map, slice, ptr,
// interface).
func IsNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
