// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import "sync"

// IORef[A] is a mutable cell shared safely across fibers. Every operation
// on it is an [Effect], so reads, writes, and read-modify-write cycles
// compose with the rest of a fiber's control flow (sequencing, retries,
// interruption) instead of racing outside it the way a bare *A would.
type IORef[A any] struct {
	mu    *sync.Mutex
	value *A
}

// NewIORef builds an effect that allocates a fresh ref holding initial.
// Allocation itself is lazy and deferred like any other [Point], even
// though it has no failure mode, to keep IORef construction orderable
// relative to other effects in a FlatMap chain.
func NewIORef[E, A any](initial A) Effect[E, IORef[A]] {
	return Point[E, IORef[A]](func() IORef[A] {
		v := initial
		return IORef[A]{mu: &sync.Mutex{}, value: &v}
	})
}

// Get reads the current value.
func (r IORef[A]) Get() Effect[any, A] {
	return syncAny(func() A {
		r.mu.Lock()
		defer r.mu.Unlock()
		return *r.value
	})
}

// Set overwrites the current value, discarding it.
func (r IORef[A]) Set(a A) Effect[any, struct{}] {
	return syncAny(func() struct{} {
		r.mu.Lock()
		*r.value = a
		r.mu.Unlock()
		return struct{}{}
	})
}

// Modify atomically applies f to the current value and returns the new
// value — the read and the write happen under the same lock, so
// concurrent fibers racing Modify on the same ref never lose an update.
func (r IORef[A]) Modify(f func(A) A) Effect[any, A] {
	return syncAny(func() A {
		r.mu.Lock()
		defer r.mu.Unlock()
		*r.value = f(*r.value)
		return *r.value
	})
}

// GetAndSet atomically swaps in a and returns the previous value.
func (r IORef[A]) GetAndSet(a A) Effect[any, A] {
	return syncAny(func() A {
		r.mu.Lock()
		defer r.mu.Unlock()
		old := *r.value
		*r.value = a
		return old
	})
}

// syncAny is Sync specialized to Effect[any, A] — IORef operations never
// fail typed, so E is pinned to any rather than left to infer oddly at
// call sites that don't otherwise care about it.
func syncAny[A any](thunk func() A) Effect[any, A] {
	return Sync[any, A](thunk)
}
