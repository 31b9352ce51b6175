// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import "sync"

// promiseState is the mutable, shared state behind a [Promise]'s value
// handle — held behind a pointer exactly as [IORef] holds its cell behind
// *A, since Promise itself flows by value through the effect tree and a
// value receiver would otherwise mutate a throwaway copy.
type promiseState struct {
	mu       sync.Mutex
	resolved bool
	exit     erasedExit
	waiters  []func(erasedExit)
}

// Promise[E, A] is a write-once synchronization point between fibers: any
// number of fibers may [Promise.Get] it, suspending until exactly one
// [Promise.Complete] or [Promise.Fail] call resolves it; every later call
// is reported as having lost the race rather than silently discarded,
// mirroring the Pending/Fulfilled/Rejected state machine a promise-style
// library exposes, collapsed here to the two outcomes [Effect] itself
// already distinguishes (a value, or a typed failure).
type Promise[E, A any] struct {
	st *promiseState
}

// NewPromise builds an effect that allocates a fresh, unresolved promise.
func NewPromise[E, A any]() Effect[E, Promise[E, A]] {
	return Point[E, Promise[E, A]](func() Promise[E, A] {
		return Promise[E, A]{st: &promiseState{}}
	})
}

// Complete resolves p with a successful value a, returning true if this
// call won the race to resolve it and false if p was already resolved.
func (p Promise[E, A]) Complete(a A) Effect[E, bool] {
	return p.resolve(completedExit(a))
}

// Fail resolves p with a typed failure e, returning true if this call won
// the race to resolve it.
func (p Promise[E, A]) Fail(e E) Effect[E, bool] {
	return p.resolve(failedExit(e))
}

func (p Promise[E, A]) resolve(exit erasedExit) Effect[E, bool] {
	return Sync[E, bool](func() bool {
		st := p.st
		st.mu.Lock()
		if st.resolved {
			st.mu.Unlock()
			return false
		}
		st.resolved = true
		st.exit = exit
		waiters := st.waiters
		st.waiters = nil
		st.mu.Unlock()
		for _, w := range waiters {
			w(exit)
		}
		return true
	})
}

// Get suspends the calling fiber until p is resolved, then propagates its
// outcome exactly like [Fiber.Join] propagates a fiber's exit.
func (p Promise[E, A]) Get() Effect[E, A] {
	return Effect[E, A]{n: &asyncNode{
		register: func(resume func(erasedExit)) func() {
			st := p.st
			st.mu.Lock()
			if st.resolved {
				exit := st.exit
				st.mu.Unlock()
				resume(exit)
				return nil
			}
			st.waiters = append(st.waiters, resume)
			st.mu.Unlock()
			return nil
		},
	}}
}
