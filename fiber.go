// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"context"
	"sync"

	atomicpkg "go.uber.org/atomic"
)

// FiberStatus is a point-in-time snapshot of a fiber's scheduling state.
type FiberStatus int32

const (
	// FiberExecuting means the fiber's continuation is runnable or
	// currently running on a worker goroutine.
	FiberExecuting FiberStatus = iota
	// FiberSuspended means the fiber is waiting on an async registration,
	// a timer, or another fiber's completion.
	FiberSuspended
	// FiberDone means the fiber has produced its final [ExitResult].
	FiberDone
)

func (s FiberStatus) String() string {
	switch s {
	case FiberExecuting:
		return "executing"
	case FiberSuspended:
		return "suspended"
	case FiberDone:
		return "done"
	default:
		return "unknown"
	}
}

// fiber is the internal, type-erased unit of concurrency — one goroutine's
// worth of logical control flow, though it never owns a goroutine of its
// own: its continuation runs on whichever worker the [Runtime] hands it.
// Mutable fields are split the way the teacher splits Suspension state: a
// handful of lock-free atomics for the fast preemption-point checks every
// interpreter step makes, and a mutex guarding the richer multi-field
// transitions (observers, canceler, pendingResume) that only change at
// suspension/resumption boundaries.
type fiber struct {
	id uint64
	rt *Runtime

	uncaught UncaughtHandler

	status           atomicpkg.Int32
	interruptPending atomicpkg.Bool
	maskDepth        atomicpkg.Int32

	mu            sync.Mutex
	canceler      func()
	pendingResume func(erasedExit)
	interruptCause any
	observers     []func(erasedExit)
	done          bool
	exit          erasedExit
}

func newFiber(rt *Runtime, uncaught UncaughtHandler) *fiber {
	return &fiber{id: rt.nextFiberID(), rt: rt, uncaught: uncaught}
}

// suspendWith arms fb for suspension and returns a guarded resume entry
// point that fires resume at most once, even if a legitimate completion
// and a concurrent [fiber.requestInterrupt] both race to call it — extra
// invocations are silently discarded, per §4.2's Async contract.
func (f *fiber) suspendWith(resume func(erasedExit)) func(erasedExit) {
	var fired atomicpkg.Bool
	guarded := func(e erasedExit) {
		if !fired.CompareAndSwap(false, true) {
			return
		}
		f.mu.Lock()
		f.canceler = nil
		f.pendingResume = nil
		f.mu.Unlock()
		f.status.Store(int32(FiberExecuting))
		resume(e)
	}
	f.mu.Lock()
	f.pendingResume = guarded
	f.mu.Unlock()
	f.status.Store(int32(FiberSuspended))
	return guarded
}

func (f *fiber) setCanceler(c func()) {
	f.mu.Lock()
	f.canceler = c
	f.mu.Unlock()
}

// requestInterrupt delivers cause to f. The first call wins; later causes
// are discarded. If f is currently suspended, its canceler (if any) runs
// and its pending resume is invoked immediately with an interrupted exit;
// otherwise the running interpreter loop observes interruptPending at its
// next preemption point between nodes.
func (f *fiber) requestInterrupt(cause any) {
	if !f.interruptPending.CompareAndSwap(false, true) {
		return
	}
	f.mu.Lock()
	f.interruptCause = cause
	resume := f.pendingResume
	canceler := f.canceler
	f.mu.Unlock()
	if resume == nil {
		return
	}
	if canceler != nil {
		canceler()
	}
	resume(interruptedExit(cause))
}

func (f *fiber) loadInterruptCause() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interruptCause
}

// addObserver calls cb once f completes, or immediately if f is already
// done.
func (f *fiber) addObserver(cb func(erasedExit)) {
	f.mu.Lock()
	if f.done {
		exit := f.exit
		f.mu.Unlock()
		cb(exit)
		return
	}
	f.observers = append(f.observers, cb)
	f.mu.Unlock()
}

// complete marks f done and fires every observer exactly once. Idempotent:
// a second call is a no-op, since the interpreter only ever reaches it
// once the continuation stack is empty.
func (f *fiber) complete(e erasedExit) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return
	}
	f.done = true
	f.exit = e
	obs := f.observers
	f.observers = nil
	f.mu.Unlock()
	f.status.Store(int32(FiberDone))
	if e.kind != exitCompleted && f.uncaught != nil {
		f.uncaught(f.id, reportOf(e))
	}
	for _, cb := range obs {
		cb(e)
	}
}

// Fiber[E, A] is the public, typed handle to a running or completed fiber,
// returned by [Fork]. It carries no state of its own beyond the pointer to
// the underlying erased fiber.
type Fiber[E, A any] struct {
	f *fiber
}

// Join suspends the caller until fb terminates, propagating its outcome:
// a completed exit becomes this effect's value, a typed failure or defect
// propagates as this fiber's own failure, and an interruption propagates
// as this fiber's own interruption.
func (fb Fiber[E, A]) Join() Effect[E, A] {
	return Effect[E, A]{n: &joinNode{fiber: fb.f}}
}

// Await suspends the caller until fb terminates, always succeeding with
// fb's full [ExitResult] rather than propagating it — the building block
// [Race] and friends use to observe a sibling without being torn down by
// its failure.
func (fb Fiber[E, A]) Await() Effect[E, ExitResult[A]] {
	return Effect[E, ExitResult[A]]{n: &awaitNode{
		fiber: fb.f,
		wrap: func(e erasedExit) any {
			if e.kind == exitCompleted {
				return Completed[A](e.value.(A))
			}
			return ExitResult[A]{e: e}
		},
	}}
}

// Interrupt signals fb to terminate with cause, returning a unit effect
// that completes as soon as delivery is queued — it does not wait for fb
// to actually finish. Use [Fiber.Join] or [Fiber.Await] afterward to wait
// for fb's finalizers to run to completion.
func (fb Fiber[E, A]) Interrupt(cause any) Effect[E, struct{}] {
	return Effect[E, struct{}]{n: &interruptNode{fiber: fb.f, cause: cause}}
}

// Status reports fb's current scheduling state.
func (fb Fiber[E, A]) Status() FiberStatus { return FiberStatus(fb.f.status.Load()) }

// ID returns fb's diagnostic identifier, unique within its [Runtime].
func (fb Fiber[E, A]) ID() uint64 { return fb.f.id }

// AwaitContext blocks the calling goroutine (not a fiber — an actual OS
// thread of control outside the effect system) until fb completes or ctx
// is done, whichever comes first. It exists for embedding rts fibers in
// code that is not itself written against [Effect] — tests, HTTP
// handlers winding down, CLI entry points.
func (fb Fiber[E, A]) AwaitContext(ctx context.Context) (ExitResult[A], error) {
	done := make(chan erasedExit, 1)
	fb.f.addObserver(func(e erasedExit) { done <- e })
	select {
	case e := <-done:
		if e.kind == exitCompleted {
			return Completed[A](e.value.(A)), nil
		}
		return ExitResult[A]{e: e}, nil
	case <-ctx.Done():
		var zero ExitResult[A]
		return zero, ctx.Err()
	}
}
