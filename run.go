// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/automaxprocs/maxprocs"
)

func init() {
	_, _ = maxprocs.Set()
	defaultRuntime = NewRuntime()
}

func defaultWorkers() int { return runtime.GOMAXPROCS(0) }

// defaultRuntime is the package-level [Runtime] used by [Run] and [Fork]
// when no explicit Runtime is threaded through — a convenience for the
// common case of a program with a single effect scheduler, the way the
// teacher's package exposed a single package-level Run rather than
// forcing every call site to carry a handler value.
// It is built in init, after maxprocs.Set has tuned GOMAXPROCS.
var defaultRuntime *Runtime

// UnhandledError wraps a typed failure E that reached [Run] without being
// caught by any [Attempt] along the way.
type UnhandledError struct{ Err any }

func (u UnhandledError) Error() string { return fmt.Sprintf("rts: unhandled error: %v", u.Err) }

// Interrupted is panicked by [Run] when the top-level fiber was
// interrupted before producing a value.
type Interrupted struct{ Cause any }

func (i Interrupted) Error() string { return fmt.Sprintf("rts: interrupted: %v", i.Cause) }

// Run interprets eff to completion on [defaultRuntime]'s worker pool,
// blocking the calling goroutine until it terminates (§6). A completed
// exit returns its value; a typed failure, a defect, or an interruption
// all surface as a panic, since Run's signature has nowhere else to put
// them — callers that need the three-way outcome without panicking
// should [Fork] and [Fiber.Await] instead.
func Run[E, A any](eff Effect[E, A]) A {
	return RunOn[E, A](defaultRuntime, eff)
}

// RunOn is [Run], but against an explicit [Runtime] instead of the
// package-level default — for programs that want distinct worker pools
// (and distinct uncaught-error loggers) for different subsystems.
func RunOn[E, A any](rt *Runtime, eff Effect[E, A]) A {
	fb := forkOn[E, A](rt, eff, nil)
	exit, err := fb.AwaitContext(context.Background())
	if err != nil {
		panic(err)
	}
	if v, ok := exit.Value(); ok {
		return v
	}
	if cause, ok := exit.DefectCause(); ok {
		panic(cause)
	}
	if e, ok := exit.Err(); ok {
		panic(UnhandledError{Err: e})
	}
	cause, _ := exit.Cause()
	panic(Interrupted{Cause: cause})
}

// RunContext is [RunOn], but honors ctx: if ctx is canceled before eff
// terminates, RunContext interrupts the top-level fiber with ctx.Err()
// as the cause and returns once that interruption, and its finalizers,
// have completed.
func RunContext[E, A any](ctx context.Context, rt *Runtime, eff Effect[E, A]) (A, error) {
	fb := forkOn[E, A](rt, eff, nil)
	exit, err := fb.AwaitContext(ctx)
	if err != nil {
		fb.f.requestInterrupt(ctx.Err())
		exit, err = fb.AwaitContext(context.Background())
		if err != nil {
			return zeroOf[A](), err
		}
	}
	if v, ok := exit.Value(); ok {
		return v, nil
	}
	if cause, ok := exit.DefectCause(); ok {
		return zeroOf[A](), fmt.Errorf("rts: defect: %v", cause)
	}
	if e, ok := exit.Err(); ok {
		return zeroOf[A](), UnhandledError{Err: e}
	}
	cause, _ := exit.Cause()
	return zeroOf[A](), Interrupted{Cause: cause}
}

func zeroOf[A any]() A {
	var zero A
	return zero
}

// Fork schedules eff on a new fiber and returns immediately with a
// handle to it, using rt's default logger-backed uncaught-error handler.
func Fork[E, A any](eff Effect[E, A]) Effect[E, Fiber[E, A]] {
	return Effect[E, Fiber[E, A]]{n: &flatMapNode{
		child: &forkNode{child: eff.n, handler: nil},
		k:     func(v any) node { return &nowNode{value: Fiber[E, A]{f: v.(*fiberHandle).f}} },
	}}
}

// Fork0 is [Fork] with an explicit per-fiber [UncaughtHandler], overriding
// the runtime default — see §9 "Defaults and global state".
func Fork0[E, A any](eff Effect[E, A], onUncaught UncaughtHandler) Effect[E, Fiber[E, A]] {
	return Effect[E, Fiber[E, A]]{n: &flatMapNode{
		child: &forkNode{child: eff.n, handler: onUncaught},
		k:     func(v any) node { return &nowNode{value: Fiber[E, A]{f: v.(*fiberHandle).f}} },
	}}
}

// forkOn is the entry point shared by Run/RunOn/RunContext: it builds the
// root fiber directly, bypassing the forkNode/Effect machinery, since
// there is no parent fiber yet to push a continuation onto.
func forkOn[E, A any](rt *Runtime, eff Effect[E, A], onUncaught UncaughtHandler) Fiber[E, A] {
	fb := newFiber(rt, orDefaultHandler(rt, onUncaught))
	rt.submit(func() {
		rs := &runState{rt: rt, fb: fb, stack: acquireContStack()}
		rs.step(eff.n, nil, noFailure, nil)
	})
	return Fiber[E, A]{f: fb}
}
