// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

// node is the type-erased, closed tagged variant of an effect description.
// [Effect][E, A] is a thin generic wrapper around a node; the interpreter
// (trampoline.go) walks nodes without ever needing E or A, recovering concrete
// types only at the boundary (construction and final value production).
//
// The set of variants is closed — new effect shapes are not meant to be
// added by consumers of this package, only composed from these.
type node interface {
	node()
}

// nowNode: eager value, already evaluated at construction time.
type nowNode struct{ value any }

func (*nowNode) node() {}

// pointNode: lazy pure thunk. A panic while evaluating surfaces as a defect.
type pointNode struct{ thunk func() any }

func (*pointNode) node() {}

// syncNode: lazy effectful thunk. Like pointNode, panics are defects.
type syncNode struct{ thunk func() any }

func (*syncNode) node() {}

// syncThrowableNode: like syncNode, but a panic is converted into a typed
// failure carrying the recovered value instead of surfacing as a defect.
type syncThrowableNode struct{ thunk func() any }

func (*syncThrowableNode) node() {}

// suspendNode: lazy wrap — building it evaluates neither the thunk nor any
// exception it might raise; evaluated exactly once per interpretation.
type suspendNode struct{ thunk func() node }

func (*suspendNode) node() {}

// failNode: typed failure carrying e.
type failNode struct{ err any }

func (*failNode) node() {}

// terminateNode: untyped defect, not recoverable by Attempt.
type terminateNode struct{ cause any }

func (*terminateNode) node() {}

// flatMapNode: sequence child, then k(value).
type flatMapNode struct {
	child node
	k     func(any) node
}

func (*flatMapNode) node() {}

// attemptNode: reify child's typed failure into a success Either. wrapRight
// and wrapLeft close over the concrete E, A known at construction time
// (effect.go's Attempt) so the interpreter never needs them as type
// parameters — the same erasure trick [flatMapNode.k] uses.
type attemptNode struct {
	child     node
	wrapRight func(any) any
	wrapLeft  func(any) any
}

func (*attemptNode) node() {}

// absolveNode: inverse of attemptNode — child yields Either, un-reify it.
// unwrap reports whether the Either was Right, and the right value or left
// error, again closing over the concrete E, A from effect.go's Absolve.
type absolveNode struct {
	child  node
	unwrap func(any) (isRight bool, value any, err any)
}

func (*absolveNode) node() {}

// asyncNode: register(resume) starts an async op; resume fires at most once.
// register optionally returns a canceler invoked if the fiber is interrupted
// while suspended.
type asyncNode struct {
	register func(resume func(erasedExit)) (canceler func())
}

func (*asyncNode) node() {}

// asyncPureNode: register is itself an effect, run to perform registration.
type asyncPureNode struct {
	register func() node
}

func (*asyncPureNode) node() {}

// forkNode: schedule child on a new fiber; handler receives any unhandled
// error that reaches the top of that fiber's stack. nil means "use the
// runtime's default logger-backed handler" ([Fork] vs. [Fork0]).
type forkNode struct {
	child   node
	handler UncaughtHandler
}

func (*forkNode) node() {}

// joinNode: suspend until fiber terminates, propagating its exit.
type joinNode struct{ fiber *fiber }

func (*joinNode) node() {}

// awaitNode: like joinNode but never propagates — always succeeds with the
// target's full erasedExit, wrapped by wrap into the caller's ExitResult[A].
type awaitNode struct {
	fiber *fiber
	wrap  func(erasedExit) any
}

func (*awaitNode) node() {}

// interruptNode: signal fiber to terminate with cause.
type interruptNode struct {
	fiber *fiber
	cause any
}

func (*interruptNode) node() {}

// sleepNode: resumes after duration elapses.
type sleepNode struct{ d int64 } // nanoseconds; see timer.go

func (*sleepNode) node() {}

// ensuringNode: run finalizer after child on every exit path, uninterruptibly.
type ensuringNode struct {
	child     node
	finalizer node
}

func (*ensuringNode) node() {}

// onErrorNode: like ensuringNode but handler(Some(e))/handler(None); skipped
// on interruption (and on defect — see DESIGN.md).
type onErrorNode struct {
	child   node
	handler func(errOpt) node
}

func (*onErrorNode) node() {}

// errOpt is the Option[E] passed to OnError's handler: has==false means the
// child succeeded (None); has==true carries the typed error (Some(e)).
type errOpt struct {
	has bool
	err any
}

// widenErrorNode: structural witness that a narrower error kind fits a
// wider one. Purely a relabeling; the interpreter treats it as transparent.
type widenErrorNode struct{ child node }

func (*widenErrorNode) node() {}

// neverNode: suspends forever until interrupted.
type neverNode struct{}

func (*neverNode) node() {}
