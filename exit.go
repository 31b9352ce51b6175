// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

// exitKind classifies the three-way outcome of a fiber.
type exitKind uint8

const (
	exitCompleted exitKind = iota
	exitFailed
	exitInterrupted
)

// erasedExit is the internal, type-erased currency of fiber completion and
// async resumption. The interpreter only ever sees erasedExit; the typed
// [ExitResult] wrapper is reconstructed at the public boundary.
type erasedExit struct {
	kind  exitKind
	value any // valid when kind == exitCompleted
	err   any // valid when kind == exitFailed: typed E, or a *defect
	cause any // valid when kind == exitInterrupted
}

// defect marks an untyped, non-recoverable failure distinct from a typed E.
// Carrying it inside erasedExit.err (rather than a fourth exitKind) keeps
// the failure-propagation switch in the interpreter to three cases while
// still letting [Attempt] distinguish "typed" from "defect" via a type
// assertion on err.
type defect struct{ cause any }

func completedExit(v any) erasedExit      { return erasedExit{kind: exitCompleted, value: v} }
func failedExit(e any) erasedExit         { return erasedExit{kind: exitFailed, err: e} }
func defectExit(cause any) erasedExit     { return erasedExit{kind: exitFailed, err: defect{cause: cause}} }
func interruptedExit(cause any) erasedExit {
	return erasedExit{kind: exitInterrupted, cause: cause}
}

func (e erasedExit) isDefect() bool {
	if e.kind != exitFailed {
		return false
	}
	_, ok := e.err.(defect)
	return ok
}

// ExitResult is the three-way outcome of a fiber or a top-level run:
// Completed, Failed (typed E, or a defect surfaced as a panic at [Run]'s
// boundary), or Interrupted.
type ExitResult[A any] struct {
	e erasedExit
}

// Completed builds a successful ExitResult.
func Completed[A any](a A) ExitResult[A] { return ExitResult[A]{e: completedExit(a)} }

// FailedExit builds a typed-failure ExitResult.
func FailedExit[A any](e any) ExitResult[A] { return ExitResult[A]{e: failedExit(e)} }

// InterruptedExit builds an interrupted ExitResult carrying cause.
func InterruptedExit[A any](cause any) ExitResult[A] {
	return ExitResult[A]{e: interruptedExit(cause)}
}

// IsCompleted reports whether the fiber completed successfully.
func (r ExitResult[A]) IsCompleted() bool { return r.e.kind == exitCompleted }

// IsFailed reports whether the fiber failed, typed or as a defect.
func (r ExitResult[A]) IsFailed() bool { return r.e.kind == exitFailed }

// IsInterrupted reports whether the fiber was interrupted.
func (r ExitResult[A]) IsInterrupted() bool { return r.e.kind == exitInterrupted }

// IsDefect reports whether a failed ExitResult carries an untyped defect
// rather than a typed error.
func (r ExitResult[A]) IsDefect() bool { return r.e.isDefect() }

// Value returns the success value and true, or the zero value and false.
func (r ExitResult[A]) Value() (A, bool) {
	if r.e.kind != exitCompleted {
		var zero A
		return zero, false
	}
	return r.e.value.(A), true
}

// Err returns the typed error and true if this is a typed failure; returns
// false for a defect (use [ExitResult.DefectCause]) or a non-failed exit.
func (r ExitResult[A]) Err() (any, bool) {
	if r.e.kind != exitFailed || r.e.isDefect() {
		return nil, false
	}
	return r.e.err, true
}

// DefectCause returns the defect's cause and true, or nil and false.
func (r ExitResult[A]) DefectCause() (any, bool) {
	if r.e.kind != exitFailed {
		return nil, false
	}
	d, ok := r.e.err.(defect)
	if !ok {
		return nil, false
	}
	return d.cause, true
}

// Cause returns the interruption cause and true, or nil and false.
func (r ExitResult[A]) Cause() (any, bool) {
	if r.e.kind != exitInterrupted {
		return nil, false
	}
	return r.e.cause, true
}

// MapExit applies f to a completed ExitResult's value, leaving failure and
// interruption exits unchanged.
func MapExit[A, B any](r ExitResult[A], f func(A) B) ExitResult[B] {
	if r.e.kind != exitCompleted {
		return ExitResult[B]{e: r.e}
	}
	return Completed[B](f(r.e.value.(A)))
}
