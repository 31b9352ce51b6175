// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

// Effect[E, A] is an immutable, lazy description of a computation that may
// produce a value of type A or fail with a typed error of type E.
// Constructing an Effect never evaluates it — only the interpreter
// (trampoline.go) does, when the effect is run via [Run] or [Fork].
//
// Effect is a thin generic wrapper around a type-erased [node] tree; E and
// A exist only at the API boundary, recovered via type assertions when a
// value or typed error actually flows through the interpreter.
type Effect[E, A any] struct {
	n node
}

// Now lifts an already-evaluated value. Unlike [Point]/[Sync], a panic
// while computing a passed in 'a' happens at the call site, before Now is
// even invoked — eagerness is the point.
func Now[E, A any](a A) Effect[E, A] {
	return Effect[E, A]{n: &nowNode{value: a}}
}

// Point defers a pure thunk until interpreted. A panic raised by thunk
// surfaces as a defect, not a typed failure — use [SyncThrowable] to
// convert panics into E.
func Point[E, A any](thunk func() A) Effect[E, A] {
	return Effect[E, A]{n: &pointNode{thunk: func() any { return thunk() }}}
}

// Sync defers an effectful thunk until interpreted. Semantically
// equivalent to [Point]; kept distinct because call sites use Sync to
// signal "this touches the outside world" even though both share the same
// panic-is-a-defect contract.
func Sync[E, A any](thunk func() A) Effect[E, A] {
	return Effect[E, A]{n: &syncNode{thunk: func() any { return thunk() }}}
}

// SyncThrowable defers a thunk that may panic with an E value; the panic
// is recovered and converted into a typed failure rather than a defect.
// The recovered value is not checked against E: a panic with a value of
// another type still propagates as a typed failure, and an enclosing
// [Attempt] then fails with a defect when it converts that value to E.
func SyncThrowable[E, A any](thunk func() A) Effect[E, A] {
	return Effect[E, A]{n: &syncThrowableNode{thunk: func() any { return thunk() }}}
}

// Fail raises a typed failure carrying e. Recoverable by an enclosing
// [Attempt], through the [recoverFrame] it pushes.
func Fail[E, A any](e E) Effect[E, A] {
	return Effect[E, A]{n: &failNode{err: e}}
}

// Terminate raises an untyped defect. Never recovered by [Attempt] or
// [Absolve]; surfaces from [Run] unchanged.
func Terminate[E, A any](cause any) Effect[E, A] {
	return Effect[E, A]{n: &terminateNode{cause: cause}}
}

// Suspend defers both the production of the inner effect and any panic
// raised while producing it, evaluated exactly once per interpretation.
func Suspend[E, A any](thunk func() Effect[E, A]) Effect[E, A] {
	return Effect[E, A]{n: &suspendNode{thunk: func() node { return thunk().n }}}
}

// Never suspends forever, until the fiber running it is interrupted.
func Never[E, A any]() Effect[E, A] {
	return Effect[E, A]{n: &neverNode{}}
}

// FlatMap sequences m, passing its result to k.
func FlatMap[E, A, B any](m Effect[E, A], k func(A) Effect[E, B]) Effect[E, B] {
	return Effect[E, B]{n: &flatMapNode{
		child: m.n,
		k:     func(a any) node { return k(a.(A)).n },
	}}
}

// Map transforms m's result with a pure function f. Spec-level,
// Map(f) ≡ FlatMap(m, a => Now(f(a))); implemented directly as a
// flatMapNode whose continuation returns a nowNode holding f's result.
func Map[E, A, B any](m Effect[E, A], f func(A) B) Effect[E, B] {
	return Effect[E, B]{n: &flatMapNode{
		child: m.n,
		k:     func(a any) node { return &nowNode{value: f(a.(A))} },
	}}
}

// Then sequences m before n, discarding m's result.
func Then[E, A, B any](m Effect[E, A], n Effect[E, B]) Effect[E, B] {
	return Effect[E, B]{n: &flatMapNode{
		child: m.n,
		k:     func(any) node { return n.n },
	}}
}

// Attempt reifies child's typed failure into a successful [Either];
// defects and interruption are not caught and continue propagating.
func Attempt[E, A any](child Effect[E, A]) Effect[E, Either[E, A]] {
	return Effect[E, Either[E, A]]{n: &attemptNode{
		child:     child.n,
		wrapRight: func(a any) any { return Right[E, A](a.(A)) },
		wrapLeft:  func(e any) any { return Left[E, A](e.(E)) },
	}}
}

// Absolve is the inverse of [Attempt]: given an effect yielding an
// Either[E, A], un-reifies the Left case back into a typed failure.
// Absolve(Attempt(e)) is observationally e for both outcomes.
func Absolve[E, A any](child Effect[E, Either[E, A]]) Effect[E, A] {
	return Effect[E, A]{n: &absolveNode{
		child: child.n,
		unwrap: func(v any) (bool, any, any) {
			e := v.(Either[E, A])
			if e.IsRight() {
				r, _ := e.GetRight()
				return true, r, nil
			}
			l, _ := e.GetLeft()
			return false, nil, l
		},
	}}
}

// WidenError witnesses that a narrower error kind fits into a wider one.
// Purely structural: the interpreter treats it as transparent, so widen
// must not change the dynamic type carried through Fail/Terminate — only
// the static E at the API boundary changes.
func WidenError[E2, E, A any](child Effect[E, A]) Effect[E2, A] {
	return Effect[E2, A]{n: &widenErrorNode{child: child.n}}
}

// Ensuring runs finalizer after child on every exit path — success, typed
// failure, defect, or interruption. The finalizer runs with interrupts
// masked; a failure or panic inside the finalizer itself is reported to
// the fiber's uncaught-error handler and never replaces child's outcome.
func Ensuring[E, A any](child Effect[E, A], finalizer Effect[E, struct{}]) Effect[E, A] {
	return Effect[E, A]{n: &ensuringNode{child: child.n, finalizer: finalizer.n}}
}

// OnError runs cleanup only when child fails with a typed error, passing
// it to handler; runs handler with no error on success; is skipped
// entirely on interruption (and on defect — see DESIGN.md's resolution of
// the spec's silence on that case).
func OnError[E, A any](child Effect[E, A], handler func(e E, present bool) Effect[E, struct{}]) Effect[E, A] {
	return Effect[E, A]{n: &onErrorNode{
		child: child.n,
		handler: func(o errOpt) node {
			if o.has {
				return handler(o.err.(E), true).n
			}
			var zero E
			return handler(zero, false).n
		},
	}}
}
