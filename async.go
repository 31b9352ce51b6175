// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

// Async suspends the fiber and hands register a resume callback that
// completes the fiber with a, a typed error e, or an interruption when
// called. register may return a canceler, invoked if the fiber is
// interrupted while still suspended (e.g. to cancel an in-flight network
// request). Calling resume more than once is safe: every invocation
// after the first is silently discarded rather than panicking, since
// external APIs occasionally fire a completion callback twice (e.g. a
// context cancellation racing a genuine response).
func Async[E, A any](register func(resume func(ExitResult[A])) (canceler func())) Effect[E, A] {
	return Effect[E, A]{n: &asyncNode{
		register: func(resume func(erasedExit)) func() {
			return register(func(r ExitResult[A]) { resume(r.e) })
		},
	}}
}

// AsyncPure is like [Async], but registration is itself an effect rather
// than a raw callback — useful when starting the operation can itself
// fail or needs access to the ambient fiber's own effect machinery
// (logging, IORef access) before the real suspension happens. register
// is run to produce the effect the fiber continues with; conventionally
// that effect is built from [Async] internally.
func AsyncPure[E, A any](register func() Effect[E, A]) Effect[E, A] {
	return Effect[E, A]{n: &asyncPureNode{register: func() node { return register().n }}}
}
