// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"sync"
	"time"
)

// Bracket provides exception-safe resource acquisition and release:
// acquire, then use, then release — release runs on every exit path out
// of use, including interruption, the way [Ensuring] guarantees.
// Release never sees use's result; it only ever sees the resource.
func Bracket[E, R, A any](acquire Effect[E, R], release func(R) Effect[E, struct{}], use func(R) Effect[E, A]) Effect[E, A] {
	return FlatMap(acquire, func(r R) Effect[E, A] {
		return Ensuring(use(r), release(r))
	})
}

// exitInfo is a failure observed on an [ExitResult], stripped of A so it
// can be replayed against a differently-typed Effect (ParN's per-item
// results all carry A, but the combined failure it propagates has to be
// an Effect[E, []A]).
type exitInfo struct {
	kind    failureKind
	payload any
}

func extractFailure[A any](r ExitResult[A]) (exitInfo, bool) {
	if _, ok := r.Value(); ok {
		return exitInfo{}, false
	}
	if cause, ok := r.DefectCause(); ok {
		return exitInfo{kind: defectFailure, payload: cause}, true
	}
	if e, ok := r.Err(); ok {
		return exitInfo{kind: typedFailure, payload: e}, true
	}
	cause, _ := r.Cause()
	return exitInfo{kind: interruptFailure, payload: cause}, true
}

func propagateFailure[E, A any](info exitInfo) Effect[E, A] {
	switch info.kind {
	case typedFailure:
		return Fail[E, A](info.payload.(E))
	case defectFailure:
		return Terminate[E, A](info.payload)
	default:
		return Effect[E, A]{n: &terminateNode{cause: Interrupted{Cause: info.payload}}}
	}
}

// exitResultToEffect replays an already-observed ExitResult as an effect,
// so combinators built on [Fiber.Await] can hand a sibling's outcome back
// to the caller without re-deriving Completed/Failed/Interrupted by hand
// at every call site.
func exitResultToEffect[E, A any](r ExitResult[A]) Effect[E, A] {
	if v, ok := r.Value(); ok {
		return Now[E, A](v)
	}
	info, _ := extractFailure(r)
	return propagateFailure[E, A](info)
}

// raceLoserCause is the interruption cause [Race] delivers to whichever
// side did not win.
type raceLoserCause struct{}

type raceArrival[A any] struct {
	idx  int
	exit ExitResult[A]
}

// Race runs a and b on their own fibers and returns whichever completes
// first. The loser is interrupted and its finalizers are allowed to run
// to completion — observed via [Fiber.Await] — before Race's result is
// produced, so a caller never sees Race return while the loser is still
// tearing down.
func Race[E, A any](a, b Effect[E, A]) Effect[E, A] {
	return Suspend(func() Effect[E, A] {
		return FlatMap(NewPromise[E, raceArrival[A]](), func(arrived Promise[E, raceArrival[A]]) Effect[E, A] {
			watch := func(idx int, fb Fiber[E, A]) Effect[E, struct{}] {
				return FlatMap(fb.Await(), func(exit ExitResult[A]) Effect[E, struct{}] {
					return Map(arrived.Complete(raceArrival[A]{idx: idx, exit: exit}), func(bool) struct{} { return struct{}{} })
				})
			}
			return FlatMap(Fork(a), func(fa Fiber[E, A]) Effect[E, A] {
				return FlatMap(Fork(b), func(fb Fiber[E, A]) Effect[E, A] {
					return FlatMap(Fork(watch(0, fa)), func(Fiber[E, struct{}]) Effect[E, A] {
						return FlatMap(Fork(watch(1, fb)), func(Fiber[E, struct{}]) Effect[E, A] {
							return FlatMap(arrived.Get(), func(first raceArrival[A]) Effect[E, A] {
								loser := fb
								if first.idx == 1 {
									loser = fa
								}
								return FlatMap(loser.Interrupt(raceLoserCause{}), func(struct{}) Effect[E, A] {
									return FlatMap(loser.Await(), func(ExitResult[A]) Effect[E, A] {
										return exitResultToEffect[E, A](first.exit)
									})
								})
							})
						})
					})
				})
			})
		})
	})
}

// RaceAll returns whichever of effects completes first; every other one
// is interrupted and awaited to completion, same as [Race] generalized
// to N competitors. Panics if effects is empty.
func RaceAll[E, A any](effects []Effect[E, A]) Effect[E, A] {
	if len(effects) == 0 {
		panic("rts: RaceAll called with no effects")
	}
	result := effects[0]
	for _, eff := range effects[1:] {
		result = Race(result, eff)
	}
	return result
}

// Par runs effects concurrently, each on its own fiber, and waits for
// every one to complete before returning their results in the same
// order. On failure, Par interrupts every other still-running sibling
// and propagates the first failure observed, matching §6's "first
// failure interrupts the rest" contract.
func Par[E, A any](effects []Effect[E, A]) Effect[E, []A] {
	return ParN(len(effects), effects)
}

// parSiblingFailedCause is the interruption cause [ParN] delivers to
// every lane still running once one of them has failed.
type parSiblingFailedCause struct{}

// parCoordinator is the shared, mutex-guarded state behind a single
// [ParN] call: which index each lane should pull next, which fibers are
// currently running (so a failure can interrupt them), and whether a
// failure has already been claimed. Plain-mutex state accessed directly
// from within Effect-producing closures, the same way [Promise]'s
// internal state is touched from inside [Sync] thunks.
type parCoordinator[E, A any] struct {
	mu      sync.Mutex
	cursor  int
	failed  bool
	failure exitInfo
	active  []Fiber[E, A]
}

// nextIndex claims the next unstarted index, or reports false once the
// cursor is exhausted or a sibling has already failed.
func (c *parCoordinator[E, A]) nextIndex(total int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed || c.cursor >= total {
		return 0, false
	}
	idx := c.cursor
	c.cursor++
	return idx, true
}

// addActive registers fb as running. Reports true if a sibling had
// already failed by the time fb was forked, in which case the caller
// must interrupt fb immediately rather than track it for later.
func (c *parCoordinator[E, A]) addActive(fb Fiber[E, A]) (alreadyFailed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return true
	}
	c.active = append(c.active, fb)
	return false
}

func (c *parCoordinator[E, A]) removeActive(fb Fiber[E, A]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.active {
		if a.f == fb.f {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return
		}
	}
}

// reportFailure claims the first failure, if none has been claimed yet,
// and returns the siblings that were active at that moment so the caller
// can interrupt them. A later call (another lane also failing) is a
// no-op and returns nil.
func (c *parCoordinator[E, A]) reportFailure(info exitInfo) (toInterrupt []Fiber[E, A]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return nil
	}
	c.failed = true
	c.failure = info
	toInterrupt = c.active
	c.active = nil
	return toInterrupt
}

func (c *parCoordinator[E, A]) snapshotFailure() (exitInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure, c.failed
}

// interruptSiblings interrupts every fiber in fibers and waits for each
// one's finalizers to finish before returning, same as [Race]'s loser
// handling generalized to N siblings.
func interruptSiblings[E, A any](fibers []Fiber[E, A]) Effect[E, struct{}] {
	chain := Now[E, struct{}](struct{}{})
	for _, fb := range fibers {
		fb := fb
		chain = FlatMap(chain, func(struct{}) Effect[E, struct{}] {
			return FlatMap(fb.Interrupt(parSiblingFailedCause{}), func(struct{}) Effect[E, struct{}] {
				return Map(fb.Await(), func(ExitResult[A]) struct{} { return struct{}{} })
			})
		})
	}
	return chain
}

// ParN is [Par] bounded to at most n effects running concurrently at a
// time: n lane fibers each pull the next unstarted index off a shared
// cursor until none remain, or until a sibling's failure interrupts
// everything still running.
func ParN[E, A any](n int, effects []Effect[E, A]) Effect[E, []A] {
	total := len(effects)
	if total == 0 {
		return Now[E, []A](nil)
	}
	if n <= 0 || n > total {
		n = total
	}
	return Suspend(func() Effect[E, []A] {
		results := make([]ExitResult[A], total)
		coord := &parCoordinator[E, A]{}
		var laneStep func() Effect[E, struct{}]
		laneStep = func() Effect[E, struct{}] {
			idx, ok := coord.nextIndex(total)
			if !ok {
				return Now[E, struct{}](struct{}{})
			}
			return FlatMap(Fork(effects[idx]), func(fb Fiber[E, A]) Effect[E, struct{}] {
				if coord.addActive(fb) {
					return FlatMap(fb.Interrupt(parSiblingFailedCause{}), func(struct{}) Effect[E, struct{}] {
						return Map(fb.Await(), func(ExitResult[A]) struct{} { return struct{}{} })
					})
				}
				return FlatMap(fb.Await(), func(exit ExitResult[A]) Effect[E, struct{}] {
					coord.removeActive(fb)
					results[idx] = exit
					if info, isFailure := extractFailure(exit); isFailure {
						toInterrupt := coord.reportFailure(info)
						return FlatMap(interruptSiblings[E, A](toInterrupt), func(struct{}) Effect[E, struct{}] {
							return Suspend(laneStep)
						})
					}
					return Suspend(laneStep)
				})
			})
		}
		lanes := make([]Effect[E, struct{}], n)
		for i := range lanes {
			lanes[i] = Suspend(laneStep)
		}
		return FlatMap(joinAllLanes(lanes), func(struct{}) Effect[E, []A] {
			if info, failed := coord.snapshotFailure(); failed {
				return propagateFailure[E, []A](info)
			}
			out := make([]A, total)
			for i, exit := range results {
				v, _ := exit.Value()
				out[i] = v
			}
			return Now[E, []A](out)
		})
	})
}

// joinAllLanes forks every lane and joins them in sequence — lanes never
// fail (they only ever complete once their shared cursor is exhausted),
// so a plain sequential join, rather than anything Race-like, is enough.
func joinAllLanes[E any](lanes []Effect[E, struct{}]) Effect[E, struct{}] {
	forked := make([]Fiber[E, struct{}], len(lanes))
	chain := Now[E, struct{}](struct{}{})
	for i, lane := range lanes {
		i, lane := i, lane
		chain = FlatMap(chain, func(struct{}) Effect[E, struct{}] {
			return Map(Fork(lane), func(fb Fiber[E, struct{}]) struct{} {
				forked[i] = fb
				return struct{}{}
			})
		})
	}
	return FlatMap(chain, func(struct{}) Effect[E, struct{}] {
		joined := Now[E, struct{}](struct{}{})
		for _, fb := range forked {
			fb := fb
			joined = FlatMap(joined, func(struct{}) Effect[E, struct{}] {
				return Map(fb.Join(), func(struct{}) struct{} { return struct{}{} })
			})
		}
		return joined
	})
}

// MergeAll forks every effect, waits for all of them, and returns their
// results in order. An alias for [Par] kept distinct because call sites
// reaching for "fork everything and collect" read more naturally as
// MergeAll than Par when there's no notion of a shared index.
func MergeAll[E, A any](effects []Effect[E, A]) Effect[E, []A] {
	return Par(effects)
}

// ReduceAll runs every effect concurrently via [Par], then folds the
// results left-to-right starting from zero.
func ReduceAll[E, A, B any](effects []Effect[E, A], zero B, f func(B, A) B) Effect[E, B] {
	return Map(Par(effects), func(as []A) B {
		acc := zero
		for _, a := range as {
			acc = f(acc, a)
		}
		return acc
	})
}

// DoUntil repeatedly runs body until pred(result) reports true, returning
// that final result.
func DoUntil[E, A any](body Effect[E, A], pred func(A) bool) Effect[E, A] {
	return FlatMap(body, func(a A) Effect[E, A] {
		if pred(a) {
			return Now[E, A](a)
		}
		return Suspend(func() Effect[E, A] { return DoUntil(body, pred) })
	})
}

// Forever repeats body indefinitely — it only terminates via failure,
// defect, or interruption, never by returning a value.
func Forever[E, A any](body Effect[E, A]) Effect[E, A] {
	return FlatMap(body, func(A) Effect[E, A] {
		return Suspend(func() Effect[E, A] { return Forever(body) })
	})
}

// TimeoutResult is [Timeout]'s outcome: Ok is false when d elapsed before
// eff produced a value, in which case eff was interrupted.
type TimeoutResult[A any] struct {
	Value A
	Ok    bool
}

type taggedResult[A any] struct {
	ok    bool
	value A
}

// Timeout races eff against a [Sleep] of d. If eff wins, Ok is true and
// Value is its result; if the sleep wins, eff is interrupted (per
// [Race]'s loser handling) and Ok is false.
func Timeout[E, A any](d time.Duration, eff Effect[E, A]) Effect[E, TimeoutResult[A]] {
	return Suspend(func() Effect[E, TimeoutResult[A]] {
		tagged := Map(eff, func(a A) taggedResult[A] { return taggedResult[A]{ok: true, value: a} })
		timedOut := Map(Sleep[E](d), func(struct{}) taggedResult[A] { return taggedResult[A]{ok: false} })
		return Map(Race(tagged, timedOut), func(r taggedResult[A]) TimeoutResult[A] {
			return TimeoutResult[A]{Value: r.value, Ok: r.ok}
		})
	})
}
