// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

// failureKind tags what, if anything, is propagating through step in place
// of a value. Kept as a small enum rather than folding into erasedExit
// everywhere, since the frame-popping loop branches on it far more often
// than it ever needs the full erasedExit shape.
type failureKind uint8

const (
	noFailure failureKind = iota
	typedFailure
	defectFailure
	interruptFailure
)

// runState is the suspended-and-resumable context of one fiber's
// interpretation: the fiber it belongs to, the runtime it submits
// continuations through, and the explicit continuation stack that
// survives across suspension points. A runState is captured by closures
// registered with async ops, timers, and sibling fibers' observer lists —
// it is the thing that gets "woken up".
type runState struct {
	rt    *Runtime
	fb    *fiber
	stack *contStack
}

// continuation builds the resume entry point every suspending node hands
// to its registration side: resubmit rs.step onto the worker pool rather
// than run it inline on whatever goroutine calls resume (a timer
// goroutine, an arbitrary external callback, another fiber's completion
// handler), and never let the host stack grow across a suspension point.
func (rs *runState) continuation() func(erasedExit) {
	return func(e erasedExit) {
		rs.rt.submit(func() {
			v, fk, fp := exitToStep(e)
			rs.step(nil, v, fk, fp)
		})
	}
}

// exitToStep decomposes an erasedExit into step's (value, failureKind,
// payload) triple — the shape [runState.step] needs to resume a suspended
// computation, whether that exit came from an async resume, a timer fire,
// or a joined/awaited sibling fiber.
func exitToStep(e erasedExit) (value any, fk failureKind, payload any) {
	switch e.kind {
	case exitCompleted:
		return e.value, noFailure, nil
	case exitInterrupted:
		return nil, interruptFailure, e.cause
	default:
		if e.isDefect() {
			return nil, defectFailure, e.err.(defect).cause
		}
		return nil, typedFailure, e.err
	}
}

// safeCall runs thunk and hands back any panic it raises as rec instead of
// letting it unwind the worker goroutine. step decides what rec becomes: a
// defect for [Point]/[Sync], a typed failure for [SyncThrowable].
// safeCallCanceler and safeCallNode do the same for other thunk shapes.
func safeCall(thunk func() any) (value any, rec any) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
		}
	}()
	return thunk(), nil
}

func safeCallCanceler(thunk func() func()) (c func(), rec any) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
		}
	}()
	return thunk(), nil
}

func safeCallNode(thunk func() node) (n node, rec any) {
	defer func() {
		if r := recover(); r != nil {
			rec = r
		}
	}()
	return thunk(), nil
}

// step is the trampolined interpreter core: it walks node values and pops
// contFrame values on an explicit stack, never recursing on the host
// stack, so arbitrarily deep FlatMap/Attempt/Ensuring chains are
// stack-safe (§4.2). It runs until the fiber either completes — at which
// point it releases rs.stack back to its pool and calls [fiber.complete]
// — or suspends on an async registration, a timer, or a sibling fiber,
// at which point it returns having armed a [runState.continuation] that
// will call back into step to resume.
func (rs *runState) step(cur node, value any, fk failureKind, fpayload any) {
	// sink accumulates every finalizer failure raised during this call's
	// unwind (finalizers always run synchronously via runBlocking before
	// the next frame is popped, so one call to step covers one unwind) and
	// flushes them together, rather than logging each in isolation.
	sink := &finalizerFailureSink{}
	defer func() {
		sink.flush(rs.rt.logger(), rs.fb.id)
		if sink.err != nil && rs.fb.uncaught != nil {
			rs.fb.uncaught(rs.fb.id, erasedExitReport{Kind: "finalizer", Value: sink.err})
		}
	}()
	for {
		if fk == noFailure && cur != nil {
			if rs.fb.interruptPending.Load() && rs.fb.maskDepth.Load() == 0 {
				fk = interruptFailure
				fpayload = rs.fb.loadInterruptCause()
				cur = nil
			}
		}

		if cur != nil {
			switch t := cur.(type) {
			case *nowNode:
				value, cur = t.value, nil
			case *pointNode:
				v, rec := safeCall(t.thunk)
				if rec != nil {
					fk, fpayload = defectFailure, rec
				} else {
					value = v
				}
				cur = nil
			case *syncNode:
				v, rec := safeCall(t.thunk)
				if rec != nil {
					fk, fpayload = defectFailure, rec
				} else {
					value = v
				}
				cur = nil
			case *syncThrowableNode:
				v, rec := safeCall(t.thunk)
				if rec != nil {
					fk, fpayload = typedFailure, rec
				} else {
					value = v
				}
				cur = nil
			case *suspendNode:
				inner, rec := safeCallNode(t.thunk)
				if rec != nil {
					fk, fpayload, cur = defectFailure, rec, nil
				} else {
					cur = inner
				}
				continue
			case *asyncPureNode:
				inner, rec := safeCallNode(func() node { return t.register() })
				if rec != nil {
					fk, fpayload, cur = defectFailure, rec, nil
				} else {
					cur = inner
				}
				continue
			case *failNode:
				fk, fpayload, cur = typedFailure, t.err, nil
			case *terminateNode:
				fk, fpayload, cur = defectFailure, t.cause, nil
			case *widenErrorNode:
				cur = t.child
				continue
			case *flatMapNode:
				rs.stack.push(&applyFrame{k: t.k})
				cur = t.child
				continue
			case *attemptNode:
				wrapRight, wrapLeft := t.wrapRight, t.wrapLeft
				rs.stack.push(&recoverFrame{h: func(e any) node { return &nowNode{value: wrapLeft(e)} }})
				rs.stack.push(&applyFrame{k: func(a any) node { return &nowNode{value: wrapRight(a)} }})
				cur = t.child
				continue
			case *absolveNode:
				unwrap := t.unwrap
				rs.stack.push(&applyFrame{k: func(a any) node {
					ok, v, err := unwrap(a)
					if ok {
						return &nowNode{value: v}
					}
					return &failNode{err: err}
				}})
				cur = t.child
				continue
			case *ensuringNode:
				rs.stack.push(&finalizeFrame{kind: finalizeAlways, finalizer: t.finalizer})
				cur = t.child
				continue
			case *onErrorNode:
				rs.stack.push(&finalizeFrame{kind: finalizeOnError, handler: t.handler})
				cur = t.child
				continue
			case *neverNode:
				rs.fb.suspendWith(rs.continuation())
				return
			case *asyncNode:
				guarded := rs.fb.suspendWith(rs.continuation())
				canceler, rec := safeCallCanceler(func() func() { return t.register(guarded) })
				if rec != nil {
					guarded(defectExit(rec))
					return
				}
				rs.fb.setCanceler(canceler)
				return
			case *sleepNode:
				guarded := rs.fb.suspendWith(rs.continuation())
				rs.fb.setCanceler(scheduleSleep(rs.rt, t.d, guarded))
				return
			case *forkNode:
				child := newFiber(rs.rt, orDefaultHandler(rs.rt, t.handler))
				childStack := acquireContStack()
				rs.rt.submit(func() {
					childRS := &runState{rt: rs.rt, fb: child, stack: childStack}
					childRS.step(t.child, nil, noFailure, nil)
				})
				value, cur = &fiberHandle{f: child}, nil
			case *joinNode:
				if exit, ok := immediateExit(t.fiber); ok {
					value, fk, fpayload = exitToStep(exit)
					cur = nil
					continue
				}
				guarded := rs.fb.suspendWith(rs.continuation())
				t.fiber.addObserver(guarded)
				return
			case *awaitNode:
				wrap := t.wrap
				if exit, ok := immediateExit(t.fiber); ok {
					value, cur = wrap(exit), nil
					continue
				}
				guarded := rs.fb.suspendWith(rs.continuation())
				t.fiber.addObserver(func(e erasedExit) { guarded(completedExit(wrap(e))) })
				return
			case *interruptNode:
				t.fiber.requestInterrupt(t.cause)
				value, cur = struct{}{}, nil
			default:
				fk, fpayload, cur = defectFailure, unknownNodeDefect{n: cur}, nil
			}
			continue
		}

		// cur == nil: propagate value or failure through the frame stack.
		switch fk {
		case noFailure:
			frame, ok := rs.stack.pop()
			if !ok {
				releaseContStack(rs.stack)
				rs.fb.complete(completedExit(value))
				return
			}
			switch f := frame.(type) {
			case *applyFrame:
				n, rec := safeCallNode(func() node { return f.k(value) })
				if rec != nil {
					fk, fpayload, cur = defectFailure, rec, nil
				} else {
					cur = n
				}
			case *recoverFrame:
				// success skips recovery frames silently
			case *finalizeFrame:
				rs.runFinalize(f, nil, sink)
			}
			continue

		default:
			frame, ok := rs.stack.pop()
			if !ok {
				releaseContStack(rs.stack)
				switch fk {
				case typedFailure:
					rs.fb.complete(failedExit(fpayload))
				case defectFailure:
					rs.fb.complete(defectExit(fpayload))
				case interruptFailure:
					rs.fb.complete(interruptedExit(fpayload))
				}
				return
			}
			switch f := frame.(type) {
			case *applyFrame:
				// skip: Apply is data-flow only, never consulted while failing
			case *recoverFrame:
				if fk == typedFailure {
					n, rec := safeCallNode(func() node { return f.h(fpayload) })
					if rec != nil {
						fk, fpayload = defectFailure, rec
					} else {
						cur, fk = n, noFailure
					}
				}
				// defects and interruption are not caught by Attempt/recoverFrame
			case *finalizeFrame:
				rs.runFinalize(f, &failurePayload{kind: fk, value: fpayload}, sink)
			}
			continue
		}
	}
}

// failurePayload threads the in-flight failure into runFinalize so an
// onError finalizeFrame can distinguish "child failed with e" from
// "child succeeded", and so finalizeAlways frames run unconditionally
// either way without needing their own case split at every call site.
type failurePayload struct {
	kind  failureKind
	value any
}

// runFinalize executes a finalizer masked against interruption, reporting
// any failure the finalizer itself raises to the fiber's uncaught handler
// without altering the outcome already propagating. finalizeOnError
// frames only fire their handler on a typed failure — defects and
// interruption skip the handler entirely (see DESIGN.md).
func (rs *runState) runFinalize(f *finalizeFrame, fp *failurePayload, sink *finalizerFailureSink) {
	var target node
	switch f.kind {
	case finalizeAlways:
		target = f.finalizer
	case finalizeOnError:
		if fp == nil {
			target = f.handler(errOpt{has: false})
		} else if fp.kind == typedFailure {
			target = f.handler(errOpt{has: true, err: fp.value})
		} else {
			return
		}
	}
	rs.fb.maskDepth.Inc()
	exit := runBlocking(rs.rt, target)
	rs.fb.maskDepth.Dec()
	if exit.kind != exitCompleted {
		reportFinalizerFailure(sink, exit)
	}
}

// runBlocking interprets n to completion on the calling goroutine,
// isolated on its own ephemeral fiber that is never exposed to callers
// and so can never be the target of [Fiber.Interrupt] — this is what
// makes finalizer execution uninterruptible by construction, independent
// of the belt-and-suspenders maskDepth counter. n typically runs purely
// synchronously (a log call, an IORef write) and returns immediately; if
// it suspends (an async op, a sleep, a join), this goroutine blocks on
// done until the scheduler resumes and completes it — which requires a
// free worker slot. A finalizer that suspends under [WithWorkers](1) can
// therefore deadlock: the caller's own slot is held for the duration of
// this call, and there is no second worker left to drive the sub-fiber
// to completion. Keep finalizers synchronous, or size the worker pool
// above 1 when they are not.
func runBlocking(rt *Runtime, n node) erasedExit {
	fb := newFiber(rt, func(uint64, erasedExitReport) {})
	done := make(chan erasedExit, 1)
	fb.addObserver(func(e erasedExit) { done <- e })
	rs := &runState{rt: rt, fb: fb, stack: acquireContStack()}
	rs.step(n, nil, noFailure, nil)
	return <-done
}

// immediateExit reports whether target has already completed, avoiding a
// suspend/resume round trip through the scheduler for the common case of
// Join/Await racing against a fiber that finished first.
func immediateExit(target *fiber) (erasedExit, bool) {
	target.mu.Lock()
	defer target.mu.Unlock()
	if target.done {
		return target.exit, true
	}
	return erasedExit{}, false
}

// fiberHandle is the erased payload flowing out of a forkNode; [Fork]
// recovers the typed [Fiber][E, A] from it at the API boundary.
type fiberHandle struct{ f *fiber }

// orDefaultHandler falls back to rt's logger-backed handler when a
// forkNode carries no explicit one (the common [Fork] case, as opposed
// to [Fork0]).
func orDefaultHandler(rt *Runtime, h UncaughtHandler) UncaughtHandler {
	if h == nil {
		return defaultHandlerFor(rt.logger())
	}
	return h
}

func reportFinalizerFailure(sink *finalizerFailureSink, exit erasedExit) {
	switch {
	case exit.isDefect():
		sink.add(exit.err.(defect).cause)
	case exit.kind == exitFailed:
		sink.add(exit.err)
	case exit.kind == exitInterrupted:
		sink.add(exit.cause)
	}
}

// unknownNodeDefect guards against a node variant added to the closed
// node set without a matching case in step — should never be reachable
// from this package's own constructors.
type unknownNodeDefect struct{ n node }
