// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import "sync"

// contFrame is the marker interface for continuation-stack frames. The
// interpreter pushes a frame on FlatMap/Attempt/Absolve/Ensuring/OnError
// and pops frames as a value or failure propagates, exactly mirroring the
// closed, tagged-variant approach used for [node] — a pure marker
// interface dispatched by type switch, never by tag field.
type contFrame interface {
	contFrame()
}

// applyFrame: data-flow continuation. Consulted only while propagating a
// value (never while propagating a failure).
type applyFrame struct{ k func(any) node }

func (*applyFrame) contFrame() {}

// recoverFrame: error-recovery continuation. Consulted only while
// propagating a typed failure; skipped while propagating a value, a
// defect, or an interruption.
type recoverFrame struct{ h func(any) node }

func (*recoverFrame) contFrame() {}

// finalizeFrame: cleanup continuation. Always run, uninterruptibly, on
// every exit path (kind == finalizeAlways) or conditionally dispatched
// through an Option[E] (kind == finalizeOnError, built from onErrorNode).
type finalizeFrame struct {
	kind      finalizeKind
	finalizer node              // valid when kind == finalizeAlways
	handler   func(errOpt) node // valid when kind == finalizeOnError
}

func (*finalizeFrame) contFrame() {}

type finalizeKind uint8

const (
	finalizeAlways finalizeKind = iota
	finalizeOnError
)

// contStack is an explicit, heap-growing LIFO stack of continuation
// frames. Keeping it explicit — rather than recursing on the host stack —
// is what makes arbitrarily deep FlatMap/Attempt/Ensuring chains stack-safe
// (§4.2 "Stack safety").
type contStack struct {
	frames []contFrame
}

var contStackPool = sync.Pool{New: func() any { return &contStack{frames: make([]contFrame, 0, 16)} }}

func acquireContStack() *contStack {
	return contStackPool.Get().(*contStack)
}

func releaseContStack(s *contStack) {
	s.frames = s.frames[:0]
	contStackPool.Put(s)
}

func (s *contStack) push(f contFrame) {
	s.frames = append(s.frames, f)
}

func (s *contStack) pop() (contFrame, bool) {
	n := len(s.frames)
	if n == 0 {
		return nil, false
	}
	f := s.frames[n-1]
	s.frames[n-1] = nil
	s.frames = s.frames[:n-1]
	return f, true
}

func (s *contStack) len() int { return len(s.frames) }
