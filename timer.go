// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import "time"

// Sleep builds an effect that completes with struct{}{} after d elapses.
// d <= 0 still yields a submission (fired via time.AfterFunc(0, ...)) so
// that a fiber racing an interrupt against an immediate sleep still has a
// preemption point to observe it, per §4.5.
func Sleep[E any](d time.Duration) Effect[E, struct{}] {
	return Effect[E, struct{}]{n: &sleepNode{d: int64(d)}}
}

// scheduleSleep arms a timer that, on fire, resumes fb's continuation with
// Completed(struct{}{}), submitted through rt's worker pool rather than
// run directly on the Go runtime's own timer goroutine.
func scheduleSleep(rt *Runtime, d int64, resume func(erasedExit)) (cancel func()) {
	if d < 0 {
		d = 0
	}
	t := time.AfterFunc(time.Duration(d), func() {
		rt.submit(func() { resume(completedExit(struct{}{})) })
	})
	return func() { t.Stop() }
}
