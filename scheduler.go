// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"context"

	atomicpkg "go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Runtime is the work-submitting executor: a pool of worker goroutines and
// a timer. §4.5's sole requirement is progress — every submitted
// continuation must eventually run unless its fiber is interrupted — which
// a weighted semaphore guarantees without a hand-rolled queue: acquisition
// is first-come-first-served, so submission is effectively FIFO, and
// work-stealing happens implicitly (whichever goroutine's Acquire call
// returns first runs next).
type Runtime struct {
	cfg     *Config
	sem     *semaphore.Weighted
	group   *errgroup.Group
	fiberID atomicpkg.Uint64

	submitted atomicpkg.Int64
	running   atomicpkg.Int64

	shuttingDown atomicpkg.Bool
}

// NewRuntime builds a Runtime. Call [Runtime.Shutdown] to drain
// outstanding work once no more effects will be submitted.
func NewRuntime(opts ...Option) *Runtime {
	cfg := newConfig(opts...)
	return &Runtime{
		cfg:   cfg,
		sem:   semaphore.NewWeighted(int64(cfg.workers)),
		group: &errgroup.Group{},
	}
}

// RuntimeStats is an observability snapshot of a Runtime's activity.
type RuntimeStats struct {
	Workers   int
	Submitted int64
	Running   int64
}

// Stats returns a point-in-time snapshot of scheduler activity.
func (rt *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Workers:   rt.cfg.workers,
		Submitted: rt.submitted.Load(),
		Running:   rt.running.Load(),
	}
}

// submit schedules fn to run on the worker pool. fn must not block
// indefinitely on anything but the semaphore's own bookkeeping; long pure
// work should still check interruption between nodes (§5).
func (rt *Runtime) submit(fn func()) {
	rt.submitted.Inc()
	rt.group.Go(func() error {
		// The semaphore bounds *concurrently executing* continuations to
		// cfg.workers; it never blocks submission itself, since Acquire's
		// ctx here never cancels — this always makes progress eventually.
		_ = rt.sem.Acquire(context.Background(), 1)
		defer rt.sem.Release(1)
		rt.running.Inc()
		defer rt.running.Dec()
		fn()
		return nil
	})
}

// nextFiberID returns a monotonically increasing fiber identifier, used
// only for diagnostics (logging, [Fiber.ID]).
func (rt *Runtime) nextFiberID() uint64 { return rt.fiberID.Inc() }

func (rt *Runtime) logger() *zap.Logger { return rt.cfg.logger }

// Shutdown blocks until every continuation submitted so far has run. It
// does not interrupt in-flight fibers; callers that need that should
// [Fiber.Interrupt] them first.
func (rt *Runtime) Shutdown() error {
	rt.shuttingDown.Store(true)
	return rt.group.Wait()
}
