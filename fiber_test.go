// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkJoinRoundTrips(t *testing.T) {
	eff := FlatMap(Fork(Now[string, int](9)), func(fb Fiber[string, int]) Effect[string, int] {
		return fb.Join()
	})
	assert.Equal(t, 9, Run(eff))
}

func TestJoinPropagatesTypedFailure(t *testing.T) {
	eff := FlatMap(Fork(Fail[string, int]("nope")), func(fb Fiber[string, int]) Effect[string, int] {
		return fb.Join()
	})
	assert.PanicsWithValue(t, UnhandledError{Err: "nope"}, func() { Run(eff) })
}

func TestAwaitNeverPropagatesOnlyReports(t *testing.T) {
	eff := FlatMap(Fork(Fail[string, int]("nope")), func(fb Fiber[string, int]) Effect[string, ExitResult[int]] {
		return fb.Await()
	})
	exit := Run(eff)
	e, ok := exit.Err()
	require.True(t, ok)
	assert.Equal(t, "nope", e)
}

func TestInterruptNeverFiberCompletesQuickly(t *testing.T) {
	eff := FlatMap(Fork(Never[string, int]()), func(fb Fiber[string, int]) Effect[string, int] {
		return FlatMap(fb.Interrupt("done"), func(struct{}) Effect[string, int] {
			return Map(fb.Await(), func(ExitResult[int]) int { return 42 })
		})
	})
	done := make(chan int, 1)
	go func() { done <- Run(eff) }()
	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("interrupting a never-fiber did not unblock within 2s")
	}
}

func TestForeverFiberIsInterruptible(t *testing.T) {
	eff := FlatMap(Fork(Forever(Sync[string, struct{}](func() struct{} { return struct{}{} }))), func(fb Fiber[string, struct{}]) Effect[string, int] {
		return FlatMap(fb.Interrupt("stop"), func(struct{}) Effect[string, int] {
			return Map(fb.Await(), func(ExitResult[struct{}]) int { return 1 })
		})
	})
	done := make(chan int, 1)
	go func() { done <- Run(eff) }()
	select {
	case v := <-done:
		assert.Equal(t, 1, v)
	case <-time.After(2 * time.Second):
		t.Fatal("sync(x).forever was not interruptible")
	}
}

func TestFiberStatusString(t *testing.T) {
	assert.Equal(t, "executing", FiberExecuting.String())
	assert.Equal(t, "suspended", FiberSuspended.String())
	assert.Equal(t, "done", FiberDone.String())
}
