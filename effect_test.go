// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNow(t *testing.T) {
	got := Run(Now[string, int](42))
	assert.Equal(t, 42, got)
}

func TestRunPoint(t *testing.T) {
	calls := 0
	eff := Point[string, int](func() int { calls++; return 7 })
	assert.Equal(t, 0, calls, "Point must not evaluate before interpretation")
	got := Run(eff)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, calls)
}

func TestAttemptCatchesTypedFailure(t *testing.T) {
	eff := Attempt(Fail[string, int]("boom"))
	got := Run(eff)
	e, ok := got.GetLeft()
	require.True(t, ok)
	assert.Equal(t, "boom", e)
}

func TestAttemptDoesNotCatchDefect(t *testing.T) {
	eff := Attempt(Terminate[string, int]("kaboom"))
	assert.Panics(t, func() { Run(eff) })
}

func TestAbsolveInverseOfAttempt(t *testing.T) {
	okEff := Absolve(Attempt(Now[string, int](5)))
	assert.Equal(t, 5, Run(okEff))

	failEff := Absolve(Attempt(Fail[string, int]("nope")))
	assert.PanicsWithValue(t, UnhandledError{Err: "nope"}, func() { Run(failEff) })
}

func TestSyncThrowableConvertsPanicToTypedFailure(t *testing.T) {
	eff := Attempt(SyncThrowable[string, int](func() int { panic("oh") }))
	got := Run(eff)
	e, ok := got.GetLeft()
	require.True(t, ok)
	assert.Equal(t, "oh", e)
}

func TestSyncPanicIsDefectNotTypedFailure(t *testing.T) {
	eff := Attempt(Sync[string, int](func() int { panic("oh") }))
	assert.PanicsWithValue(t, "oh", func() { Run(eff) })
}

func TestMapEquivalentToFlatMapNow(t *testing.T) {
	f := func(a int) int { return a * 2 }
	viaMap := Run(Map(Now[string, int](3), f))
	viaFlatMap := Run(FlatMap(Now[string, int](3), func(a int) Effect[string, int] { return Now[string, int](f(a)) }))
	assert.Equal(t, viaMap, viaFlatMap)
}

func TestEnsuringRunsFinalizerOnSuccess(t *testing.T) {
	ran := false
	eff := Ensuring(Now[string, int](1), Sync[string, struct{}](func() struct{} { ran = true; return struct{}{} }))
	Run(eff)
	assert.True(t, ran)
}

func TestEnsuringRunsFinalizerOnFailureWithoutMaskingOutcome(t *testing.T) {
	flag := false
	eff := Ensuring(Fail[string, int]("Oh"), Sync[string, struct{}](func() struct{} { flag = true; return struct{}{} }))
	assert.PanicsWithValue(t, UnhandledError{Err: "Oh"}, func() { Run(eff) })
	assert.True(t, flag)
}

func TestTwoStackedFinalizersBothFailWithoutMaskingOutcome(t *testing.T) {
	rt := NewRuntime()
	eff := Ensuring(
		Ensuring(Fail[string, int]("Oh"), Terminate[string, struct{}]("E2")),
		Terminate[string, struct{}]("E3"),
	)
	fb := forkOn[string, int](rt, eff, nil)
	exit, err := fb.AwaitContext(context.Background())
	require.NoError(t, err)
	e, ok := exit.Err()
	require.True(t, ok)
	assert.Equal(t, "Oh", e)
}
