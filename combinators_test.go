// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketReleasesOnSuccess(t *testing.T) {
	var log []string
	eff := Bracket[string, int, int](
		Sync[string, int](func() int { log = append(log, "a"); return 1 }),
		func(int) Effect[string, struct{}] {
			return Sync[string, struct{}](func() struct{} { log = append(log, "r"); return struct{}{} })
		},
		func(r int) Effect[string, int] {
			return Sync[string, int](func() int { log = append(log, "u"); return r + 1 })
		},
	)
	assert.Equal(t, 2, Run(eff))
	assert.Equal(t, []string{"a", "u", "r"}, log)
}

func TestBracketReleasesOnInterrupt(t *testing.T) {
	var mu chanLog
	use := Then(Sleep[string](10*time.Millisecond), Sync[string, struct{}](func() struct{} {
		mu.add("u")
		return struct{}{}
	}))
	bracket := Bracket[string, struct{}, struct{}](
		Now[string, struct{}](struct{}{}),
		func(struct{}) Effect[string, struct{}] {
			return Sync[string, struct{}](func() struct{} { mu.add("r"); return struct{}{} })
		},
		func(struct{}) Effect[string, struct{}] { return use },
	)
	eff := FlatMap(Fork(bracket), func(fb Fiber[string, struct{}]) Effect[string, []string] {
		return FlatMap(Sleep[string](30*time.Millisecond), func(struct{}) Effect[string, []string] {
			return FlatMap(fb.Interrupt("timeout"), func(struct{}) Effect[string, []string] {
				return Map(fb.Await(), func(ExitResult[struct{}]) []string { return mu.snapshot() })
			})
		})
	})
	got := Run(eff)
	assert.Equal(t, []string{"u", "r"}, got)
}

type chanLog struct {
	entries []string
}

func (c *chanLog) add(s string)      { c.entries = append(c.entries, s) }
func (c *chanLog) snapshot() []string { return c.entries }

func TestRacePicksFirstAndInterruptsLoser(t *testing.T) {
	var finished atomicFlag
	fast := Now[string, int](1)
	slow := Then(Sleep[string](50*time.Millisecond), Sync[string, int](func() int {
		finished.set()
		return 2
	}))
	got := Run(Race(fast, slow))
	assert.Equal(t, 1, got)
	assert.False(t, finished.get(), "loser should have been interrupted during its sleep")
}

func TestParCollectsResultsInOrder(t *testing.T) {
	effs := []Effect[string, int]{
		Now[string, int](1),
		Now[string, int](2),
		Now[string, int](3),
	}
	assert.Equal(t, []int{1, 2, 3}, Run(Par(effs)))
}

func TestParNBoundsConcurrency(t *testing.T) {
	effs := make([]Effect[string, int], 10)
	for i := range effs {
		i := i
		effs[i] = Now[string, int](i)
	}
	got := Run(ParN(3, effs))
	require.Len(t, got, 10)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestParInterruptsSiblingsOnFirstFailure(t *testing.T) {
	var ran atomicFlag
	slow := Then(Sleep[string](200*time.Millisecond), Sync[string, struct{}](func() struct{} {
		ran.set()
		return struct{}{}
	}))
	effs := []Effect[string, struct{}]{
		Fail[string, struct{}]("boom"),
		slow,
	}
	done := make(chan struct{}, 1)
	go func() {
		defer func() { recover(); done <- struct{}{} }()
		Run(Par(effs))
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Par did not return promptly after a sibling failed")
	}
	assert.False(t, ran.get(), "sibling should have been interrupted before its sleep elapsed")
}

type atomicFlag struct {
	mu    sync.Mutex
	isSet bool
}

func (f *atomicFlag) set()      { f.mu.Lock(); f.isSet = true; f.mu.Unlock() }
func (f *atomicFlag) get() bool { f.mu.Lock(); defer f.mu.Unlock(); return f.isSet }

func TestReduceAllSums(t *testing.T) {
	effs := []Effect[string, int]{Now[string, int](1), Now[string, int](2), Now[string, int](3)}
	got := Run(ReduceAll(effs, 0, func(acc, a int) int { return acc + a }))
	assert.Equal(t, 6, got)
}

func TestDoUntilStopsAtPredicate(t *testing.T) {
	n := 0
	eff := DoUntil(Sync[string, int](func() int { n++; return n }), func(v int) bool { return v >= 3 })
	assert.Equal(t, 3, Run(eff))
}

func TestTimeoutReportsWhenSlowerThanDeadline(t *testing.T) {
	slow := Then(Sleep[string](50*time.Millisecond), Now[string, int](1))
	got := Run(Timeout(5*time.Millisecond, slow))
	assert.False(t, got.Ok)
}

func TestTimeoutReportsSuccessWhenFasterThanDeadline(t *testing.T) {
	fast := Now[string, int](7)
	got := Run(Timeout(50*time.Millisecond, fast))
	assert.True(t, got.Ok)
	assert.Equal(t, 7, got.Value)
}
