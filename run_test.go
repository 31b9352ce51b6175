// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pureFib(n int) int {
	if n < 2 {
		return n
	}
	return pureFib(n-1) + pureFib(n-2)
}

// concurrentFib mirrors pureFib's recursion, but forks both branches onto
// their own fibers and joins them rather than calling itself directly —
// exercising Fork/Join nesting at nontrivial depth.
func concurrentFib(n int) Effect[string, int] {
	if n < 2 {
		return Now[string, int](n)
	}
	return FlatMap(Fork(Suspend(func() Effect[string, int] { return concurrentFib(n - 1) })), func(a Fiber[string, int]) Effect[string, int] {
		return FlatMap(Fork(Suspend(func() Effect[string, int] { return concurrentFib(n - 2) })), func(b Fiber[string, int]) Effect[string, int] {
			return FlatMap(a.Join(), func(av int) Effect[string, int] {
				return Map(b.Join(), func(bv int) int { return av + bv })
			})
		})
	})
}

func TestConcurrentFibMatchesPureRecursion(t *testing.T) {
	assert.Equal(t, pureFib(10), Run(concurrentFib(10)))
}

// TestDeepFlatMapChainIsStackSafe builds a 10,000-deep chain of
// FlatMap/Map/Attempt/Absolve and confirms the trampoline runs it without
// overflowing the Go goroutine stack — the interpreter's continuation
// stack lives on the heap precisely so this holds.
func TestDeepFlatMapChainIsStackSafe(t *testing.T) {
	const depth = 10000
	eff := Now[string, int](0)
	for i := 0; i < depth; i++ {
		switch i % 4 {
		case 0:
			eff = FlatMap(eff, func(a int) Effect[string, int] { return Now[string, int](a + 1) })
		case 1:
			eff = Map(eff, func(a int) int { return a + 1 })
		case 2:
			attempted := Attempt(eff)
			eff = FlatMap(attempted, func(e Either[string, int]) Effect[string, int] {
				v, _ := e.GetRight()
				return Now[string, int](v + 1)
			})
		case 3:
			lifted := Map(eff, func(a int) Either[string, int] { return Right[string, int](a + 1) })
			eff = Absolve(lifted)
		}
	}
	assert.Equal(t, depth, Run(eff))
}
