// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIORefGetSet(t *testing.T) {
	eff := FlatMap(NewIORef[string, int](1), func(ref IORef[int]) Effect[string, int] {
		return FlatMap(WidenError[string, any, struct{}](ref.Set(5)), func(struct{}) Effect[string, int] {
			return WidenError[string, any, int](ref.Get())
		})
	})
	assert.Equal(t, 5, Run(eff))
}

func TestIORefModifyIsAtomicAcrossFibers(t *testing.T) {
	const n = 200
	eff := FlatMap(NewIORef[string, int](0), func(ref IORef[int]) Effect[string, int] {
		incr := WidenError[string, any, int](ref.Modify(func(i int) int { return i + 1 }))
		effs := make([]Effect[string, int], n)
		for i := range effs {
			effs[i] = incr
		}
		return FlatMap(Par(effs), func([]int) Effect[string, int] {
			return WidenError[string, any, int](ref.Get())
		})
	})
	assert.Equal(t, n, Run(eff))
}

func TestIORefGetAndSet(t *testing.T) {
	eff := FlatMap(NewIORef[string, int](3), func(ref IORef[int]) Effect[string, int] {
		return WidenError[string, any, int](ref.GetAndSet(9))
	})
	assert.Equal(t, 3, Run(eff))
}
