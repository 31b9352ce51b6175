// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromiseCompleteThenGet(t *testing.T) {
	eff := FlatMap(NewPromise[string, int](), func(p Promise[string, int]) Effect[string, int] {
		return FlatMap(p.Complete(7), func(won bool) Effect[string, int] {
			if !won {
				t.Error("Complete on a fresh promise should win")
			}
			return p.Get()
		})
	})
	assert.Equal(t, 7, Run(eff))
}

func TestPromiseGetBeforeCompleteSuspends(t *testing.T) {
	eff := FlatMap(NewPromise[string, int](), func(p Promise[string, int]) Effect[string, int] {
		return FlatMap(Fork(p.Get()), func(fb Fiber[string, int]) Effect[string, int] {
			return FlatMap(p.Complete(11), func(bool) Effect[string, int] {
				return fb.Join()
			})
		})
	})
	assert.Equal(t, 11, Run(eff))
}

func TestPromiseSecondCompleteLosesTheRace(t *testing.T) {
	eff := FlatMap(NewPromise[string, int](), func(p Promise[string, int]) Effect[string, [2]bool] {
		return FlatMap(p.Complete(1), func(first bool) Effect[string, [2]bool] {
			return Map(p.Complete(2), func(second bool) [2]bool { return [2]bool{first, second} })
		})
	})
	got := Run(eff)
	require.True(t, got[0])
	assert.False(t, got[1])
}
