// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeStatsTracksSubmissions(t *testing.T) {
	rt := NewRuntime(WithWorkers(2))
	fb := forkOn[string, int](rt, Now[string, int](1), nil)
	_, _ = fb.AwaitContext(context.Background())
	stats := rt.Stats()
	assert.GreaterOrEqual(t, stats.Submitted, int64(1))
	assert.Equal(t, 2, stats.Workers)
}

func TestWithWorkersIgnoresNonPositive(t *testing.T) {
	cfg := newConfig(WithWorkers(0), WithWorkers(-3))
	assert.Equal(t, defaultWorkers(), cfg.workers)
}

func TestSleepCompletesAfterDuration(t *testing.T) {
	got := Run(Then(Sleep[string](0), Now[string, int](5)))
	assert.Equal(t, 5, got)
}
