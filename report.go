// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// UncaughtHandler receives a fiber's unhandled typed error, defect, or
// interruption cause. It is a per-fiber value (set by [Fork0]), never a
// global — see §9 "Defaults and global state".
type UncaughtHandler func(fiberID uint64, exit erasedExitReport)

// erasedExitReport is the public-facing shape of an erasedExit handed to
// an UncaughtHandler: enough to log structured fields without exposing the
// internal erasedExit type.
type erasedExitReport struct {
	Kind  string
	Value any
}

func reportOf(e erasedExit) erasedExitReport {
	switch e.kind {
	case exitFailed:
		if e.isDefect() {
			return erasedExitReport{Kind: "defect", Value: e.err.(defect).cause}
		}
		return erasedExitReport{Kind: "failed", Value: e.err}
	case exitInterrupted:
		return erasedExitReport{Kind: "interrupted", Value: e.cause}
	default:
		return erasedExitReport{Kind: "completed", Value: e.value}
	}
}

// defaultHandlerFor builds the fallback UncaughtHandler for fibers created
// without an explicit override ([Fork0]): structured-log the exit via zap.
func defaultHandlerFor(logger *zap.Logger) UncaughtHandler {
	return func(fiberID uint64, exit erasedExitReport) {
		logger.Error("rts: uncaught fiber error",
			zap.Uint64("fiber_id", fiberID),
			zap.String("kind", exit.Kind),
			zap.Any("value", exit.Value),
		)
	}
}

// finalizerFailureSink accumulates failures raised by finalizers that run
// during a single unwind of a fiber's continuation stack (§4.3: "a
// finalizer that itself fails ... is reported ... does not alter the
// propagating outcome"). Multiple finalizers can fail during one unwind
// (spec scenario 4: two Terminate finalizers stacked); multierr combines
// them into one error without discarding either, instead of only
// reporting the last one.
type finalizerFailureSink struct {
	err error
}

func (s *finalizerFailureSink) add(cause any) {
	s.err = multierr.Append(s.err, asError(cause))
}

func (s *finalizerFailureSink) flush(logger *zap.Logger, fiberID uint64) {
	if s.err == nil {
		return
	}
	for _, e := range multierr.Errors(s.err) {
		logger.Error("rts: finalizer failed",
			zap.Uint64("fiber_id", fiberID),
			zap.Error(e),
		)
	}
}

// asError adapts an arbitrary cause value (typed E, or a defect's cause)
// into an error for multierr aggregation.
func asError(cause any) error {
	if err, ok := cause.(error); ok {
		return err
	}
	return causeError{cause: cause}
}

type causeError struct{ cause any }

func (c causeError) Error() string { return fmt.Sprintf("%v", c.cause) }
