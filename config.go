// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rts

import "go.uber.org/zap"

// Config holds the RTS's few tunables. Two knobs do not warrant a
// parser/struct-tag configuration layer; functional options, in the
// teacher's own preference for small explicit constructors over config
// machinery, are enough.
type Config struct {
	workers int
	logger  *zap.Logger
}

// Option configures a [Runtime] at construction time.
type Option func(*Config)

// WithWorkers overrides the worker pool size (default: automaxprocs-tuned
// GOMAXPROCS, see run.go's init).
func WithWorkers(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger overrides the logger used for uncaught-error and
// finalizer-failure reporting (default: zap.NewNop()).
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *Config {
	c := &Config{workers: defaultWorkers(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
