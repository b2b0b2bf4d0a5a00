// Package worker runs indexed jobs on a bounded pool of goroutines.
package worker

import (
	"github.com/okian/pulse/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithSize sets the number of concurrent workers. Size 1 runs jobs
// sequentially in index order.
func WithSize(size int) Option {
	return func(p *Pool) {
		if size > 0 {
			p.size = size
		}
	}
}

// WithName sets the pool name for identification and logging.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
