package portfolio

import (
	"github.com/okian/pulse/internal/domain/cohort"
	"github.com/okian/pulse/pkg/logger"
)

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets how many teams are scored in parallel. 1 scores
// sequentially.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithHealthBuilder sets the cohort builder for the health family's peer
// grouping. By default both families share the progress builder.
func WithHealthBuilder(b *cohort.Builder) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.healthBuilder = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}
