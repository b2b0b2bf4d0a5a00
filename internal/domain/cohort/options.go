package cohort

import "github.com/okian/pulse/pkg/logger"

// Defaults for the cohort builder.
const (
	DefaultGroupCount    = 4
	DefaultMinSize       = 5
	DefaultMaxIterations = 25
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithGroupCount sets the number of initial cohorts.
func WithGroupCount(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.groupCount = n
		}
	}
}

// WithMinSize sets the minimum cohort size below which cohorts are merged.
func WithMinSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.minSize = n
		}
	}
}

// WithMaxIterations bounds the clustering refinement passes.
func WithMaxIterations(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxIterations = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}
