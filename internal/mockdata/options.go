package mockdata

import (
	"time"

	"github.com/okian/pulse/pkg/logger"
)

// Defaults for the generator.
const (
	DefaultSeed         = 42
	DefaultTeams        = 40
	DefaultSnapshots    = 4
	DefaultIntervalDays = 90
	DefaultDropoutRate  = 0.05
	minSnapshots        = 2
)

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed sets the seed used for every Generate call.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithSource makes the generator draw from src instead of a fresh seeded
// source. Successive Generate calls then continue the same stream.
func WithSource(src Source) Option {
	return func(g *Generator) {
		if src != nil {
			g.source = src
		}
	}
}

// WithTeams sets the number of teams.
func WithTeams(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.teams = n
		}
	}
}

// WithSnapshots sets the snapshots per team (at least two).
func WithSnapshots(n int) Option {
	return func(g *Generator) {
		if n >= minSnapshots {
			g.snapshots = n
		}
	}
}

// WithIntervalDays sets the nominal spacing between snapshots.
func WithIntervalDays(days int) Option {
	return func(g *Generator) {
		if days > 0 {
			g.intervalDays = days
		}
	}
}

// WithDropoutRate sets the probability that an indicator is not measured at
// a snapshot.
func WithDropoutRate(rate float64) Option {
	return func(g *Generator) {
		if rate >= 0 && rate < 1 {
			g.dropoutRate = rate
		}
	}
}

// WithStart sets the first measurement date.
func WithStart(t time.Time) Option {
	return func(g *Generator) {
		if !t.IsZero() {
			g.start = t.UTC()
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}
