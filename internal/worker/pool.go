package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Job processes item i. Implementations write their output by index so the
// result does not depend on scheduling.
type Job func(ctx context.Context, i int) error

// Pool bounds how many jobs run at once.
type Pool struct {
	size   int
	name   string
	logger logger.Logger
}

// NewPool creates a pool sized to the CPU count unless configured otherwise.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		size:   runtime.NumCPU(),
		name:   "pool",
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Size returns the configured concurrency.
func (p *Pool) Size() int { return p.size }

// Run executes fn for every i in [0, n). The first error cancels the jobs not
// yet started and is returned once all running jobs finish.
func (p *Pool) Run(ctx context.Context, n int, fn Job) error {
	if n <= 0 {
		return nil
	}
	start := time.Now()
	metrics.UpdateWorkerPoolSize(p.size)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)
	for i := 0; i < n; i++ {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			if err := fn(gCtx, i); err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("worker", "job_error")
		p.logger.Warn(ctx, "pool run failed",
			logger.Int("jobs", n),
			logger.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.logger.Debug(ctx, "pool run complete",
		logger.Int("jobs", n),
		logger.Int("workers", p.size),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}
