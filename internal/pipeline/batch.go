package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultBatchConcurrency bounds how many seeds crawl at once. Each crawl
// already runs its own worker pool, so batch concurrency stays small.
const defaultBatchConcurrency = 2

// Factory builds a fresh pipeline and run for one seed. Each batch item
// gets its own pipeline so runs share nothing but the factory's
// collaborators.
type Factory func(seed string) (*Pipeline, *Run, error)

// BatchProcessor crawls multiple seeds concurrently, each through its own
// pipeline.
//
// Design decision: A failed seed does not abort the batch. Its error is
// recorded on the run and the remaining seeds continue, because batch
// crawls are typically long and independent per seed.
type BatchProcessor struct {
	// factory creates the pipeline and run for each seed.
	factory Factory

	// concurrency limits how many seeds are processed at once.
	concurrency int

	// logger is used for batch progress logging.
	logger *slog.Logger

	// mu guards results during concurrent writes.
	mu sync.Mutex

	// results holds one run per seed, in input order.
	results []*Run
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the number of seeds crawled concurrently.
// Values below 1 keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n >= 1 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a batch processor using the given factory.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	b := &BatchProcessor{
		factory:     factory,
		concurrency: defaultBatchConcurrency,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// ProcessBatch crawls all seeds and returns their runs in input order.
// Context cancellation stops scheduling new seeds; seeds already crawling
// finish their own cancellation handling.
//
// Per-seed failures are recorded in each run's ErrorMessage; the returned
// error is non-nil only when the whole batch was cancelled.
func (b *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*Run, error) {
	b.results = make([]*Run, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			b.logger.Info("batch seed starting", "seed", seed, "index", i)

			run := b.processSeed(gctx, seed)

			b.mu.Lock()
			b.results[i] = run
			b.mu.Unlock()

			b.logger.Info("batch seed finished",
				"seed", seed,
				"index", i,
				"interrupted", run.Interrupted,
				"error", run.ErrorMessage,
			)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return b.results, err
	}
	return b.results, nil
}

// ProcessBatchWithCallback crawls all seeds and invokes the callback as
// each run finishes. The callback may be called from multiple goroutines;
// it must be safe for concurrent use.
func (b *BatchProcessor) ProcessBatchWithCallback(ctx context.Context, seeds []string, callback func(seed string, run *Run)) ([]*Run, error) {
	b.results = make([]*Run, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			run := b.processSeed(gctx, seed)

			b.mu.Lock()
			b.results[i] = run
			b.mu.Unlock()

			if callback != nil {
				callback(seed, run)
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return b.results, err
	}
	return b.results, nil
}

// processSeed runs one seed through a fresh pipeline, folding factory and
// execution failures into the run.
func (b *BatchProcessor) processSeed(ctx context.Context, seed string) *Run {
	p, run, err := b.factory(seed)
	if err != nil {
		run = &Run{}
		run.Job.SeedURL = seed
		run.ErrorMessage = err.Error()
		return run
	}

	if err := p.Execute(ctx, run); err != nil {
		run.ErrorMessage = err.Error()
	}
	return run
}
