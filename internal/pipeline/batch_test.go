package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pagebound/pagebound/internal/crawler"
)

// countingStep records how many times it ran across the whole batch.
type countingStep struct {
	count *atomic.Int32
}

func (countingStep) Name() string { return "counting" }

func (s countingStep) Do(_ context.Context, _ *Run) error {
	s.count.Add(1)
	return nil
}

func newCountingFactory(count *atomic.Int32) Factory {
	return func(seed string) (*Pipeline, *Run, error) {
		p := New(WithLogger(quietLogger()))
		p.AddStep(countingStep{count: count})
		return p, NewRun(crawler.Job{SeedURL: seed}), nil
	}
}

func TestBatchProcessorRunsAllSeeds(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	b := NewBatchProcessor(newCountingFactory(&count),
		WithBatchLogger(quietLogger()),
		WithConcurrency(3),
	)

	seeds := []string{
		"https://one.example.com/",
		"https://two.example.com/",
		"https://three.example.com/",
		"https://four.example.com/",
	}

	results, err := b.ProcessBatch(context.Background(), seeds)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if got := count.Load(); got != int32(len(seeds)) {
		t.Errorf("step ran %d times, want %d", got, len(seeds))
	}
	if len(results) != len(seeds) {
		t.Fatalf("results = %d, want %d", len(results), len(seeds))
	}
	// Results stay in input order regardless of completion order.
	for i, seed := range seeds {
		if results[i] == nil || results[i].Job.SeedURL != seed {
			t.Errorf("results[%d] = %+v, want seed %q", i, results[i], seed)
		}
	}
}

func TestBatchProcessorRecordsSeedFailures(t *testing.T) {
	t.Parallel()

	stepErr := errors.New("seed exploded")
	factory := func(seed string) (*Pipeline, *Run, error) {
		p := New(WithLogger(quietLogger()))
		if seed == "https://bad.example.com/" {
			p.AddStep(&recordingStep{name: "failing", err: stepErr, trace: &[]string{}})
		}
		return p, NewRun(crawler.Job{SeedURL: seed}), nil
	}

	b := NewBatchProcessor(factory, WithBatchLogger(quietLogger()))
	results, err := b.ProcessBatch(context.Background(), []string{
		"https://good.example.com/",
		"https://bad.example.com/",
	})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v, per-seed failures must not abort the batch", err)
	}

	if results[0].ErrorMessage != "" {
		t.Errorf("good seed ErrorMessage = %q", results[0].ErrorMessage)
	}
	if results[1].ErrorMessage != stepErr.Error() {
		t.Errorf("bad seed ErrorMessage = %q, want %q", results[1].ErrorMessage, stepErr)
	}
}

func TestBatchProcessorFactoryFailure(t *testing.T) {
	t.Parallel()

	factory := func(seed string) (*Pipeline, *Run, error) {
		return nil, nil, errors.New("no pipeline for you")
	}

	b := NewBatchProcessor(factory, WithBatchLogger(quietLogger()))
	results, err := b.ProcessBatch(context.Background(), []string{"https://example.com/"})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if results[0].ErrorMessage != "no pipeline for you" {
		t.Errorf("ErrorMessage = %q", results[0].ErrorMessage)
	}
	if results[0].Job.SeedURL != "https://example.com/" {
		t.Errorf("SeedURL = %q", results[0].Job.SeedURL)
	}
}

func TestBatchProcessorCallback(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	b := NewBatchProcessor(newCountingFactory(&count), WithBatchLogger(quietLogger()))

	var mu sync.Mutex
	seen := make(map[string]bool)
	callback := func(seed string, run *Run) {
		mu.Lock()
		defer mu.Unlock()
		seen[seed] = run != nil
	}

	seeds := []string{"https://one.example.com/", "https://two.example.com/"}
	if _, err := b.ProcessBatchWithCallback(context.Background(), seeds, callback); err != nil {
		t.Fatalf("ProcessBatchWithCallback() error = %v", err)
	}

	for _, seed := range seeds {
		if !seen[seed] {
			t.Errorf("callback not invoked for %q", seed)
		}
	}
}

func TestBatchProcessorConcurrencyFloor(t *testing.T) {
	t.Parallel()

	var count atomic.Int32
	b := NewBatchProcessor(newCountingFactory(&count), WithConcurrency(0), WithBatchLogger(quietLogger()))
	if b.concurrency != defaultBatchConcurrency {
		t.Errorf("concurrency = %d, want default %d", b.concurrency, defaultBatchConcurrency)
	}
}
