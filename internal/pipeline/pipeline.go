package pipeline

import (
	"context"
	"log/slog"

	"github.com/pagebound/pagebound/internal/crawler"
	"github.com/pagebound/pagebound/internal/model"
)

// Run carries the state of one crawl through the pipeline. Steps read the
// fields earlier steps filled in and add their own.
type Run struct {
	// Job is the crawl configuration for this run.
	Job crawler.Job

	// SessionID is assigned by the session-start step; zero when
	// persistence is disabled.
	SessionID int64

	// Summary is filled by the crawl step, also after cancellation.
	Summary *model.CrawlSummary

	// Pending holds the frontier entries left when the crawl was
	// interrupted, for the session-end step to persist.
	Pending []model.FrontierEntry

	// PagesBefore is the page count carried over from earlier runs of a
	// resumed session; the session-end step adds it to this run's count.
	PagesBefore int

	// Interrupted is true when the crawl was cancelled before finishing.
	Interrupted bool

	// ErrorMessage records a step failure for display; the run keeps
	// whatever results exist.
	ErrorMessage string

	// CompletedSteps tracks which steps ran, in order.
	CompletedSteps []string
}

// NewRun creates the run state for one crawl job.
func NewRun(job crawler.Job) *Run {
	return &Run{Job: job}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// run state from previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging and debugging
// 3. It's more extensible for future features (e.g., priority, dependencies)
type Step interface {
	// Do executes the pipeline step.
	// It receives the context for cancellation, and the run to modify.
	// Returns an error if the step fails critically; non-critical errors
	// should be recorded in the run and return nil.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, the default logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. Failed steps are logged and their errors
// are recorded in the run, but subsequent steps still execute.
//
// Design decision: This option exists because a report or persistence
// failure should not discard crawl results that already exist. The
// default is to stop on error because early failures usually mean the
// run cannot produce anything useful.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and logs each step's
// execution.
//
// Design decision: Execute does not short-circuit on context
// cancellation; each step handles the context itself. A cancelled crawl
// must still reach the report and session-end steps so partial results
// are reported and the session is marked interrupted.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in the run).
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		p.logger.Info("executing step",
			"step", step.Name(),
			"seed", run.Job.SeedURL,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"seed", run.Job.SeedURL,
				"error", err,
			)

			run.ErrorMessage = err.Error()

			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"seed", run.Job.SeedURL,
			)
		}

		run.CompletedSteps = append(run.CompletedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
