package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pagebound/pagebound/internal/crawler"
)

// recordingStep appends its name to a shared trace when executed.
type recordingStep struct {
	name  string
	err   error
	trace *[]string
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(_ context.Context, _ *Run) error {
	*s.trace = append(*s.trace, s.name)
	return s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineExecutesStepsInOrder(t *testing.T) {
	t.Parallel()

	var trace []string
	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		&recordingStep{name: "first", trace: &trace},
		&recordingStep{name: "second", trace: &trace},
		&recordingStep{name: "third", trace: &trace},
	)

	run := NewRun(crawler.Job{SeedURL: "https://example.com/"})
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(trace) != len(want) {
		t.Fatalf("executed %v, want %v", trace, want)
	}
	for i, name := range want {
		if trace[i] != name {
			t.Errorf("step %d = %q, want %q", i, trace[i], name)
		}
	}
	if len(run.CompletedSteps) != 3 {
		t.Errorf("CompletedSteps = %v", run.CompletedSteps)
	}
}

func TestPipelineStopsOnError(t *testing.T) {
	t.Parallel()

	stepErr := errors.New("boom")
	var trace []string
	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		&recordingStep{name: "first", trace: &trace},
		&recordingStep{name: "failing", err: stepErr, trace: &trace},
		&recordingStep{name: "never", trace: &trace},
	)

	run := NewRun(crawler.Job{SeedURL: "https://example.com/"})
	err := p.Execute(context.Background(), run)
	if !errors.Is(err, stepErr) {
		t.Fatalf("Execute() error = %v, want %v", err, stepErr)
	}

	if len(trace) != 2 {
		t.Errorf("executed %v, want first two only", trace)
	}
	if run.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage = %q", run.ErrorMessage)
	}
}

func TestPipelineContinueOnError(t *testing.T) {
	t.Parallel()

	var trace []string
	p := New(WithLogger(quietLogger()), WithContinueOnError(true))
	p.AddSteps(
		&recordingStep{name: "failing", err: errors.New("boom"), trace: &trace},
		&recordingStep{name: "still-runs", trace: &trace},
	)

	run := NewRun(crawler.Job{SeedURL: "https://example.com/"})
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute() error = %v, want nil with continueOnError", err)
	}

	if len(trace) != 2 {
		t.Errorf("executed %v, want both steps", trace)
	}
	if run.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage = %q", run.ErrorMessage)
	}
}

func TestPipelineStepNames(t *testing.T) {
	t.Parallel()

	var trace []string
	p := New(WithLogger(quietLogger()))
	if p.StepCount() != 0 {
		t.Errorf("StepCount() = %d for empty pipeline", p.StepCount())
	}

	p.AddStep(&recordingStep{name: "alpha", trace: &trace})
	p.AddStep(&recordingStep{name: "beta", trace: &trace})

	names := p.StepNames()
	if p.StepCount() != 2 || len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Errorf("StepNames() = %v", names)
	}
}

func TestPipelineEmptyExecute(t *testing.T) {
	t.Parallel()

	p := New(WithLogger(quietLogger()))
	run := NewRun(crawler.Job{SeedURL: "https://example.com/"})
	if err := p.Execute(context.Background(), run); err != nil {
		t.Errorf("Execute() error = %v for empty pipeline", err)
	}
	if len(run.CompletedSteps) != 0 {
		t.Errorf("CompletedSteps = %v", run.CompletedSteps)
	}
}
