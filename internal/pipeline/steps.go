package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagebound/pagebound/internal/artifact"
	"github.com/pagebound/pagebound/internal/config"
	"github.com/pagebound/pagebound/internal/crawler"
	"github.com/pagebound/pagebound/internal/database"
	"github.com/pagebound/pagebound/internal/extract"
	"github.com/pagebound/pagebound/internal/model"
	"github.com/pagebound/pagebound/internal/report"
)

// SessionStartStep registers the run in the session database.
// When the store is nil (persistence disabled), it is a no-op.
type SessionStartStep struct {
	store *database.Store
}

// NewSessionStartStep creates a session registration step.
func NewSessionStartStep(store *database.Store) *SessionStartStep {
	return &SessionStartStep{store: store}
}

// Name returns the step's name for logging.
func (s *SessionStartStep) Name() string {
	return "session-start"
}

// Do inserts a running session row and records its ID on the run.
func (s *SessionStartStep) Do(ctx context.Context, run *Run) error {
	if s.store == nil {
		return nil
	}

	id, err := s.store.StartSession(ctx, run.Job.SeedURL, run.Job.MaxDepth, run.Job.MaxPages)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	run.SessionID = id
	return nil
}

// CrawlStep runs the crawl itself. It assembles the engine from the
// configuration and the collaborators it was given, executes it, and
// records the summary on the run.
//
// Design decision: The crawler is constructed inside Do rather than at
// step creation because it needs the session ID the session-start step
// assigned, and because a fresh engine per execution keeps batch runs
// independent.
type CrawlStep struct {
	cfg    *config.Config
	store  *database.Store
	events crawler.Events
	logger *slog.Logger

	// resumePending and resumeVisited seed the engine when continuing an
	// interrupted session.
	resumePending []model.FrontierEntry
	resumeVisited []string
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlEvents sets the progress subscriber passed to the engine.
func WithCrawlEvents(events crawler.Events) CrawlStepOption {
	return func(s *CrawlStep) {
		s.events = events
	}
}

// WithCrawlLogger sets the logger passed to the engine.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// WithResume seeds the crawl with an interrupted session's pending work
// and visited URLs.
func WithResume(pending []model.FrontierEntry, visited []string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.resumePending = pending
		s.resumeVisited = visited
	}
}

// NewCrawlStep creates the crawl execution step. The store may be nil
// when persistence is disabled.
func NewCrawlStep(cfg *config.Config, store *database.Store, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step's name for logging.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do assembles the engine and runs it. A cancelled crawl is not a step
// failure: the run is marked interrupted, the partial summary and the
// pending frontier are kept for the later steps, and nil is returned.
func (s *CrawlStep) Do(ctx context.Context, run *Run) error {
	writer, err := artifact.NewWriter(s.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}

	fetcher := crawler.NewFetcher(
		crawler.WithUserAgent(s.cfg.UserAgent),
		crawler.WithReadTimeout(s.cfg.Timeout),
		crawler.WithMaxBodySize(s.cfg.MaxBodySize),
	)

	opts := []crawler.Option{
		crawler.WithFetcher(fetcher),
		crawler.WithExtractor(extract.New()),
		crawler.WithArtifactWriter(writer),
		crawler.WithLogger(s.logger),
	}
	if s.store != nil {
		opts = append(opts, crawler.WithStore(s.store, run.SessionID))
	}
	if s.events != nil {
		opts = append(opts, crawler.WithEvents(s.events))
	}
	if len(s.resumePending) > 0 || len(s.resumeVisited) > 0 {
		opts = append(opts, crawler.WithResumeState(s.resumePending, s.resumeVisited))
	}

	engine, err := crawler.New(run.Job, opts...)
	if err != nil {
		return err
	}

	summary, err := engine.Crawl(ctx)
	run.Summary = summary
	if err != nil {
		run.Interrupted = true
		run.Pending = engine.PendingWork()
	}
	return nil
}

// ReportStep writes the crawl summary through a report writer.
type ReportStep struct {
	writer report.Writer
}

// NewReportStep creates a summary output step.
func NewReportStep(writer report.Writer) *ReportStep {
	return &ReportStep{writer: writer}
}

// Name returns the step's name for logging.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes the summary. It is a no-op when the crawl step produced none.
func (s *ReportStep) Do(_ context.Context, run *Run) error {
	if run.Summary == nil {
		return nil
	}
	if _, err := s.writer.Write(run.Summary); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// SessionEndStep finalizes the session row with the run's outcome and, for
// interrupted runs, snapshots the pending frontier so the session can be
// resumed. No-op when the store is nil.
type SessionEndStep struct {
	store *database.Store
}

// NewSessionEndStep creates a session finalization step.
func NewSessionEndStep(store *database.Store) *SessionEndStep {
	return &SessionEndStep{store: store}
}

// Name returns the step's name for logging.
func (s *SessionEndStep) Name() string {
	return "session-end"
}

// Do updates the session status and counters.
// The writes use a context detached from cancellation because this step
// runs exactly when the crawl was interrupted and the parent context is
// already dead.
func (s *SessionEndStep) Do(ctx context.Context, run *Run) error {
	if s.store == nil || run.Summary == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	status := model.SessionCompleted
	if run.Interrupted {
		status = model.SessionInterrupted
	}

	pages := run.PagesBefore + run.Summary.PagesDownloaded
	if err := s.store.EndSession(ctx, run.SessionID, status, pages, run.Summary.TotalErrors()); err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	if run.Interrupted {
		if err := s.store.SavePendingWork(ctx, run.SessionID, run.Pending); err != nil {
			return fmt.Errorf("save pending work: %w", err)
		}
	}
	return nil
}
