package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pagebound/pagebound/internal/model"
)

// Worker pool bounds and loop tuning.
const (
	// MinWorkers and MaxWorkers clamp the pool size. Ten workers is
	// plenty for a single-process polite crawler; beyond that the
	// per-domain delay dominates anyway.
	MinWorkers = 1
	MaxWorkers = 10

	// defaultDequeueTimeout bounds one frontier wait so workers observe
	// cancellation and the page cap between waits.
	defaultDequeueTimeout = 500 * time.Millisecond

	// maxIdleStrikes is the backstop number of consecutive dequeue
	// timeouts before a worker gives up. The frontier's quiescence
	// detection normally ends the crawl first.
	maxIdleStrikes = 20
)

// Job is the immutable configuration of one crawl.
type Job struct {
	// SeedURL is where the crawl starts. Must pass the admission policy.
	SeedURL string

	// MaxDepth bounds link hops from the seed; 0 fetches only the seed.
	MaxDepth int

	// MaxPages is the hard cap on downloaded pages.
	MaxPages int

	// Delay is the minimum interval between requests to one domain.
	Delay time.Duration

	// Workers is the pool size, clamped to [MinWorkers, MaxWorkers].
	Workers int

	// AllowedDomains restricts crawling when non-empty.
	AllowedDomains []string

	// UserAgent is sent with every request and matched against robots
	// rules.
	UserAgent string
}

// clampWorkers returns the pool size within bounds.
func (j Job) clampWorkers() int {
	switch {
	case j.Workers < MinWorkers:
		return MinWorkers
	case j.Workers > MaxWorkers:
		return MaxWorkers
	default:
		return j.Workers
	}
}

// Extractor produces structured content from a fetched HTML page. The
// engine treats it as an opaque, possibly failing collaborator.
type Extractor interface {
	Extract(body []byte, pageURL string) (*model.PageRecord, error)
}

// PageStore persists per-page rows and error rows. Calls are best-effort:
// the engine logs failures and keeps crawling.
type PageStore interface {
	SavePage(ctx context.Context, sessionID int64, page *model.PageResult, record *model.PageRecord) error
	LogError(ctx context.Context, sessionID int64, url, kind, message string) error
}

// ArtifactWriter writes the per-page file triple (HTML, JSON sidecar,
// metadata sidecar). Best-effort, like PageStore.
type ArtifactWriter interface {
	WritePage(page *model.PageResult, body []byte, record *model.PageRecord) (string, error)
}

// Crawler is the crawl engine: it owns the frontier, the politeness gate,
// the fetcher, and the stats, and runs the worker pool over them.
type Crawler struct {
	job       Job
	seed      string
	fetcher   *Fetcher
	gate      *PolitenessGate
	frontier  *Frontier
	stats     *Stats
	admission *Admission

	extractor Extractor
	store     PageStore
	artifacts ArtifactWriter
	events    Events
	logger    *slog.Logger

	sessionID      int64
	dequeueTimeout time.Duration
	resumeEntries  []model.FrontierEntry
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithFetcher replaces the default fetcher.
func WithFetcher(f *Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// WithExtractor sets the content extraction collaborator.
func WithExtractor(e Extractor) Option {
	return func(c *Crawler) {
		c.extractor = e
	}
}

// WithStore sets the page persistence collaborator and the session the
// rows belong to.
func WithStore(store PageStore, sessionID int64) Option {
	return func(c *Crawler) {
		c.store = store
		c.sessionID = sessionID
	}
}

// WithArtifactWriter sets the per-page file writer.
func WithArtifactWriter(w ArtifactWriter) Option {
	return func(c *Crawler) {
		c.artifacts = w
	}
}

// WithEvents sets the progress subscriber.
func WithEvents(e Events) Option {
	return func(c *Crawler) {
		c.events = e
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithDequeueTimeout overrides the frontier wait bound. Mainly for tests.
func WithDequeueTimeout(d time.Duration) Option {
	return func(c *Crawler) {
		if d > 0 {
			c.dequeueTimeout = d
		}
	}
}

// WithResumeState seeds the crawl with pending work and visited URLs from
// an interrupted session instead of starting fresh from the seed.
func WithResumeState(pending []model.FrontierEntry, visited []string) Option {
	return func(c *Crawler) {
		c.resumeEntries = pending
		c.frontier.SeedVisited(visited)
	}
}

// New validates the seed and assembles a crawler. ErrInvalidSeed is
// returned, wrapped with the reason, when the seed cannot be crawled;
// this is the only error fatal to a whole run.
func New(job Job, opts ...Option) (*Crawler, error) {
	seed, err := NormalizeURL(job.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	admission := NewAdmission(job.AllowedDomains)
	if !admission.Admit(seed) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSeed, job.SeedURL)
	}

	c := &Crawler{
		job:            job,
		seed:           seed,
		frontier:       NewFrontier(),
		stats:          NewStats(job.MaxPages),
		admission:      admission,
		events:         NopEvents{},
		logger:         slog.Default(),
		dequeueTimeout: defaultDequeueTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		c.fetcher = NewFetcher(WithUserAgent(job.UserAgent))
	}
	c.gate = NewPolitenessGate(c.fetcher.Client(), job.UserAgent, job.Delay)

	return c, nil
}

// Crawl runs the pool until the frontier drains, the page cap is reached,
// or the context is cancelled. It always returns a summary reflecting
// whatever completed; the error is non-nil only for cancellation.
func (c *Crawler) Crawl(ctx context.Context) (*model.CrawlSummary, error) {
	started := time.Now()

	if len(c.resumeEntries) > 0 {
		for _, entry := range c.resumeEntries {
			c.frontier.Enqueue(entry.URL, entry.Depth)
		}
	} else {
		c.frontier.Enqueue(c.seed, 0)
	}

	workers := c.job.clampWorkers()
	c.logger.Info("starting crawl",
		"seed", c.seed,
		"maxDepth", c.job.MaxDepth,
		"maxPages", c.job.MaxPages,
		"workers", workers,
		"delay", c.job.Delay,
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return c.worker(gctx)
		})
	}
	err := g.Wait()

	interrupted := err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
	summary := c.stats.Summary(c.seed, started, time.Now(), interrupted)
	c.events.Complete(summary)

	c.logger.Info("crawl finished",
		"pagesDownloaded", summary.PagesDownloaded,
		"pagesSkipped", summary.PagesSkipped,
		"errors", summary.TotalErrors(),
		"interrupted", interrupted,
	)

	if interrupted {
		return summary, err
	}
	return summary, nil
}

// PendingWork returns the frontier entries left unprocessed, for persisting
// when a crawl is interrupted.
func (c *Crawler) PendingWork() []model.FrontierEntry {
	return c.frontier.Pending()
}

// VisitedCount returns how many distinct URLs were committed for fetching.
func (c *Crawler) VisitedCount() int {
	return c.frontier.VisitedCount()
}

// worker is one pool member's loop. It observes cancellation and the page
// cap between entries, never mid-fetch.
func (c *Crawler) worker(ctx context.Context) error {
	idle := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.stats.CapReached() {
			// Wake the other workers; nothing left to schedule.
			c.frontier.Close()
			return nil
		}

		entry, err := c.frontier.Dequeue(c.dequeueTimeout)
		switch {
		case errors.Is(err, ErrFrontierDrained), errors.Is(err, ErrFrontierClosed):
			return nil
		case errors.Is(err, ErrDequeueTimeout):
			idle++
			if idle >= maxIdleStrikes {
				return nil
			}
			continue
		}

		idle = 0
		c.process(ctx, entry)
		c.frontier.Done()
	}
}

// process runs one frontier entry through the per-URL state machine:
// depth check, robots check, visited commit, politeness wait, fetch, then
// persistence and link discovery on success. Every failure path is
// isolated to this URL.
func (c *Crawler) process(ctx context.Context, entry model.FrontierEntry) {
	logger := c.logger.With("url", entry.URL, "depth", entry.Depth)

	if entry.Depth > c.job.MaxDepth {
		logger.Debug("depth exceeded, skipping")
		c.stats.AddSkip()
		return
	}

	pageURL, err := url.Parse(entry.URL)
	if err != nil {
		return
	}

	if !c.gate.CanFetch(ctx, entry.URL) {
		logger.Info("robots.txt disallows, skipping")
		c.stats.AddSkip()
		return
	}

	if !c.frontier.TryMarkVisited(entry.URL) {
		return
	}

	if !c.stats.ReserveSlot() {
		// The page cap filled while this entry was in flight.
		c.stats.AddSkip()
		return
	}
	committed := false
	defer func() {
		if !committed {
			c.stats.ReleaseSlot()
		}
	}()

	if err := c.gate.Wait(ctx, entry.URL); err != nil {
		return
	}

	resp, fetchErr := c.fetcher.Fetch(ctx, entry.URL)
	if fetchErr != nil {
		if ctx.Err() != nil {
			// The fetch died because the crawl is stopping; not a
			// page failure.
			return
		}
		logger.Error("fetch failed", "kind", string(fetchErr.Kind), "error", fetchErr.Err)
		c.stats.AddError(fetchErr.Kind)
		c.events.PageFailed(entry.URL, fetchErr.Kind, fetchErr.Err)
		c.persistError(ctx, entry.URL, fetchErr)
		return
	}

	if !resp.OK() {
		logger.Warn("skipping non-success status", "status", resp.StatusCode)
		c.stats.AddSkip()
		return
	}
	if !resp.IsHTML() {
		logger.Info("skipping non-HTML content", "contentType", resp.ContentType)
		c.stats.AddSkip()
		return
	}

	page := &model.PageResult{
		URL:           entry.URL,
		StatusCode:    resp.StatusCode,
		ContentType:   resp.ContentType,
		ContentLength: int64(len(resp.Body)),
		ResponseTime:  resp.ResponseTime,
		FetchedAt:     time.Now(),
	}

	var record *model.PageRecord
	if c.extractor != nil {
		record, err = c.extractor.Extract(resp.Body, entry.URL)
		if err != nil {
			logger.Warn("content extraction failed", "error", err)
			record = nil
		} else {
			c.stats.AddExtracted()
			page.Title = record.Title
		}
	}

	c.stats.CommitPage(pageURL.Hostname(), page.ContentLength, resp.ResponseTime)
	committed = true

	if c.artifacts != nil {
		if _, err := c.artifacts.WritePage(page, resp.Body, record); err != nil {
			logger.Warn("artifact write failed", "error", err)
		}
	}
	if c.store != nil {
		if err := c.store.SavePage(ctx, c.sessionID, page, record); err != nil {
			logger.Warn("page persistence failed", "error", err)
		}
	}

	c.events.PageDownloaded(page)
	logger.Info("page downloaded",
		"status", resp.StatusCode,
		"bytes", page.ContentLength,
		"responseTime", resp.ResponseTime,
	)

	if entry.Depth < c.job.MaxDepth && !c.stats.CapReached() {
		c.enqueueLinks(pageURL, resp.Body, entry.Depth+1)
	}
}

// enqueueLinks pushes admitted links from a downloaded page into the
// frontier at the child depth.
func (c *Crawler) enqueueLinks(base *url.URL, body []byte, depth int) {
	for _, link := range discoverLinks(base, body) {
		normalized, err := NormalizeURL(link)
		if err != nil {
			continue
		}
		if !c.admission.Admit(normalized) {
			continue
		}
		c.stats.AddURLFound()
		c.frontier.Enqueue(normalized, depth)
	}
}

// persistError logs a fetch failure into the session store, best-effort.
func (c *Crawler) persistError(ctx context.Context, url string, fetchErr *FetchError) {
	if c.store == nil {
		return
	}
	if err := c.store.LogError(ctx, c.sessionID, url, string(fetchErr.Kind), fetchErr.Err.Error()); err != nil {
		c.logger.Warn("error persistence failed", "url", url, "error", err)
	}
}
