package crawler

import "github.com/pagebound/pagebound/internal/model"

// Events is the progress-publishing interface the engine calls
// synchronously from worker goroutines. Implementations must be safe for
// concurrent use and should return quickly; a slow subscriber slows the
// crawl. The engine has no dependency on how updates are displayed.
type Events interface {
	// PageDownloaded fires after a page is committed to the download
	// count, before its links are enqueued.
	PageDownloaded(page *model.PageResult)

	// PageFailed fires for every classified fetch failure.
	PageFailed(url string, kind ErrorKind, err error)

	// Complete fires exactly once, after all workers have exited,
	// including when the crawl was cancelled.
	Complete(summary *model.CrawlSummary)
}

// NopEvents is the default subscriber that ignores all events.
type NopEvents struct{}

// PageDownloaded implements Events.
func (NopEvents) PageDownloaded(*model.PageResult) {}

// PageFailed implements Events.
func (NopEvents) PageFailed(string, ErrorKind, error) {}

// Complete implements Events.
func (NopEvents) Complete(*model.CrawlSummary) {}
