package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/pagebound/pagebound/internal/crawler"
	"github.com/pagebound/pagebound/internal/model"
)

// progressPrinter subscribes to crawl events and prints one line per
// outcome. It writes to stderr so report output on stdout stays clean.
type progressPrinter struct {
	out      io.Writer
	maxPages int

	mu    sync.Mutex
	count int
}

// newProgressPrinter creates a progress subscriber for one crawl.
func newProgressPrinter(out io.Writer, maxPages int) *progressPrinter {
	return &progressPrinter{out: out, maxPages: maxPages}
}

// PageDownloaded prints a progress line for a downloaded page.
func (p *progressPrinter) PageDownloaded(page *model.PageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count++
	fmt.Fprintf(p.out, "[%d/%d] %s (%d, %s)\n",
		p.count, p.maxPages, page.URL, page.StatusCode, formatSize(page.ContentLength))
}

// PageFailed prints a failure line with the classified error kind.
func (p *progressPrinter) PageFailed(url string, kind crawler.ErrorKind, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "  ! %s: %s (%v)\n", url, kind, err)
}

// Complete is a no-op; the report writers render the summary.
func (p *progressPrinter) Complete(*model.CrawlSummary) {}

// formatSize renders a byte count compactly for progress lines.
func formatSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
