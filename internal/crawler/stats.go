package crawler

import (
	"sync"
	"time"

	"github.com/pagebound/pagebound/internal/model"
)

// Stats is the thread-safe statistics aggregator for one crawl. One mutex
// guards every counter; in particular the page cap check and the download
// count share it, which is what makes the cap exact.
//
// Design decision: the cap is enforced by slot reservation. A worker calls
// ReserveSlot before fetching and either commits the slot on success or
// releases it on a skip or failure. Downloads can therefore never overshoot
// the cap, regardless of worker count.
type Stats struct {
	mu sync.Mutex

	maxPages int
	reserved int

	urlsFound  int
	downloaded int
	skipped    int
	extracted  int
	errors     map[ErrorKind]int

	bytes   int64
	rtSum   time.Duration
	rtCount int
	domains map[string]struct{}
}

// NewStats creates an aggregator enforcing the given page cap.
func NewStats(maxPages int) *Stats {
	return &Stats{
		maxPages: maxPages,
		errors:   make(map[ErrorKind]int),
		domains:  make(map[string]struct{}),
	}
}

// ReserveSlot claims one of the remaining download slots. It returns false
// when committed downloads plus outstanding reservations have reached the
// cap; the caller must then stop scheduling fetches.
func (s *Stats) ReserveSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.downloaded+s.reserved >= s.maxPages {
		return false
	}
	s.reserved++
	return true
}

// ReleaseSlot returns an unused reservation after a skip or failed fetch.
func (s *Stats) ReleaseSlot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved--
}

// CommitPage converts a reservation into a downloaded page and records its
// domain, size, and response time.
func (s *Stats) CommitPage(host string, bytes int64, responseTime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reserved--
	s.downloaded++
	s.bytes += bytes
	s.rtSum += responseTime
	s.rtCount++
	if host != "" {
		s.domains[host] = struct{}{}
	}
}

// AddURLFound counts one admitted discovered link.
func (s *Stats) AddURLFound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urlsFound++
}

// AddSkip counts a fetch-level skip (non-2xx, non-HTML, or robots).
func (s *Stats) AddSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// AddError counts a classified fetch failure.
func (s *Stats) AddError(kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[kind]++
}

// AddExtracted counts a successful content extraction.
func (s *Stats) AddExtracted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extracted++
}

// PagesDownloaded returns the committed download count.
func (s *Stats) PagesDownloaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloaded
}

// CapReached reports whether the download cap has been hit.
func (s *Stats) CapReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloaded >= s.maxPages
}

// TotalErrors sums all error counts.
func (s *Stats) TotalErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.errors {
		total += n
	}
	return total
}

// Summary snapshots the aggregator into a read-only crawl summary.
func (s *Stats) Summary(startURL string, started, finished time.Time, interrupted bool) *model.CrawlSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make(map[string]int, len(s.errors))
	for kind, n := range s.errors {
		errs[string(kind)] = n
	}

	var avg time.Duration
	if s.rtCount > 0 {
		avg = s.rtSum / time.Duration(s.rtCount)
	}

	return &model.CrawlSummary{
		StartURL:         startURL,
		StartedAt:        started,
		FinishedAt:       finished,
		Duration:         finished.Sub(started),
		URLsFound:        s.urlsFound,
		PagesDownloaded:  s.downloaded,
		PagesSkipped:     s.skipped,
		ContentExtracted: s.extracted,
		Errors:           errs,
		DomainsCrawled:   len(s.domains),
		BytesDownloaded:  s.bytes,
		AvgResponseTime:  avg,
		Interrupted:      interrupted,
	}
}
