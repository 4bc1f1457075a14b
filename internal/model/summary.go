package model

import "time"

// CrawlSummary is the read-only report of one finished crawl. It is built
// once from the stats aggregator when the crawl ends, including after a
// cancellation, and consumed by the report writers and the session store.
type CrawlSummary struct {
	// StartURL is the seed the crawl started from.
	StartURL string `json:"start_url"`

	// StartedAt and FinishedAt bound the crawl.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Duration is FinishedAt minus StartedAt.
	Duration time.Duration `json:"duration"`

	// URLsFound counts every admitted link discovered during the crawl,
	// including duplicates of already-queued URLs.
	URLsFound int `json:"urls_found"`

	// PagesDownloaded counts successfully fetched and stored HTML pages.
	PagesDownloaded int `json:"pages_downloaded"`

	// PagesSkipped counts skipped entries: non-2xx statuses, non-HTML
	// content types, robots-disallowed URLs, entries beyond the depth
	// limit, and entries rejected because the page cap filled.
	PagesSkipped int `json:"pages_skipped"`

	// ContentExtracted counts pages whose structured extraction succeeded.
	ContentExtracted int `json:"content_extracted"`

	// Errors maps error kind (timeout, connection, ...) to count.
	Errors map[string]int `json:"errors,omitempty"`

	// DomainsCrawled is the number of distinct hosts pages came from.
	DomainsCrawled int `json:"domains_crawled"`

	// BytesDownloaded is the total body bytes of downloaded pages.
	BytesDownloaded int64 `json:"bytes_downloaded"`

	// AvgResponseTime is the mean fetch time over downloaded pages.
	AvgResponseTime time.Duration `json:"avg_response_time"`

	// Interrupted is true when the crawl was cancelled before finishing.
	Interrupted bool `json:"interrupted"`
}

// TotalErrors sums the per-kind error counts.
func (s *CrawlSummary) TotalErrors() int {
	total := 0
	for _, n := range s.Errors {
		total += n
	}
	return total
}

// PagesPerMinute is the download rate over the crawl duration.
// Returns 0 for a zero-duration crawl.
func (s *CrawlSummary) PagesPerMinute() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.PagesDownloaded) / s.Duration.Minutes()
}

// SuccessRate is the share of fetch attempts that produced a downloaded
// page, in percent. Attempts are downloads plus skips plus errors.
func (s *CrawlSummary) SuccessRate() float64 {
	attempts := s.PagesDownloaded + s.PagesSkipped + s.TotalErrors()
	if attempts == 0 {
		return 0
	}
	return float64(s.PagesDownloaded) / float64(attempts) * 100
}
