package model

import "time"

// SessionStatus is the lifecycle state of a crawl session.
type SessionStatus string

// Session lifecycle states. A session starts as running and ends as either
// completed (frontier drained or page cap reached) or interrupted (context
// cancelled before the crawl finished).
const (
	SessionRunning     SessionStatus = "running"
	SessionCompleted   SessionStatus = "completed"
	SessionInterrupted SessionStatus = "interrupted"
)

// Session records one crawl run in the session store.
type Session struct {
	// ID is the store-assigned session identifier.
	ID int64 `json:"id"`

	// StartURL is the normalized seed URL.
	StartURL string `json:"start_url"`

	// MaxDepth and MaxPages are the bounds the crawl ran with.
	MaxDepth int `json:"max_depth"`
	MaxPages int `json:"max_pages"`

	// PagesCrawled is the number of pages downloaded by the session.
	PagesCrawled int `json:"pages_crawled"`

	// TotalErrors is the number of per-URL errors logged by the session.
	TotalErrors int `json:"total_errors"`

	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the session ended; zero while running.
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// Status is the current lifecycle state.
	Status SessionStatus `json:"status"`
}

// Resumable reports whether the session can be picked up again:
// it was interrupted before reaching its page cap.
func (s *Session) Resumable() bool {
	return s.Status == SessionInterrupted && s.PagesCrawled < s.MaxPages
}

// FrontierEntry is a unit of pending crawl work: a URL and its distance in
// link hops from the seed. The frontier consumes each entry exactly once;
// the session store persists entries when a crawl is interrupted.
type FrontierEntry struct {
	// URL is the normalized URL to fetch.
	URL string `json:"url"`

	// Depth is the number of link hops from the seed.
	Depth int `json:"depth"`
}
