package crawler

import "errors"

// ErrorKind classifies a per-URL fetch failure for statistics and logging.
type ErrorKind string

// Fetch failure kinds. Skips (non-2xx statuses, non-HTML content types,
// robots-disallowed URLs, depth or page-cap cutoffs) are not errors and
// have no kind.
const (
	// ErrKindTimeout covers connect and read timeouts.
	ErrKindTimeout ErrorKind = "timeout"

	// ErrKindConnection covers refused connections, DNS failures, and
	// resets.
	ErrKindConnection ErrorKind = "connection"

	// ErrKindRedirects means the redirect chain exceeded the limit.
	ErrKindRedirects ErrorKind = "too_many_redirects"

	// ErrKindHTTP covers protocol-level request failures.
	ErrKindHTTP ErrorKind = "http"

	// ErrKindOther is the fallback for unclassified failures.
	ErrKindOther ErrorKind = "other"
)

// Sentinel errors for the crawl engine.
var (
	// ErrInvalidSeed means the seed URL failed validation. This is the
	// only error fatal to a whole crawl.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrFrontierDrained means the queue is empty and no worker holds
	// in-flight work, so no more entries can appear.
	ErrFrontierDrained = errors.New("frontier drained")

	// ErrFrontierClosed means the frontier was shut down by Close.
	ErrFrontierClosed = errors.New("frontier closed")

	// ErrDequeueTimeout means the dequeue wait expired while other
	// workers still held in-flight work.
	ErrDequeueTimeout = errors.New("dequeue timed out")
)
