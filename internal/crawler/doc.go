// Package crawler implements the concurrent crawl engine: the URL frontier,
// the politeness gate, the HTTP fetcher, the worker pool, and the statistics
// aggregator.
//
// # Architecture
//
// The Crawler type coordinates a fixed pool of workers. Each worker loops:
// pull an entry from the Frontier, run it through the admission state machine
// (visited, depth, page cap, robots.txt), wait out the per-domain politeness
// interval, fetch, and feed newly discovered links back into the Frontier.
// All shared state lives in explicit, lock-guarded types owned by the
// Crawler; there are no package-level singletons.
//
// # Components
//
//   - Frontier: FIFO work queue with a visited set and quiescence detection
//   - PolitenessGate: robots.txt cache plus per-domain request spacing
//   - Fetcher: HTTP GET with timeouts, redirect cap, and retry/backoff
//   - Admission: URL normalization and eligibility rules for the frontier
//   - Stats: lock-guarded counters and the download slot reservation
//
// # Bounds
//
// The crawl is bounded three ways: maximum link depth from the seed, a hard
// page cap enforced by slot reservation (never overshot), and per-domain
// request spacing enforced with an atomic rate-limiter reservation.
//
// # Usage
//
//	c, err := crawler.New(crawler.Job{SeedURL: "https://example.com", MaxPages: 50})
//	if err != nil {
//		return err
//	}
//	summary, err := c.Crawl(ctx)
//
// Collaborators (content extractor, session store, artifact writer, event
// sink) are optional interfaces; a failure in any of them is logged and never
// stops the crawl.
package crawler
