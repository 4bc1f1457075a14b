package crawler

import (
	"sync"
	"time"

	"github.com/pagebound/pagebound/internal/model"
)

// Frontier is the thread-safe FIFO work queue of the crawl. It pairs the
// queue with the visited set so the dedup test-and-set and the enqueue
// check share one lock, and it tracks in-flight entries so workers can tell
// a momentarily empty queue apart from a drained crawl.
//
// Design decision: visited marking is split from enqueueing. Enqueue only
// refuses URLs that are already visited; the worker calls TryMarkVisited
// immediately before fetching. Marking at enqueue time would let a URL
// discovered concurrently on two pages suppress itself before anyone ever
// fetched it.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue    []model.FrontierEntry
	visited  map[string]struct{}
	inflight int
	closed   bool
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{
		visited: make(map[string]struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Enqueue appends an entry unless its URL has already been visited.
// It does not mark the URL visited. URLs must be normalized by the caller;
// the frontier compares them byte for byte.
func (f *Frontier) Enqueue(url string, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if _, ok := f.visited[url]; ok {
		return
	}

	f.queue = append(f.queue, model.FrontierEntry{URL: url, Depth: depth})
	f.cond.Signal()
}

// Dequeue pops the oldest entry, blocking up to timeout. The caller must
// call Done once it has finished processing the entry.
//
// Error semantics:
//   - ErrFrontierDrained: the queue is empty and nothing is in flight, so
//     no further work can appear. The worker should exit.
//   - ErrDequeueTimeout: the wait expired but another worker still holds
//     in-flight work that may enqueue more. The worker should retry.
//   - ErrFrontierClosed: Close was called.
func (f *Frontier) Dequeue(timeout time.Duration) (model.FrontierEntry, error) {
	deadline := time.Now().Add(timeout)

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return model.FrontierEntry{}, ErrFrontierClosed
		}
		if len(f.queue) > 0 {
			entry := f.queue[0]
			f.queue = f.queue[1:]
			f.inflight++
			return entry, nil
		}
		if f.inflight == 0 {
			return model.FrontierEntry{}, ErrFrontierDrained
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return model.FrontierEntry{}, ErrDequeueTimeout
		}

		// sync.Cond has no timed wait; a timer broadcast bounds it.
		wakeup := time.AfterFunc(remaining, f.cond.Broadcast)
		f.cond.Wait()
		wakeup.Stop()
	}
}

// Done signals that an entry returned by Dequeue has been fully processed,
// including any Enqueue calls it triggered. Waiters re-check quiescence.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inflight--
	f.cond.Broadcast()
}

// TryMarkVisited atomically marks a URL as visited. It returns true only
// for the first caller for a given URL; this is the dedup gate that
// guarantees at-most-once fetching.
func (f *Frontier) TryMarkVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	f.visited[url] = struct{}{}
	return true
}

// SeedVisited pre-marks URLs as visited. Used when resuming a session so
// already-downloaded pages are not fetched again.
func (f *Frontier) SeedVisited(urls []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range urls {
		f.visited[u] = struct{}{}
	}
}

// Close shuts the frontier down and wakes all blocked workers. Pending
// entries remain readable through Pending for persistence.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}

// Pending returns a copy of the entries still queued. Called after the
// pool stops to persist unfinished work for resume.
func (f *Frontier) Pending() []model.FrontierEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	pending := make([]model.FrontierEntry, len(f.queue))
	copy(pending, f.queue)
	return pending
}

// VisitedCount returns the number of URLs ever marked visited.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
