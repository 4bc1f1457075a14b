package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// PolitenessGate combines the two politeness rules: robots.txt compliance,
// cached per origin, and a minimum interval between requests to the same
// domain.
//
// Design decision: the per-domain interval uses one rate.Limiter per host
// with an atomic reservation instead of a check-sleep-record sequence.
// A reservation claims the next allowed slot under the limiter's own lock,
// so two workers hitting the same domain concurrently can never both
// observe "no wait needed" and fetch back to back.
type PolitenessGate struct {
	client    *http.Client
	userAgent string
	delay     time.Duration

	// group collapses concurrent robots.txt fetches for one origin into
	// a single request.
	group singleflight.Group

	mu sync.Mutex
	// robots maps origin to parsed rules; a nil value is the permissive
	// sentinel cached after a failed robots fetch.
	robots map[string]*robotstxt.RobotsData
	// limiters maps lowercased host to its interval limiter.
	limiters map[string]*rate.Limiter
}

// NewPolitenessGate creates a gate. The client is shared with the fetcher
// so robots.txt requests reuse its connection pool; delay <= 0 disables
// request spacing.
func NewPolitenessGate(client *http.Client, userAgent string, delay time.Duration) *PolitenessGate {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PolitenessGate{
		client:    client,
		userAgent: userAgent,
		delay:     delay,
		robots:    make(map[string]*robotstxt.RobotsData),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// CanFetch reports whether robots.txt permits fetching the URL. Rules are
// fetched lazily, at most once per origin; a robots fetch failure caches a
// permissive sentinel so unreadable robots files never block crawling.
func (g *PolitenessGate) CanFetch(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	origin := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)

	g.mu.Lock()
	data, cached := g.robots[origin]
	g.mu.Unlock()

	if !cached {
		data = g.fetchRobots(ctx, origin)
	}

	if data == nil {
		return true
	}

	// Robots rules may use query wildcards (e.g. "Disallow: /*?ref="), so
	// the matcher gets the path with its query string attached.
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, g.userAgent)
}

// fetchRobots populates the cache for an origin, collapsing concurrent
// callers into one HTTP request.
func (g *PolitenessGate) fetchRobots(ctx context.Context, origin string) *robotstxt.RobotsData {
	v, _, _ := g.group.Do(origin, func() (interface{}, error) {
		data := g.downloadRobots(ctx, origin)
		g.mu.Lock()
		g.robots[origin] = data
		g.mu.Unlock()
		return data, nil
	})

	data, _ := v.(*robotstxt.RobotsData)
	return data
}

// downloadRobots fetches and parses origin/robots.txt. Any failure returns
// nil, the permissive sentinel.
func (g *PolitenessGate) downloadRobots(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data
}

// Wait blocks until a request to the URL's domain is allowed, then claims
// the slot. Returns the context error if cancelled while waiting; the
// claimed slot is released in that case.
func (g *PolitenessGate) Wait(ctx context.Context, rawURL string) error {
	if g.delay <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil
	}

	g.mu.Lock()
	limiter, ok := g.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(g.delay), 1)
		g.limiters[host] = limiter
	}
	g.mu.Unlock()

	reservation := limiter.Reserve()
	wait := reservation.Delay()
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		reservation.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
