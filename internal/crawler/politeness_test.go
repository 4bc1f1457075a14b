package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPolitenessGateCanFetch(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	g := NewPolitenessGate(srv.Client(), "pagebound-test/1.0", 0)
	ctx := context.Background()

	if !g.CanFetch(ctx, srv.URL+"/public/page") {
		t.Error("CanFetch() = false for allowed path")
	}
	if g.CanFetch(ctx, srv.URL+"/private/secret") {
		t.Error("CanFetch() = true for disallowed path")
	}
	if g.CanFetch(ctx, srv.URL+"/private/") {
		t.Error("CanFetch() = true for disallowed prefix")
	}

	// Rules are cached per origin.
	if got := robotsHits.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestPolitenessGateCanFetchQueryRules(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fmt.Fprint(w, "User-agent: *\nDisallow: /*?ref=\nDisallow: /search\n")
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	g := NewPolitenessGate(srv.Client(), "pagebound-test/1.0", 0)
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "plain path allowed", url: srv.URL + "/page", want: true},
		{name: "query wildcard disallowed", url: srv.URL + "/page?ref=tracking", want: false},
		{name: "other query allowed", url: srv.URL + "/page?lang=en", want: true},
		{name: "path rule still applies", url: srv.URL + "/search?q=x", want: false},
	}

	for _, tt := range tests {
		if got := g.CanFetch(ctx, tt.url); got != tt.want {
			t.Errorf("%s: CanFetch(%q) = %v, want %v", tt.name, tt.url, got, tt.want)
		}
	}
}

func TestPolitenessGateFailOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "robots not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "robots server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := NewPolitenessGate(srv.Client(), "pagebound-test/1.0", 0)
			if !g.CanFetch(context.Background(), srv.URL+"/anything") {
				t.Error("CanFetch() = false when robots.txt is unavailable, want fail-open")
			}
		})
	}
}

func TestPolitenessGateRobotsFetchedOncePerOriginConcurrently(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			time.Sleep(20 * time.Millisecond)
			fmt.Fprint(w, "User-agent: *\nAllow: /\n")
		}
	}))
	defer srv.Close()

	g := NewPolitenessGate(srv.Client(), "pagebound-test/1.0", 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			g.CanFetch(context.Background(), fmt.Sprintf("%s/page/%d", srv.URL, n))
		}(i)
	}
	wg.Wait()

	if got := robotsHits.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times under concurrency, want 1", got)
	}
}

func TestPolitenessGateWaitSpacesRequests(t *testing.T) {
	t.Parallel()

	const delay = 80 * time.Millisecond
	g := NewPolitenessGate(nil, "pagebound-test/1.0", delay)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := g.Wait(ctx, "https://example.com/page"); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	elapsed := time.Since(start)

	// First request is immediate, the next two wait one interval each.
	if elapsed < 2*delay {
		t.Errorf("3 sequential waits took %v, want at least %v", elapsed, 2*delay)
	}
}

func TestPolitenessGateWaitIndependentPerDomain(t *testing.T) {
	t.Parallel()

	g := NewPolitenessGate(nil, "pagebound-test/1.0", 200*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := g.Wait(ctx, "https://a.example.com/"); err != nil {
		t.Fatal(err)
	}
	if err := g.Wait(ctx, "https://b.example.com/"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("waits on distinct domains took %v, want no spacing", elapsed)
	}
}

func TestPolitenessGateWaitNoTwoImmediateSlots(t *testing.T) {
	t.Parallel()

	// Two workers racing for the same domain must serialize: the slot claim
	// is atomic, so at most one wait can return without sleeping.
	const delay = 100 * time.Millisecond
	g := NewPolitenessGate(nil, "pagebound-test/1.0", delay)

	var wg sync.WaitGroup
	times := make([]time.Time, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := g.Wait(context.Background(), "https://example.com/"); err != nil {
				t.Errorf("Wait() error = %v", err)
				return
			}
			times[n] = time.Now()
		}(i)
	}
	wg.Wait()

	gap := times[0].Sub(times[1])
	if gap < 0 {
		gap = -gap
	}
	const epsilon = 10 * time.Millisecond
	if gap < delay-epsilon {
		t.Errorf("concurrent waits finished %v apart, want at least %v", gap, delay-epsilon)
	}
}

func TestPolitenessGateWaitCancellation(t *testing.T) {
	t.Parallel()

	g := NewPolitenessGate(nil, "pagebound-test/1.0", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	// Claim the immediate slot so the next wait must sleep.
	if err := g.Wait(ctx, "https://example.com/"); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := g.Wait(ctx, "https://example.com/")
	if err == nil {
		t.Fatal("Wait() error = nil after cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Wait() took %v after cancellation, want prompt return", elapsed)
	}
}

func TestPolitenessGateZeroDelay(t *testing.T) {
	t.Parallel()

	g := NewPolitenessGate(nil, "pagebound-test/1.0", 0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := g.Wait(context.Background(), "https://example.com/"); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("zero-delay waits took %v, want no blocking", elapsed)
	}
}
