package crawler

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFrontierFIFOOrder(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.Enqueue("https://example.com/a", 0)
	f.Enqueue("https://example.com/b", 1)
	f.Enqueue("https://example.com/c", 1)

	want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	for _, wantURL := range want {
		entry, err := f.Dequeue(time.Second)
		if err != nil {
			t.Fatalf("Dequeue() error = %v", err)
		}
		if entry.URL != wantURL {
			t.Errorf("Dequeue() URL = %q, want %q", entry.URL, wantURL)
		}
		f.Done()
	}
}

func TestFrontierEnqueueSkipsVisited(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	if !f.TryMarkVisited("https://example.com/a") {
		t.Fatal("TryMarkVisited() = false for first caller")
	}
	f.Enqueue("https://example.com/a", 0)

	if got := f.Len(); got != 0 {
		t.Errorf("Len() = %d after enqueueing visited URL, want 0", got)
	}
}

func TestFrontierEnqueueAllowsDuplicatesUntilVisited(t *testing.T) {
	t.Parallel()

	// A URL discovered on two pages queues twice; the visited test-and-set
	// at fetch time is the dedup gate.
	f := NewFrontier()
	f.Enqueue("https://example.com/a", 1)
	f.Enqueue("https://example.com/a", 2)

	if got := f.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	if !f.TryMarkVisited("https://example.com/a") {
		t.Error("TryMarkVisited() = false for first caller")
	}
	if f.TryMarkVisited("https://example.com/a") {
		t.Error("TryMarkVisited() = true for second caller")
	}
}

func TestFrontierDequeueDrained(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	_, err := f.Dequeue(50 * time.Millisecond)
	if !errors.Is(err, ErrFrontierDrained) {
		t.Errorf("Dequeue() on empty idle frontier error = %v, want ErrFrontierDrained", err)
	}
}

func TestFrontierDequeueTimesOutWhileInflight(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.Enqueue("https://example.com/a", 0)
	if _, err := f.Dequeue(time.Second); err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}

	// The first entry is still in flight, so an empty queue is not drained.
	_, err := f.Dequeue(30 * time.Millisecond)
	if !errors.Is(err, ErrDequeueTimeout) {
		t.Errorf("Dequeue() while inflight error = %v, want ErrDequeueTimeout", err)
	}

	f.Done()
	_, err = f.Dequeue(30 * time.Millisecond)
	if !errors.Is(err, ErrFrontierDrained) {
		t.Errorf("Dequeue() after Done error = %v, want ErrFrontierDrained", err)
	}
}

func TestFrontierDoneWakesBlockedWorker(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.Enqueue("https://example.com/a", 0)
	if _, err := f.Dequeue(time.Second); err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.Dequeue(5 * time.Second)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	f.Done()

	select {
	case err := <-done:
		if !errors.Is(err, ErrFrontierDrained) {
			t.Errorf("blocked Dequeue() error = %v, want ErrFrontierDrained", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue() did not return after Done()")
	}
}

func TestFrontierClose(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.Enqueue("https://example.com/a", 0)
	f.Close()

	if _, err := f.Dequeue(time.Second); !errors.Is(err, ErrFrontierClosed) {
		t.Errorf("Dequeue() after Close error = %v, want ErrFrontierClosed", err)
	}

	// Queued entries survive Close for resume persistence.
	pending := f.Pending()
	if len(pending) != 1 || pending[0].URL != "https://example.com/a" {
		t.Errorf("Pending() = %v, want the queued entry", pending)
	}
}

func TestFrontierSeedVisited(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.SeedVisited([]string{"https://example.com/a", "https://example.com/b"})

	if got := f.VisitedCount(); got != 2 {
		t.Errorf("VisitedCount() = %d, want 2", got)
	}
	if f.TryMarkVisited("https://example.com/a") {
		t.Error("TryMarkVisited() = true for pre-seeded URL")
	}
}

func TestFrontierConcurrentVisitedExactlyOnce(t *testing.T) {
	t.Parallel()

	f := NewFrontier()

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- f.TryMarkVisited("https://example.com/contested")
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	if won != 1 {
		t.Errorf("TryMarkVisited() won by %d goroutines, want exactly 1", won)
	}
}
