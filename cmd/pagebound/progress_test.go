package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/pagebound/pagebound/internal/crawler"
	"github.com/pagebound/pagebound/internal/model"
)

// TestProgressPrinter tests progress line output.
func TestProgressPrinter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := newProgressPrinter(&buf, 50)

	p.PageDownloaded(&model.PageResult{
		URL:           "https://example.com/",
		StatusCode:    200,
		ContentLength: 2048,
	})
	p.PageDownloaded(&model.PageResult{
		URL:           "https://example.com/about",
		StatusCode:    200,
		ContentLength: 100,
	})
	p.PageFailed("https://example.com/broken", crawler.ErrKindTimeout, errors.New("deadline exceeded"))
	p.Complete(&model.CrawlSummary{})

	output := buf.String()
	if !strings.Contains(output, "[1/50] https://example.com/ (200, 2.0KB)") {
		t.Errorf("missing first progress line: %q", output)
	}
	if !strings.Contains(output, "[2/50] https://example.com/about (200, 100B)") {
		t.Errorf("missing second progress line: %q", output)
	}
	if !strings.Contains(output, "! https://example.com/broken: timeout") {
		t.Errorf("missing failure line: %q", output)
	}
}

// TestFormatSize tests compact byte formatting.
func TestFormatSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int64
		want string
	}{
		{n: 0, want: "0B"},
		{n: 512, want: "512B"},
		{n: 1536, want: "1.5KB"},
		{n: 3 * 1024 * 1024, want: "3.0MB"},
	}

	for _, tt := range tests {
		if got := formatSize(tt.n); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
