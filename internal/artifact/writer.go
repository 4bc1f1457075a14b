package artifact

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pagebound/pagebound/internal/model"
)

// maxFileNameLen bounds generated file names; most filesystems cap names
// at 255 bytes and the suffixes need room.
const maxFileNameLen = 150

// Writer stores per-page artifacts under a root output directory.
// Safe for concurrent use; the name collision check and the claim of a
// name share one lock.
type Writer struct {
	root string

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewWriter creates a writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{
		root:    dir,
		claimed: make(map[string]struct{}),
	}, nil
}

// Root returns the output directory.
func (w *Writer) Root() string {
	return w.root
}

// WritePage stores the HTML body, the JSON sidecar of the extracted record
// (when present), and the .meta sidecar for one page. It returns the path
// of the HTML file.
func (w *Writer) WritePage(page *model.PageResult, body []byte, record *model.PageRecord) (string, error) {
	u, err := url.Parse(page.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse page URL: %w", err)
	}

	domainDir := filepath.Join(w.root, sanitize(u.Hostname()))
	if err := os.MkdirAll(domainDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create domain directory: %w", err)
	}

	base := w.claimName(domainDir, baseName(u))
	htmlPath := filepath.Join(domainDir, base+".html")

	if err := os.WriteFile(htmlPath, body, 0640); err != nil {
		return "", fmt.Errorf("failed to write HTML: %w", err)
	}

	if record != nil {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to serialize extracted data: %w", err)
		}
		if err := os.WriteFile(filepath.Join(domainDir, base+".json"), data, 0640); err != nil {
			return "", fmt.Errorf("failed to write JSON sidecar: %w", err)
		}
	}

	meta := fmt.Sprintf("url: %s\nstatus: %d\ncontent-type: %s\ncontent-length: %d\ndownloaded-at: %s\nresponse-time: %s\n",
		page.URL,
		page.StatusCode,
		page.ContentType,
		page.ContentLength,
		page.FetchedAt.Format("2006-01-02T15:04:05Z07:00"),
		page.ResponseTime,
	)
	if err := os.WriteFile(filepath.Join(domainDir, base+".meta"), []byte(meta), 0640); err != nil {
		return "", fmt.Errorf("failed to write meta sidecar: %w", err)
	}

	return htmlPath, nil
}

// claimName reserves a unique base name within a domain directory,
// appending _2, _3, ... when the name is already taken.
func (w *Writer) claimName(domainDir, base string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := filepath.Join(domainDir, base)
	if _, taken := w.claimed[key]; !taken {
		w.claimed[key] = struct{}{}
		return base
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		key = filepath.Join(domainDir, candidate)
		if _, taken := w.claimed[key]; !taken {
			w.claimed[key] = struct{}{}
			return candidate
		}
	}
}

// baseName derives a file base name from the URL path. The root path
// becomes "index"; other paths flatten their segments with underscores.
// A query string is folded in so distinct query variants get distinct names.
func baseName(u *url.URL) string {
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return "index"
	}

	name := sanitize(strings.ReplaceAll(path, "/", "_"))
	name = strings.TrimSuffix(name, ".html")
	name = strings.TrimSuffix(name, ".htm")

	if u.RawQuery != "" {
		name += "_" + sanitize(u.RawQuery)
	}

	if len(name) > maxFileNameLen {
		name = name[:maxFileNameLen]
	}
	if name == "" {
		return "index"
	}
	return name
}

// sanitize replaces characters unsafe in file names.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
