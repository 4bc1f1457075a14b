package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// skipExtensions lists path suffixes that never contain crawlable HTML.
// Grouped as media, documents, archives, and code/asset files.
var skipExtensions = []string{
	// Media
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp",
	".mp3", ".mp4", ".avi", ".mov", ".wmv", ".flv", ".mkv",
	".wav", ".flac", ".ogg", ".m4a", ".aac",
	// Documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".rtf", ".odt", ".ods", ".odp",
	// Archives
	".zip", ".rar", ".tar", ".gz", ".7z", ".bz2", ".xz",
	// Code and assets
	".css", ".js", ".json", ".xml", ".ico", ".woff", ".woff2",
	".ttf", ".eot", ".map", ".min.js", ".min.css",
}

// skipQueryParams are parameter names that mark search or dynamically
// generated endpoints. Crawling them tends to trap the crawler in
// unbounded result listings.
var skipQueryParams = map[string]struct{}{
	"search": {}, "q": {}, "query": {}, "id": {}, "page": {},
	"offset": {}, "limit": {}, "sort": {}, "filter": {},
	"ajax": {}, "json": {}, "xml": {}, "api": {},
}

// NormalizeURL brings a URL into canonical form so equivalent spellings
// collapse to one frontier entry: scheme and host are lowercased, the
// fragment is stripped, and an empty path becomes "/". Normalization is
// idempotent.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// Admission decides whether a discovered link may enter the frontier.
// The zero value admits every http(s) URL that passes the extension and
// query filters; a domain allowlist narrows it further.
type Admission struct {
	// allowedDomains, when non-empty, restricts crawling to these hosts
	// and their subdomains. Entries are stored lowercased.
	allowedDomains []string
}

// NewAdmission creates an admission policy with an optional domain
// allowlist. An empty list allows all domains.
func NewAdmission(allowedDomains []string) *Admission {
	allowed := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			allowed = append(allowed, d)
		}
	}
	return &Admission{allowedDomains: allowed}
}

// Admit reports whether a normalized URL is eligible for the frontier.
func (a *Admission) Admit(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if len(a.allowedDomains) > 0 && !a.domainAllowed(u.Hostname()) {
		return false
	}

	pathLower := strings.ToLower(u.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(pathLower, ext) {
			return false
		}
	}

	if u.RawQuery != "" {
		for name := range u.Query() {
			if _, skip := skipQueryParams[strings.ToLower(name)]; skip {
				return false
			}
		}
	}

	return true
}

// domainAllowed matches the host exactly or as a subdomain of an allowed
// domain ("docs.example.com" matches "example.com").
func (a *Admission) domainAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range a.allowedDomains {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
