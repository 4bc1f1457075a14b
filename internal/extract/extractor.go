package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/language"

	"github.com/pagebound/pagebound/internal/model"
)

// sectionSelectors maps each semantic section to an ordered list of
// selectors tried in turn. Pages that use semantic HTML match the first
// entry; older markup falls through to the class and id based ones.
var sectionSelectors = map[string][]string{
	"article":    {"article", "main", `[role="main"]`, ".content", ".post", ".entry", "#content", "#main"},
	"navigation": {"nav", `[role="navigation"]`, ".nav", ".navbar", ".menu", "#nav", "#menu"},
	"sidebar":    {"aside", `[role="complementary"]`, ".sidebar", ".side", "#sidebar"},
	"footer":     {"footer", `[role="contentinfo"]`, ".footer", "#footer"},
	"header":     {"header", `[role="banner"]`, ".header", ".masthead", "#header"},
}

// socialHosts identifies links to well-known social platforms. Matching is
// by host suffix so country and www variants count too.
var socialHosts = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com",
	"linkedin.com", "youtube.com", "tiktok.com", "pinterest.com",
	"reddit.com", "threads.net", "mastodon.social", "bsky.app",
}

// bylineSelectors are tried for the author when no meta tag declares one.
var bylineSelectors = []string{
	`[rel="author"]`, ".author", ".byline", ".by-line", ".post-author",
}

// dateSelectors locate a publication date in the markup when no meta tag
// declares one.
var dateSelectors = []string{
	"time[datetime]", `[itemprop="datePublished"]`, ".published", ".post-date", ".date",
}

// Extractor parses HTML documents into model.PageRecord values. The zero
// configuration is complete; options exist mainly for tests.
type Extractor struct {
	maxTextLen int
	maxLinks   int
	maxImages  int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxTextLen overrides the cleaned text cap.
func WithMaxTextLen(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxTextLen = n
		}
	}
}

// WithMaxLinks overrides the per-list link cap.
func WithMaxLinks(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLinks = n
		}
	}
}

// WithMaxImages overrides the image cap.
func WithMaxImages(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxImages = n
		}
	}
}

// New creates an extractor with the default caps.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		maxTextLen: model.MaxRecordTextLen,
		maxLinks:   model.MaxRecordLinks,
		maxImages:  model.MaxRecordImages,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses the HTML body and returns the structured record for the
// page at pageURL.
func (e *Extractor) Extract(body []byte, pageURL string) (*model.PageRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page URL: %w", err)
	}

	meta := collectMetaTags(doc)

	record := &model.PageRecord{
		URL:         pageURL,
		ExtractedAt: time.Now(),
		Title:       extractTitle(doc),
		Description: extractDescription(doc, meta),
		Keywords:    splitKeywords(meta["keywords"]),
		Language:    canonicalLanguage(doc),
		Author:      extractAuthor(doc, meta),
		PublishedAt: extractPublishedAt(doc, meta),
		Headings:    extractHeadings(doc),
		MetaTags:    meta,
		PageSize:    len(body),
	}

	text := cleanedText(doc)
	record.WordCount = len(strings.Fields(text))
	record.ParagraphCount = doc.Find("p").Length()
	record.Text = truncate(text, e.maxTextLen)

	e.extractLinks(doc, base, record)
	e.extractImages(doc, base, record)
	record.ContentSections = countSections(doc)

	return record, nil
}

// extractTitle returns the <title> text, falling back to the first h1.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractDescription prefers the meta description, then the OpenGraph one,
// then the first non-empty paragraph.
func extractDescription(doc *goquery.Document, meta map[string]string) string {
	if d := strings.TrimSpace(meta["description"]); d != "" {
		return d
	}
	if d := strings.TrimSpace(meta["og:description"]); d != "" {
		return d
	}

	var first string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			first = text
			return false
		}
		return true
	})
	return truncate(first, 300)
}

// canonicalLanguage parses the html lang attribute into its canonical BCP 47
// form. Unparseable or missing values become "unknown".
func canonicalLanguage(doc *goquery.Document) string {
	lang, ok := doc.Find("html").First().Attr("lang")
	if !ok || strings.TrimSpace(lang) == "" {
		return "unknown"
	}

	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return "unknown"
	}
	return tag.String()
}

// extractAuthor checks meta tags first, then the common byline selectors.
func extractAuthor(doc *goquery.Document, meta map[string]string) string {
	for _, key := range []string{"author", "article:author", "og:author"} {
		if a := strings.TrimSpace(meta[key]); a != "" {
			return a
		}
	}
	for _, sel := range bylineSelectors {
		if a := strings.TrimSpace(doc.Find(sel).First().Text()); a != "" {
			return a
		}
	}
	return ""
}

// extractPublishedAt returns the raw publication date string from meta tags
// or date markup. No parsing is attempted; sites declare dates in too many
// formats to normalize reliably.
func extractPublishedAt(doc *goquery.Document, meta map[string]string) string {
	for _, key := range []string{"article:published_time", "date", "publish-date", "publication_date"} {
		if d := strings.TrimSpace(meta[key]); d != "" {
			return d
		}
	}
	for _, sel := range dateSelectors {
		node := doc.Find(sel).First()
		if dt, ok := node.Attr("datetime"); ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if d := strings.TrimSpace(node.Text()); d != "" {
			return d
		}
	}
	return ""
}

// extractHeadings collects h1..h6 texts grouped by level.
func extractHeadings(doc *goquery.Document) map[string][]string {
	headings := make(map[string][]string)
	for _, level := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		doc.Find(level).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				headings[level] = append(headings[level], text)
			}
		})
	}
	if len(headings) == 0 {
		return nil
	}
	return headings
}

// collectMetaTags gathers meta name/property values into one map.
func collectMetaTags(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		if name, ok := s.Attr("name"); ok && name != "" {
			meta[strings.ToLower(name)] = content
		} else if prop, ok := s.Attr("property"); ok && prop != "" {
			meta[strings.ToLower(prop)] = content
		}
	})
	return meta
}

// cleanedText returns the visible body text with scripts, styles, and
// whitespace runs removed.
func cleanedText(doc *goquery.Document) string {
	clone := doc.Find("body").Clone()
	clone.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(clone.Text()), " ")
}

// extractLinks partitions anchors into internal and external lists, capped
// and deduplicated by target URL.
func (e *Extractor) extractLinks(doc *goquery.Document, base *url.URL, record *model.PageRecord) {
	seen := make(map[string]struct{})
	var social []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved := resolveRef(base, href)
		if resolved == nil {
			return
		}

		target := resolved.String()
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}

		link := model.Link{
			URL:  target,
			Text: strings.TrimSpace(s.Text()),
		}
		if title, ok := s.Attr("title"); ok {
			link.Title = strings.TrimSpace(title)
		}

		if isSocialHost(resolved.Hostname()) {
			social = append(social, target)
		}

		if strings.EqualFold(resolved.Hostname(), base.Hostname()) {
			if len(record.InternalLinks) < e.maxLinks {
				record.InternalLinks = append(record.InternalLinks, link)
			}
		} else if len(record.ExternalLinks) < e.maxLinks {
			record.ExternalLinks = append(record.ExternalLinks, link)
		}
	})

	record.SocialLinks = social
}

// extractImages collects img elements with their declared attributes,
// capped and deduplicated by source URL.
func (e *Extractor) extractImages(doc *goquery.Document, base *url.URL, record *model.PageRecord) {
	seen := make(map[string]struct{})

	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		resolved := resolveRef(base, src)
		if resolved == nil {
			return true
		}

		target := resolved.String()
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}

		img := model.Image{URL: target}
		if alt, ok := s.Attr("alt"); ok {
			img.Alt = strings.TrimSpace(alt)
		}
		if title, ok := s.Attr("title"); ok {
			img.Title = strings.TrimSpace(title)
		}
		img.Width, _ = s.Attr("width")
		img.Height, _ = s.Attr("height")

		record.Images = append(record.Images, img)
		return len(record.Images) < e.maxImages
	})
}

// countSections counts matches per semantic section. Selectors in one
// section's list are tried in order; the first that matches wins so a page
// is not double-counted for using both <nav> and .nav.
func countSections(doc *goquery.Document) map[string]int {
	counts := make(map[string]int)
	for section, selectors := range sectionSelectors {
		for _, sel := range selectors {
			if n := doc.Find(sel).Length(); n > 0 {
				counts[section] = n
				break
			}
		}
	}
	if len(counts) == 0 {
		return nil
	}
	return counts
}

// resolveRef resolves an href or src against the page URL, dropping
// pseudo-links and unparseable values.
func resolveRef(base *url.URL, ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "#" {
		return nil
	}
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(ref, prefix) {
			return nil
		}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	return resolved
}

// isSocialHost reports whether the host belongs to a known social platform.
func isSocialHost(host string) bool {
	host = strings.ToLower(host)
	for _, social := range socialHosts {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}
	return false
}

// splitKeywords parses a comma-separated meta keywords value.
func splitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var keywords []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// truncate caps a string at n characters on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
