package model

import "time"

// PageResult describes a single successfully fetched page as seen by the
// crawl engine. It carries only transport-level facts; structured content
// lives in PageRecord.
type PageResult struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the value of the Content-Type response header.
	ContentType string `json:"content_type"`

	// ContentLength is the number of body bytes read.
	ContentLength int64 `json:"content_length"`

	// ResponseTime is how long the fetch took, including retries.
	ResponseTime time.Duration `json:"response_time"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`

	// Title is the page title, filled in after extraction when available.
	Title string `json:"title,omitempty"`
}

// Link is a hyperlink discovered during content extraction.
type Link struct {
	// URL is the absolute link target.
	URL string `json:"url"`

	// Text is the anchor text, trimmed.
	Text string `json:"text"`

	// Title is the title attribute, if any.
	Title string `json:"title,omitempty"`
}

// Image describes an image reference found on a page.
type Image struct {
	// URL is the absolute image source.
	URL string `json:"url"`

	// Alt is the alt attribute, if any.
	Alt string `json:"alt,omitempty"`

	// Title is the title attribute, if any.
	Title string `json:"title,omitempty"`

	// Width and Height are the declared dimensions, kept as strings
	// because pages declare them inconsistently ("100", "100px", "50%").
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// Extraction limits. Pages routinely carry hundreds of links and dozens of
// images; storing all of them bloats the database and sidecar files without
// adding analytical value.
const (
	// MaxRecordLinks caps internal and external link lists, each.
	MaxRecordLinks = 50

	// MaxRecordImages caps the image list.
	MaxRecordImages = 20

	// MaxRecordTextLen caps the cleaned text body in characters.
	MaxRecordTextLen = 5000
)

// PageRecord is the structured content extracted from one HTML page.
// It is produced by the extractor collaborator and persisted alongside the
// raw HTML; the crawl engine treats it as opaque.
type PageRecord struct {
	// URL is the page the record was extracted from.
	URL string `json:"url"`

	// ExtractedAt is when extraction ran.
	ExtractedAt time.Time `json:"extracted_at"`

	// Title is the page title, falling back to the first h1.
	Title string `json:"title"`

	// Description comes from the meta description, the OpenGraph
	// description, or the first paragraph, in that order.
	Description string `json:"description"`

	// Keywords is the parsed meta keywords list.
	Keywords []string `json:"keywords,omitempty"`

	// Language is the canonicalized value of the html lang attribute,
	// or "unknown".
	Language string `json:"language"`

	// Author is the meta author or a common byline selector match.
	Author string `json:"author"`

	// PublishedAt is the raw publication date string, if one was found.
	PublishedAt string `json:"publication_date,omitempty"`

	// WordCount counts whitespace-separated words outside script/style.
	WordCount int `json:"word_count"`

	// ParagraphCount is the number of <p> elements.
	ParagraphCount int `json:"paragraph_count"`

	// Headings maps "h1".."h6" to the heading texts present on the page.
	Headings map[string][]string `json:"heading_structure,omitempty"`

	// Text is the cleaned text body, truncated to MaxRecordTextLen.
	Text string `json:"text_content"`

	// InternalLinks and ExternalLinks are capped at MaxRecordLinks each.
	InternalLinks []Link `json:"internal_links,omitempty"`
	ExternalLinks []Link `json:"external_links,omitempty"`

	// Images is capped at MaxRecordImages.
	Images []Image `json:"images,omitempty"`

	// SocialLinks are links pointing at well-known social platforms.
	SocialLinks []string `json:"social_media_links,omitempty"`

	// MetaTags maps meta name/property to content.
	MetaTags map[string]string `json:"meta_tags,omitempty"`

	// PageSize is the raw HTML size in bytes.
	PageSize int `json:"page_size_bytes"`

	// ContentSections counts matches for each semantic section of the
	// selector table (article, navigation, sidebar, footer, header).
	ContentSections map[string]int `json:"content_sections,omitempty"`
}
