// Package extract turns raw HTML into structured page records.
//
// The extractor is a collaborator of the crawl engine: the engine hands it
// the body of every downloaded HTML page and persists whatever record comes
// back. Extraction is best-effort by contract; a failure degrades the page
// to transport-level metadata and never stops the crawl.
//
// Extraction covers the page head (title, meta description, keywords,
// author, language, publication date), the text body (cleaned text, word
// and paragraph counts, heading structure), link partitioning into internal
// and external sets, images, social platform links, and counts of semantic
// content sections located through an ordered selector table.
package extract
