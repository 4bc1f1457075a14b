// Package model defines the core data structures shared across the crawler:
// fetched page results, extracted page records, crawl sessions, and the
// end-of-crawl summary. The package has no dependencies on other internal
// packages so that every layer (crawler, database, report) can use it.
package model
