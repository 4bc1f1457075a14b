// Package main provides the entry point for the pagebound CLI.
//
// pagebound is a polite, bounded, breadth-first web crawler. It downloads
// pages starting from a seed URL, extracts their structured content, and
// records every run in a local session database.
//
// Usage:
//
//	pagebound crawl <url>
//	pagebound sessions
//	pagebound resume <session-id>
//
// See --help for all available options.
package main

// main is the entry point for pagebound.
func main() {
	Execute()
}
