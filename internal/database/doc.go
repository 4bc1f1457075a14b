// Package database provides SQLite-based storage for crawl sessions.
//
// This package implements the Store, which holds:
//   - Crawl sessions with their configuration and final counters
//   - Downloaded pages with transport metadata and extracted content
//   - Fetch errors grouped by session
//   - Queue snapshots saved when a session is interrupted
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a single-process crawler
// 4. WAL mode provides good concurrent read performance
package database
