// Package log provides bounded logging functionality built on top of the
// standard slog package.
//
// This package extends slog to provide:
//   - Automatic truncation of oversized attribute values (URLs, bodies,
//     wrapped error chains) so one bad page cannot flood the log
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// A crawler logs attacker-controlled data: URLs, titles, and error
// messages all come from remote pages. The TruncatingHandler caps every
// string attribute at a fixed length, keeping log lines readable and log
// volume proportional to pages crawled rather than page content.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("page downloaded",
//	    "url", pageURL, // truncated if some page emits a 2000-char URL
//	    "status", 200,
//	)
//
//	slog.SetDefault(logger)
package log
