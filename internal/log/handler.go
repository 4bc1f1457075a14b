package log

import (
	"context"
	"io"
	"log/slog"
)

// DefaultMaxValueLen is the attribute value cap applied by NewLogger.
// Long enough for any reasonable URL, short enough that a multi-kilobyte
// error chain cannot dominate the log.
const DefaultMaxValueLen = 512

// truncationMarker is appended to values that were cut.
const truncationMarker = "...[truncated]"

// TruncatingHandler wraps an slog.Handler and caps the length of every
// string attribute value. Values above the limit are cut and marked.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay free of per-attribute truncation calls
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives bounded records.
	handler slog.Handler

	// maxValueLen is the string attribute cap in bytes.
	maxValueLen int
}

// NewTruncatingHandler creates a TruncatingHandler wrapping the given
// handler. If handler is nil, slog.Default().Handler() is used; a
// non-positive maxValueLen falls back to DefaultMaxValueLen.
func NewTruncatingHandler(handler slog.Handler, maxValueLen int) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxValueLen <= 0 {
		maxValueLen = DefaultMaxValueLen
	}
	return &TruncatingHandler{handler: handler, maxValueLen: maxValueLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle bounds the record's attributes and passes it to the underlying
// handler.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	bounded := slog.NewRecord(r.Time, r.Level, truncate(r.Message, h.maxValueLen), r.PC)

	r.Attrs(func(a slog.Attr) bool {
		bounded.AddAttrs(h.boundAttr(a))
		return true
	})

	return h.handler.Handle(ctx, bounded)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are bounded before being added.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	boundedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		boundedAttrs[i] = h.boundAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(boundedAttrs), maxValueLen: h.maxValueLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxValueLen: h.maxValueLen}
}

// boundAttr bounds a single attribute, recursively handling groups.
// Errors are resolved to their message first so wrapped chains are capped
// like any other string.
func (h *TruncatingHandler) boundAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		boundedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			boundedAttrs[i] = h.boundAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(boundedAttrs...)}

	case slog.KindString:
		return slog.String(a.Key, truncate(a.Value.String(), h.maxValueLen))

	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, truncate(err.Error(), h.maxValueLen))
		}
		return a

	default:
		return a
	}
}

// truncate caps s at maxLen bytes, appending the truncation marker.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + truncationMarker
}

// NewLogger creates a new slog.Logger with bounded text output.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewTruncatingHandler(newTextHandler(w, verbose), DefaultMaxValueLen))
}

// NewJSONLogger creates a new slog.Logger with bounded JSON output.
// Useful for structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewTruncatingHandler(handler, DefaultMaxValueLen))
}

func newTextHandler(w io.Writer, verbose bool) slog.Handler {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
