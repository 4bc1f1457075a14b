package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pagebound/pagebound/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a crawl.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.CrawlSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounts(&sb, summary)
	w.writeErrors(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:      %s\n", summary.StartURL))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", summary.Duration.Round(10*time.Millisecond)))

	if summary.Interrupted {
		sb.WriteString("Status:         INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeCounts writes the statistics section.
func (w *SimpleWriter) writeCounts(sb *strings.Builder, summary *model.CrawlSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  URLs found:         %d\n", summary.URLsFound))
	sb.WriteString(fmt.Sprintf("  Pages downloaded:   %d\n", summary.PagesDownloaded))
	sb.WriteString(fmt.Sprintf("  Pages skipped:      %d\n", summary.PagesSkipped))
	sb.WriteString(fmt.Sprintf("  Content extracted:  %d\n", summary.ContentExtracted))
	sb.WriteString(fmt.Sprintf("  Domains crawled:    %d\n", summary.DomainsCrawled))
	sb.WriteString(fmt.Sprintf("  Bytes downloaded:   %s\n", formatBytes(summary.BytesDownloaded)))
	sb.WriteString(fmt.Sprintf("  Avg response time:  %s\n", summary.AvgResponseTime.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("  Pages per minute:   %.1f\n", summary.PagesPerMinute()))
	sb.WriteString(fmt.Sprintf("  Success rate:       %.1f%%\n", summary.SuccessRate()))
	sb.WriteString("\n")
}

// writeErrors writes the error breakdown section.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, summary *model.CrawlSummary) {
	if summary.TotalErrors() == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if summary.TotalErrors() == 0 {
		sb.WriteString("  No errors\n")
	} else {
		for _, kind := range sortedErrorKinds(summary.Errors) {
			sb.WriteString(fmt.Sprintf("  %-22s %d\n", kind+":", summary.Errors[kind]))
		}
		sb.WriteString(fmt.Sprintf("  %-22s %d\n", "total:", summary.TotalErrors()))
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// sortedErrorKinds returns error kinds in a stable order, largest count
// first, ties broken alphabetically.
func sortedErrorKinds(errors map[string]int) []string {
	kinds := make([]string, 0, len(errors))
	for kind := range errors {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if errors[kinds[i]] != errors[kinds[j]] {
			return errors[kinds[i]] > errors[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

// formatBytes renders a byte count in human-readable units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
