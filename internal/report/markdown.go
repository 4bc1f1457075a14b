package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/pagebound/pagebound/internal/model"
)

// MarkdownWriter outputs summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.CrawlSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeStatistics(md, summary)
	w.writeErrors(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H1("Crawl Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + summary.StartURL + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on summary state.
func (w *MarkdownWriter) getStatusText(summary *model.CrawlSummary) string {
	if summary.Interrupted {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

// writeStatistics writes the statistics section.
func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Statistics")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"URLs found", strconv.Itoa(summary.URLsFound)},
			{"Pages downloaded", strconv.Itoa(summary.PagesDownloaded)},
			{"Pages skipped", strconv.Itoa(summary.PagesSkipped)},
			{"Content extracted", strconv.Itoa(summary.ContentExtracted)},
			{"Domains crawled", strconv.Itoa(summary.DomainsCrawled)},
			{"Bytes downloaded", formatBytes(summary.BytesDownloaded)},
			{"Avg response time", summary.AvgResponseTime.String()},
			{"Pages per minute", fmt.Sprintf("%.1f", summary.PagesPerMinute())},
			{"Success rate", fmt.Sprintf("%.1f%%", summary.SuccessRate())},
		},
	})
	md.PlainText("")

	if summary.PagesDownloaded > 0 || summary.PagesSkipped > 0 || summary.TotalErrors() > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart of fetch outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.CrawlSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fetch Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.PagesDownloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(summary.PagesDownloaded))
	}
	if summary.PagesSkipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(summary.PagesSkipped))
	}
	if total := summary.TotalErrors(); total > 0 {
		chart.LabelAndIntValue("Errors", uint64(total))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeErrors writes the error breakdown section.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, summary *model.CrawlSummary) {
	md.H2("Errors")
	md.PlainText("")

	if summary.TotalErrors() == 0 {
		md.Tip("No errors occurred during the crawl.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Errors)+1)
	for _, kind := range sortedErrorKinds(summary.Errors) {
		rows = append(rows, []string{kind, strconv.Itoa(summary.Errors[kind])})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(summary.TotalErrors()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Kind", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.TotalErrors() > summary.PagesDownloaded {
		md.Warningf(
			"More errors (%d) than downloaded pages (%d); the target may be unstable or rate limiting aggressively.",
			summary.TotalErrors(), summary.PagesDownloaded,
		)
		md.PlainText("")
	}
}

// writeFooter writes the summary footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagebound](https://github.com/pagebound/pagebound)*")
}
