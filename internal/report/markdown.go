package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/proxyfinder/internal/model"
)

// lowSuccessRatePct is the success rate under which the report warns that
// the target may be blocking proxies.
const lowSuccessRatePct = 5.0

// MarkdownWriter outputs reports as GitHub Flavored Markdown with tables,
// alerts and a mermaid pie chart of outcomes.
type MarkdownWriter struct {
	baseWriter

	showAll bool
	upper   cases.Caser
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithFailedTable adds a table of failed proxies and their reasons.
func WithFailedTable(show bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.showAll = show
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		upper:      cases.Upper(language.Und),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeProtocols(md, report)
	w.writeWorking(md, report)
	if w.showAll {
		w.writeFailed(md, report)
	}
	w.writeFooter(md, report)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *RunReport) {
	md.H1("Proxy Validation Report")
	md.PlainText("")

	status := "✅ Complete"
	if report.Interrupted {
		status = "⚠️ Interrupted (partial results)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target URL", "`" + report.TargetURL + "`"},
			{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", formatDuration(report.Summary.Elapsed)},
			{"Status", status},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *RunReport) {
	s := report.Summary

	md.H2("Summary")
	md.PlainText("")

	rows := [][]string{
		{"Checked", strconv.Itoa(s.Total)},
		{"✅ Working", strconv.Itoa(s.Working)},
		{"❌ Failed", strconv.Itoa(s.Failed)},
		{"Success Rate", fmt.Sprintf("%.1f%%", s.SuccessRatePct)},
	}
	if s.Working > 0 {
		rows = append(rows,
			[]string{"Average Latency", formatLatency(s.AvgLatency)},
			[]string{"Fastest", formatLatency(s.MinLatency)},
			[]string{"Slowest", formatLatency(s.MaxLatency)},
		)
	}
	md.Table(markdown.TableSet{Header: []string{"Metric", "Value"}, Rows: rows})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, report)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Probe Outcomes"),
		piechart.WithShowData(true),
	)

	if s.Working > 0 {
		chart.LabelAndIntValue("Working", uint64(s.Working)) //nolint:gosec // count is never negative
	}
	for _, r := range s.Reasons {
		chart.LabelAndIntValue(r.Reason, uint64(r.Count)) //nolint:gosec // count is never negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *RunReport) {
	s := report.Summary
	switch {
	case s.Total == 0:
		md.Note("No candidates were checked.")
	case s.Working == 0:
		md.Cautionf("None of the %d checked proxies could fetch the target.", s.Total)
	case s.SuccessRatePct < lowSuccessRatePct:
		md.Warningf("Only %.1f%% of proxies work. The target may be blocking proxy traffic.", s.SuccessRatePct)
	case report.Interrupted:
		md.Importantf("The run was interrupted. %d working proxies were found before it stopped.", s.Working)
	default:
		md.Tip(fmt.Sprintf("%d working proxies found.", s.Working))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeProtocols(md *markdown.Markdown, report *RunReport) {
	if len(report.Summary.ByProtocol) == 0 {
		return
	}

	md.H2("By Protocol")
	md.PlainText("")

	var rows [][]string
	for _, p := range model.Protocols {
		ps, ok := report.Summary.ByProtocol[p]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			w.upper.String(p.String()),
			strconv.Itoa(ps.Total),
			strconv.Itoa(ps.Working),
		})
	}
	md.Table(markdown.TableSet{Header: []string{"Protocol", "Checked", "Working"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeWorking(md *markdown.Markdown, report *RunReport) {
	md.H2("Working Proxies")
	md.PlainText("")

	working := report.Working()
	if len(working) == 0 {
		md.PlainText("No working proxies found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(working))
	for i, o := range working {
		rows[i] = []string{
			"`" + o.Candidate.String() + "`",
			w.upper.String(o.Candidate.Protocol.String()),
			formatLatency(o.Latency),
		}
	}
	md.Table(markdown.TableSet{Header: []string{"Proxy", "Protocol", "Latency"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailed(md *markdown.Markdown, report *RunReport) {
	var rows [][]string
	for _, o := range report.Outcomes {
		if o.OK() {
			continue
		}
		rows = append(rows, []string{"`" + o.Candidate.String() + "`", o.Error})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Failed Proxies")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Proxy", "Reason"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, report *RunReport) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [proxyfinder %s](https://github.com/nao1215/proxyfinder)*", report.Version)
}
