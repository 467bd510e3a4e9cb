package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
)

// SimpleWriter prints one proxy per line, "protocol://host:port", which is
// the format other tools expect from a proxy list. With show-all, failed
// proxies are printed too as "protocol://host:port -> reason".
type SimpleWriter struct {
	baseWriter

	showAll bool
	summary bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowAll prints failed proxies with their failure reason.
func WithShowAll(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showAll = show
	}
}

// WithSummary appends a short statistics block after the list.
func WithSummary(summary bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.summary = summary
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write prints the report's outcomes and, if enabled, its summary.
func (w *SimpleWriter) Write(report *RunReport) (int, error) {
	var sb strings.Builder
	w.formatOutcomes(&sb, report.Outcomes)
	if w.summary {
		w.formatSummary(&sb, report)
	}
	return io.WriteString(w.output, sb.String())
}

// WriteOutcomes prints outcomes as they arrive. Failed outcomes are skipped
// unless show-all is enabled.
func (w *SimpleWriter) WriteOutcomes(outcomes []model.ProbeOutcome) (int, error) {
	var sb strings.Builder
	w.formatOutcomes(&sb, outcomes)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) formatOutcomes(sb *strings.Builder, outcomes []model.ProbeOutcome) {
	for _, o := range outcomes {
		if !o.OK() && !w.showAll {
			continue
		}
		sb.WriteString(o.String())
		sb.WriteByte('\n')
	}
}

func (w *SimpleWriter) formatSummary(sb *strings.Builder, report *RunReport) {
	s := report.Summary

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Target:   %s\n", report.TargetURL)
	fmt.Fprintf(sb, "Checked:  %d\n", s.Total)
	fmt.Fprintf(sb, "Working:  %d (%.1f%%)\n", s.Working, s.SuccessRatePct)
	fmt.Fprintf(sb, "Failed:   %d\n", s.Failed)
	if s.Working > 0 {
		fmt.Fprintf(sb, "Latency:  avg %s, min %s, max %s\n",
			roundLatency(s.AvgLatency), roundLatency(s.MinLatency), roundLatency(s.MaxLatency))
	}
	fmt.Fprintf(sb, "Elapsed:  %s\n", s.Elapsed.Round(time.Second))
	if report.Interrupted {
		sb.WriteString("Status:   interrupted (partial results)\n")
	}
	for _, r := range s.Reasons {
		fmt.Fprintf(sb, "  %5d  %s\n", r.Count, r.Reason)
	}
	sb.WriteString(strings.Repeat("-", 60))
	sb.WriteString("\n")
}

func roundLatency(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
