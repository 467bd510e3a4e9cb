package report

import (
	"io"
	"time"

	"github.com/nao1215/proxyfinder/internal/model"
)

// RunReport is everything known about one validation run.
type RunReport struct {
	// Version is the proxyfinder version that produced the report.
	Version string `json:"version"`

	// TargetURL is the URL fetched through every proxy.
	TargetURL string `json:"target_url"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Interrupted is true when the run was stopped before every candidate
	// was checked.
	Interrupted bool `json:"interrupted,omitempty"`

	// Summary aggregates Outcomes.
	Summary model.Summary `json:"summary"`

	// Outcomes are all collected results in drain order.
	Outcomes []model.ProbeOutcome `json:"outcomes"`
}

// NewRunReport builds a RunReport and its summary.
func NewRunReport(version, targetURL string, outcomes []model.ProbeOutcome, elapsed time.Duration, interrupted bool) *RunReport {
	if outcomes == nil {
		outcomes = []model.ProbeOutcome{}
	}
	return &RunReport{
		Version:     version,
		TargetURL:   targetURL,
		GeneratedAt: time.Now(),
		Interrupted: interrupted,
		Summary:     model.Summarize(outcomes, elapsed),
		Outcomes:    outcomes,
	}
}

// Working returns the outcomes whose proxy works.
func (r *RunReport) Working() []model.ProbeOutcome {
	return model.Working(r.Outcomes)
}

// Writer renders a RunReport.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in order and stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(report *RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
