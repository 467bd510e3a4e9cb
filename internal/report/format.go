package report

import (
	"fmt"
	"time"
)

// formatLatency renders latencies in milliseconds, e.g. "312 ms".
func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%d ms", d.Milliseconds())
}

// formatDuration renders a run duration rounded to the second.
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
