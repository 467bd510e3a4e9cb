package model

import (
	"fmt"
	"net/http"
	"time"
)

// Failure reasons recorded in ProbeOutcome.Error.
// These strings are user facing and stable; reports group outcomes by them.
const (
	ReasonConnectTimeout   = "Request timed out while trying to connect"
	ReasonReadTimeout      = "Server did not send any data"
	ReasonTooManyRedirects = "Too many redirects"
	ReasonInvalidURL       = "Invalid URL"
	ReasonHTTPError        = "HTTP error occurred"
	ReasonConnectionError  = "Connection error"
	ReasonGenericError     = "Generic error"
)

// StatusReason returns the failure reason for a non-200 response,
// e.g. "Error 404: Not Found". Unregistered codes use "Unknown".
func StatusReason(code int) string {
	text := http.StatusText(code)
	if text == "" {
		text = "Unknown"
	}
	return fmt.Sprintf("Error %d: %s", code, text)
}

// ProbeOutcome is the result of checking one candidate against a target URL.
// It is created once per probe attempt and never mutated afterwards.
type ProbeOutcome struct {
	// Candidate is the proxy that was checked.
	Candidate Candidate `json:"candidate"`

	// Error is empty when the proxy fetched the target with status 200.
	// Otherwise it holds one of the Reason constants or a StatusReason string.
	Error string `json:"error,omitempty"`

	// StatusCode is the HTTP status returned through the proxy, or 0 when
	// no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Latency is the time from sending the request to receiving response headers.
	// Zero when no response was received.
	Latency time.Duration `json:"latency"`

	// CheckedAt is when the probe finished.
	CheckedAt time.Time `json:"checked_at"`
}

// OK reports whether the proxy works.
func (o ProbeOutcome) OK() bool {
	return o.Error == ""
}

// String renders the outcome the way the CLI prints it:
// "protocol://host:port" for working proxies and
// "protocol://host:port -> reason" for failures.
func (o ProbeOutcome) String() string {
	if o.OK() {
		return o.Candidate.String()
	}
	return o.Candidate.String() + " -> " + o.Error
}
