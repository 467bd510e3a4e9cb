package config

import (
	"fmt"
	"strings"
)

// Format is a report output format.
type Format string

const (
	// FormatText prints one proxy per line.
	FormatText Format = "text"
	// FormatJSON prints the full report as JSON.
	FormatJSON Format = "json"
	// FormatMarkdown prints the full report as GitHub Flavored Markdown.
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatMarkdown}

// ParseFormat parses a format name case-insensitively. "md" is accepted
// for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatJSON, FormatMarkdown:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (f Format) String() string { return string(f) }
