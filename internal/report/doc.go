// Package report renders the results of a validation run.
//
// Writers implement the Writer interface and can be composed with
// MultiWriter:
//   - SimpleWriter: one proxy per line, the format other tools consume
//   - JSONWriter: the full report for tool integration
//   - MarkdownWriter: tables, alerts and a pie chart for sharing
package report
