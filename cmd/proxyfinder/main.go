// Package main provides the entry point for the proxyfinder CLI.
//
// proxyfinder collects public proxy lists, checks every proxy concurrently
// by fetching a target URL through it, and prints the ones that work.
//
// Usage:
//
//	proxyfinder find <url>
//	proxyfinder list
//
// See --help for all available options.
package main

func main() {
	Execute()
}
