package discovery

import "errors"

var (
	// ErrNoSources is returned when a Registry has no registered sources.
	ErrNoSources = errors.New("no discovery sources registered")

	// ErrAllSourcesFailed is returned when every registered source failed.
	ErrAllSourcesFailed = errors.New("all discovery sources failed")

	// ErrUnknownSource is returned when a built-in source name is not recognized.
	ErrUnknownSource = errors.New("unknown discovery source")

	// ErrUnexpectedStatus is returned when a list URL answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when a list response exceeds the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTableNotFound is returned when an HTML listing has no proxy table.
	ErrTableNotFound = errors.New("proxy table not found in page")
)
