// Package database provides SQLite-based storage for proxyfinder.
//
// CandidateCache keeps the most recent listing of each discovery source
// so repeated runs within the cache TTL skip the network, and so a source
// that is temporarily down can still be served from its last listing.
//
// The database is a single file (modernc.org/sqlite, no CGO) inside the
// XDG data directory.
package database
