// Package tor lets proxyfinder download proxy listings over Tor.
//
// EmbeddedTor starts a private daemon through tornago; CheckSOCKS5 verifies
// an externally managed Tor SOCKS port before it is used. Only discovery
// traffic goes through Tor. Candidate proxies are always probed directly,
// since a proxy that only works through Tor is of no use to the caller.
package tor
