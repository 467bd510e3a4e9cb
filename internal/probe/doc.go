// Package probe checks a single proxy by fetching a target URL through it.
//
// HTTPProber builds a fresh http.Transport per check that routes the
// request through the candidate. HTTP and HTTPS proxies use the
// transport's Proxy hook; SOCKS4 and SOCKS5 proxies replace the
// transport's dialer with one from golang.org/x/net/proxy. SOCKS4 and
// SOCKS4a are not provided by x/net, so this package registers its own
// dialer for the socks4 and socks4a URL schemes.
//
// Every failure is reduced to one of the fixed reason strings in the
// model package. A probe never returns a Go error: a dead proxy is an
// ordinary result.
package probe
