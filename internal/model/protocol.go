package model

import (
	"fmt"
	"strings"
)

// Protocol is the scheme a proxy speaks.
// It is a string type so that it serializes naturally in JSON and YAML.
type Protocol string

const (
	// ProtocolHTTP is a plain HTTP forward proxy.
	ProtocolHTTP Protocol = "http"

	// ProtocolHTTPS is an HTTP proxy that supports CONNECT tunnelling for TLS targets.
	// The proxy itself is still reached over plain HTTP.
	ProtocolHTTPS Protocol = "https"

	// ProtocolSOCKS4 is a SOCKS version 4 (or 4a) proxy.
	ProtocolSOCKS4 Protocol = "socks4"

	// ProtocolSOCKS5 is a SOCKS version 5 proxy.
	ProtocolSOCKS5 Protocol = "socks5"
)

// Protocols lists every supported protocol in display order.
var Protocols = []Protocol{ProtocolHTTP, ProtocolHTTPS, ProtocolSOCKS4, ProtocolSOCKS5}

// ParseProtocol converts a case-insensitive protocol name into a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported protocols.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolSOCKS4, ProtocolSOCKS5:
		return true
	default:
		return false
	}
}

// IsSOCKS reports whether the proxy is reached through a SOCKS handshake.
func (p Protocol) IsSOCKS() bool {
	return p == ProtocolSOCKS4 || p == ProtocolSOCKS5
}

// String returns the protocol name.
func (p Protocol) String() string {
	return string(p)
}
