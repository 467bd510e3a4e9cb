package model

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Candidate is a proxy endpoint obtained from a discovery source.
// Candidates are values: they are never mutated after creation.
// Two candidates with the same Host are considered duplicates regardless
// of port or protocol.
type Candidate struct {
	// Protocol is the scheme used to talk to the proxy.
	Protocol Protocol `json:"protocol" yaml:"protocol"`

	// Host is the proxy's IP address or hostname.
	Host string `json:"host" yaml:"host"`

	// Port is the proxy's TCP port, 1-65535.
	Port int `json:"port" yaml:"port"`
}

// NewCandidate builds a validated Candidate.
func NewCandidate(protocol Protocol, host string, port int) (Candidate, error) {
	c := Candidate{Protocol: protocol, Host: host, Port: port}
	if err := c.Validate(); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// ParseCandidate parses a proxy in either "host:port" or
// "protocol://host:port" form. When the input has no scheme,
// defaultProtocol is used.
func ParseCandidate(s string, defaultProtocol Protocol) (Candidate, error) {
	s = strings.TrimSpace(s)
	protocol := defaultProtocol

	if idx := strings.Index(s, "://"); idx >= 0 {
		p, err := ParseProtocol(s[:idx])
		if err != nil {
			return Candidate{}, err
		}
		protocol = p
		s = s[idx+3:]
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %q", ErrInvalidHost, s)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %q", ErrInvalidPort, portStr)
	}

	return NewCandidate(protocol, host, port)
}

// Validate checks that the candidate has a known protocol, a host and a port in range.
func (c Candidate) Validate() error {
	if !c.Protocol.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownProtocol, c.Protocol)
	}
	if strings.TrimSpace(c.Host) == "" {
		return ErrInvalidHost
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	return nil
}

// Address returns the "host:port" dial address of the proxy.
func (c Candidate) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// URL returns the proxy as a URL, e.g. socks5://1.2.3.4:1080.
func (c Candidate) URL() *url.URL {
	return &url.URL{Scheme: c.Protocol.String(), Host: c.Address()}
}

// String renders the candidate as "protocol://host:port".
func (c Candidate) String() string {
	return c.Protocol.String() + "://" + c.Address()
}
