package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

// SOCKS4 protocol constants.
const (
	socks4Version    = 0x04
	socks4CmdConnect = 0x01
	socks4Granted    = 0x5A
)

// SOCKS4 handshake errors.
var (
	errSOCKS4Rejected = errors.New("socks4: request rejected or failed")
	errSOCKS4BadReply = errors.New("socks4: malformed reply")
	errSOCKS4IPv6     = errors.New("socks4: IPv6 destinations are not supported")
	errSOCKS4NoIPv4   = errors.New("socks4: destination has no IPv4 address")
	errSOCKS4Network  = errors.New("socks4: only tcp is supported")
)

var registerSOCKS4Once sync.Once

// registerSOCKS4 makes proxy.FromURL understand socks4:// and socks4a:// URLs.
func registerSOCKS4() {
	registerSOCKS4Once.Do(func() {
		proxy.RegisterDialerType("socks4", newSOCKS4Dialer)
		proxy.RegisterDialerType("socks4a", newSOCKS4Dialer)
	})
}

// socks4Dialer connects through a SOCKS4 or SOCKS4a server.
// With SOCKS4 the destination host is resolved locally; with SOCKS4a
// hostnames are passed to the server.
type socks4Dialer struct {
	proxyAddr string
	userID    string
	remoteDNS bool
	forward   proxy.Dialer
}

// newSOCKS4Dialer matches the signature expected by proxy.RegisterDialerType.
func newSOCKS4Dialer(u *url.URL, forward proxy.Dialer) (proxy.Dialer, error) {
	d := &socks4Dialer{
		proxyAddr: u.Host,
		remoteDNS: u.Scheme == "socks4a",
		forward:   forward,
	}
	if u.User != nil {
		d.userID = u.User.Username()
	}
	return d, nil
}

// Dial implements proxy.Dialer.
func (d *socks4Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.DialContext(context.Background(), network, addr)
}

// DialContext implements proxy.ContextDialer.
func (d *socks4Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, errSOCKS4Network
	}

	req, err := d.buildRequest(ctx, addr)
	if err != nil {
		return nil, err
	}

	conn, err := dialForward(ctx, d.forward, "tcp", d.proxyAddr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := d.handshake(ctx, conn, req); err != nil {
		_ = conn.Close()
		return nil, &net.OpError{Op: "socks4 connect", Net: network, Addr: proxyAddr(d.proxyAddr), Err: err}
	}

	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

// buildRequest encodes the CONNECT request for addr.
func (d *socks4Dialer) buildRequest(ctx context.Context, addr string) ([]byte, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("socks4: invalid port %q: %w", portStr, err)
	}

	var ip net.IP
	var hostname string

	if parsed := net.ParseIP(host); parsed != nil {
		if ip = parsed.To4(); ip == nil {
			return nil, errSOCKS4IPv6
		}
	} else if d.remoteDNS {
		ip = net.IPv4(0, 0, 0, 1).To4()
		hostname = host
	} else {
		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if v4 := a.IP.To4(); v4 != nil {
				ip = v4
				break
			}
		}
		if ip == nil {
			return nil, errSOCKS4NoIPv4
		}
	}

	req := make([]byte, 0, 9+len(d.userID)+len(hostname)+1)
	req = append(req, socks4Version, socks4CmdConnect, byte(port>>8), byte(port))
	req = append(req, ip...)
	req = append(req, d.userID...)
	req = append(req, 0x00)
	if hostname != "" {
		req = append(req, hostname...)
		req = append(req, 0x00)
	}
	return req, nil
}

// handshake sends req and validates the 8 byte reply.
func (d *socks4Dialer) handshake(ctx context.Context, conn net.Conn, req []byte) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.Write(req); err != nil {
		return contextOr(ctx, err)
	}

	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return contextOr(ctx, err)
	}
	if reply[0] != 0x00 && reply[0] != socks4Version {
		return errSOCKS4BadReply
	}
	if reply[1] != socks4Granted {
		return fmt.Errorf("%w: code 0x%02x", errSOCKS4Rejected, reply[1])
	}
	return nil
}

// contextOr prefers the context error so that deadline expiry is reported as a timeout.
func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// dialForward dials through forward, using its context-aware method when available.
func dialForward(ctx context.Context, forward proxy.Dialer, network, addr string) (net.Conn, error) {
	if forward == nil {
		forward = proxy.Direct
	}
	if cd, ok := forward.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}
	return forward.Dial(network, addr)
}

// proxyAddr is a net.Addr for error reporting.
type proxyAddr string

func (a proxyAddr) Network() string { return "tcp" }
func (a proxyAddr) String() string  { return string(a) }
