package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/proxyfinder/internal/model"
)

const (
	// DefaultMaxRedirects is the number of redirects followed before a probe
	// fails with "Too many redirects".
	DefaultMaxRedirects = 30

	// DefaultUserAgent is sent with every probe request.
	DefaultUserAgent = "proxyfinder/1.0 (+https://github.com/nao1215/proxyfinder)"

	// maxDrainBytes caps how much of a response body is read before closing it.
	maxDrainBytes = 64 * 1024
)

// HTTPProber checks proxies by fetching a target URL through them.
// It is safe for concurrent use; every Probe call builds its own transport.
type HTTPProber struct {
	// dialer opens TCP connections to the proxy itself.
	dialer proxy.ContextDialer

	// maxRedirects is the redirect limit per probe.
	maxRedirects int

	// userAgent is the User-Agent header of probe requests.
	userAgent string

	// logger receives debug output for failed probes.
	logger *slog.Logger
}

// Option configures an HTTPProber.
type Option func(*HTTPProber)

// WithDialer replaces the dialer used to reach proxies.
func WithDialer(d proxy.ContextDialer) Option {
	return func(p *HTTPProber) {
		if d != nil {
			p.dialer = d
		}
	}
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) Option {
	return func(p *HTTPProber) {
		if n >= 0 {
			p.maxRedirects = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with probe requests.
func WithUserAgent(ua string) Option {
	return func(p *HTTPProber) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithLogger sets the logger for probe diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *HTTPProber) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewHTTPProber creates an HTTPProber.
func NewHTTPProber(opts ...Option) *HTTPProber {
	registerSOCKS4()

	p := &HTTPProber{
		dialer:       &net.Dialer{},
		maxRedirects: DefaultMaxRedirects,
		userAgent:    DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Probe fetches targetURL through candidate and reports the outcome.
//
// timeout bounds establishing the connection to the proxy and, separately,
// waiting for the response headers. The whole call never exceeds twice
// timeout. A nil error is never returned as a failure: the outcome's
// Error field carries the reason instead.
func (p *HTTPProber) Probe(ctx context.Context, candidate model.Candidate, targetURL string, timeout time.Duration) (outcome model.ProbeOutcome) {
	outcome.Candidate = candidate
	defer func() {
		outcome.CheckedAt = time.Now()
	}()

	if err := validateTargetURL(targetURL); err != nil {
		outcome.Error = classify(err, false)
		return outcome
	}

	var connected atomic.Bool
	transport, err := p.newTransport(candidate, timeout, &connected)
	if err != nil {
		outcome.Error = classify(err, false)
		p.logger.Debug("failed to build transport", "proxy", candidate.String(), "error", err)
		return outcome
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= p.maxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 2*timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		outcome.Error = classify(fmt.Errorf("%w: %w", errInvalidURL, err), false)
		return outcome
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		outcome.Error = classify(err, connected.Load())
		p.logger.Debug("probe failed",
			"proxy", candidate.String(),
			"reason", outcome.Error,
			"error", err,
		)
		return outcome
	}
	outcome.Latency = time.Since(start)
	outcome.StatusCode = resp.StatusCode

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)) //nolint:errcheck // body content is irrelevant
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		outcome.Error = model.StatusReason(resp.StatusCode)
	}
	return outcome
}

// newTransport builds a single-use transport that sends every request
// through candidate. connected is set once the proxy connection is up.
func (p *HTTPProber) newTransport(candidate model.Candidate, timeout time.Duration, connected *atomic.Bool) (*http.Transport, error) {
	transport := &http.Transport{
		// The outbound check must succeed against targets with any certificate.
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // proxies are judged on reachability, not on the target's certificate
		},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		DisableKeepAlives:     true,
		MaxIdleConns:          1,
	}

	if !candidate.Protocol.IsSOCKS() {
		transport.Proxy = http.ProxyURL(&url.URL{Scheme: "http", Host: candidate.Address()})
		transport.OnProxyConnectResponse = func(_ context.Context, _ *url.URL, _ *http.Request, res *http.Response) error {
			if res.StatusCode != http.StatusOK {
				return fmt.Errorf("%w: %s", errProxyRejected, res.Status)
			}
			return nil
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTracked(ctx, p.dialer, network, addr, timeout, connected)
		}
		return transport, nil
	}

	socksDialer, err := proxy.FromURL(candidate.URL(), forwardDialer{p.dialer})
	if err != nil {
		return nil, err
	}
	cd, ok := socksDialer.(proxy.ContextDialer)
	if !ok {
		cd = contextlessDialer{socksDialer}
	}
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTracked(ctx, cd, network, addr, timeout, connected)
	}
	return transport, nil
}

// dialTracked dials with a timeout and records success in connected.
func dialTracked(ctx context.Context, d proxy.ContextDialer, network, addr string, timeout time.Duration, connected *atomic.Bool) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	connected.Store(true)
	return conn, nil
}

// validateTargetURL rejects targets that are not absolute http or https URLs.
func validateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", errInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", errInvalidURL)
	}
	return nil
}

// forwardDialer adapts a proxy.ContextDialer to proxy.Dialer so it can be
// passed as the forward dialer of proxy.FromURL.
type forwardDialer struct {
	proxy.ContextDialer
}

// Dial implements proxy.Dialer.
func (f forwardDialer) Dial(network, addr string) (net.Conn, error) {
	return f.DialContext(context.Background(), network, addr)
}

// contextlessDialer adds a DialContext method to a plain proxy.Dialer.
type contextlessDialer struct {
	proxy.Dialer
}

// DialContext implements proxy.ContextDialer. The dial is abandoned, not
// cancelled, when ctx ends first.
func (c contextlessDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := c.Dial(network, addr)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}
