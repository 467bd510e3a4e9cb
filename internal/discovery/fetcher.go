package discovery

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultFetchTimeout bounds a single list download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a list response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultUserAgent is sent when downloading lists. Some list providers
	// reject requests without a browser-like User-Agent.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Fetcher downloads proxy lists over HTTP.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64

	// timeout and transport are set by options and applied to a copy of
	// client once every option has run.
	timeout   time.Duration
	transport http.RoundTripper
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher) error

// WithHTTPClient replaces the HTTP client. The client is copied, never
// modified, when a timeout or SOCKS5 upstream is also configured.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) error {
		if client != nil {
			f.client = client
		}
		return nil
	}
}

// WithFetchTimeout sets the per-download timeout. It applies to the
// client given by WithHTTPClient regardless of option order.
func WithFetchTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) error {
		if timeout > 0 {
			f.timeout = timeout
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) error {
		if ua != "" {
			f.userAgent = ua
		}
		return nil
	}
}

// WithSOCKS5Upstream routes list downloads through a SOCKS5 proxy such as Tor.
func WithSOCKS5Upstream(addr string) FetcherOption {
	return func(f *Fetcher) error {
		dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
		if err != nil {
			return fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("SOCKS5 dialer for %s does not support contexts", addr)
		}
		f.transport = &http.Transport{
			DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
				return cd.DialContext(ctx, network, address)
			},
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		}
		return nil
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultFetchTimeout},
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	if f.timeout > 0 || f.transport != nil {
		client := *f.client
		if f.timeout > 0 {
			client.Timeout = f.timeout
		}
		if f.transport != nil {
			client.Transport = f.transport
		}
		f.client = &client
	}

	return f, nil
}

// Get downloads url and returns its body. A body larger than the configured
// limit is an ErrBodyTooLarge error rather than a truncated list.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, f.maxBodySize)
	}
	return body, nil
}
