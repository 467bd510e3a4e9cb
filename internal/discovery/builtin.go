package discovery

import (
	"fmt"

	"github.com/nao1215/proxyfinder/internal/model"
)

// Built-in source names.
const (
	SourceFreeProxyList     = "free-proxy-list"
	SourceProxyScrapeHTTP   = "proxyscrape-http"
	SourceProxyScrapeSOCKS4 = "proxyscrape-socks4"
	SourceProxyScrapeSOCKS5 = "proxyscrape-socks5"
)

// ProxyScrape list endpoints.
const (
	ProxyScrapeHTTPURL   = "https://api.proxyscrape.com/v2/?request=getproxies&protocol=http&timeout=10000&country=all&ssl=all&anonymity=all"
	ProxyScrapeSOCKS4URL = "https://api.proxyscrape.com/v2/?request=getproxies&protocol=socks4&timeout=10000&country=all"
	ProxyScrapeSOCKS5URL = "https://api.proxyscrape.com/v2/?request=getproxies&protocol=socks5&timeout=10000&country=all"
)

// BuiltinSourceNames lists the built-in sources in their default order.
var BuiltinSourceNames = []string{
	SourceFreeProxyList,
	SourceProxyScrapeHTTP,
	SourceProxyScrapeSOCKS4,
	SourceProxyScrapeSOCKS5,
}

// NewBuiltinSource returns the built-in source called name.
func NewBuiltinSource(name string, fetcher *Fetcher) (Source, error) {
	switch name {
	case SourceFreeProxyList:
		return NewFreeProxyListSource(fetcher), nil
	case SourceProxyScrapeHTTP:
		return NewURLListSource(name, ProxyScrapeHTTPURL, model.ProtocolHTTP, fetcher), nil
	case SourceProxyScrapeSOCKS4:
		return NewURLListSource(name, ProxyScrapeSOCKS4URL, model.ProtocolSOCKS4, fetcher), nil
	case SourceProxyScrapeSOCKS5:
		return NewURLListSource(name, ProxyScrapeSOCKS5URL, model.ProtocolSOCKS5, fetcher), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
}

// BuiltinSources returns the named built-in sources in the given order.
// An empty names slice selects every built-in source.
func BuiltinSources(names []string, fetcher *Fetcher) ([]Source, error) {
	if len(names) == 0 {
		names = BuiltinSourceNames
	}

	sources := make([]Source, 0, len(names))
	for _, name := range names {
		src, err := NewBuiltinSource(name, fetcher)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
