package discovery

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/proxyfinder/internal/model"
)

// FreeProxyListURL is the page scraped by FreeProxyListSource.
const FreeProxyListURL = "https://free-proxy-list.net/"

// Column positions in the free-proxy-list.net table.
const (
	fplColumnIP    = 0
	fplColumnPort  = 1
	fplColumnHTTPS = 6
)

// FreeProxyListSource scrapes the proxy table of free-proxy-list.net.
// Rows whose "Https" column says "yes" become https candidates; all
// others become http candidates.
type FreeProxyListSource struct {
	url     string
	fetcher *Fetcher
}

// NewFreeProxyListSource creates the free-proxy-list.net source.
func NewFreeProxyListSource(fetcher *Fetcher) *FreeProxyListSource {
	return &FreeProxyListSource{url: FreeProxyListURL, fetcher: fetcher}
}

// Name implements Source.
func (s *FreeProxyListSource) Name() string { return SourceFreeProxyList }

// Fetch implements Source.
func (s *FreeProxyListSource) Fetch(ctx context.Context) ([]model.Candidate, error) {
	body, err := s.fetcher.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return ParseFreeProxyListTable(bytes.NewReader(body))
}

// ParseFreeProxyListTable extracts candidates from the first table of an
// HTML page laid out like free-proxy-list.net. Rows with fewer than seven
// cells or an invalid address are skipped.
func ParseFreeProxyListTable(r io.Reader) ([]model.Candidate, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	table := findElement(doc, "table")
	if table == nil {
		return nil, ErrTableNotFound
	}

	var out []model.Candidate
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if c, ok := parseFreeProxyListRow(n); ok {
				out = append(out, c)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(table)

	return out, nil
}

// parseFreeProxyListRow converts one <tr> into a candidate.
func parseFreeProxyListRow(tr *html.Node) (model.Candidate, bool) {
	var cells []string
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type == html.ElementNode && td.Data == "td" {
			cells = append(cells, strings.TrimSpace(textContent(td)))
		}
	}
	if len(cells) <= fplColumnHTTPS {
		return model.Candidate{}, false
	}

	port, err := strconv.Atoi(cells[fplColumnPort])
	if err != nil {
		return model.Candidate{}, false
	}

	protocol := model.ProtocolHTTP
	if strings.EqualFold(cells[fplColumnHTTPS], "yes") {
		protocol = model.ProtocolHTTPS
	}

	c, err := model.NewCandidate(protocol, cells[fplColumnIP], port)
	if err != nil {
		return model.Candidate{}, false
	}
	return c, true
}

// findElement returns the first element named tag in document order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates the text nodes below n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(textContent(child))
	}
	return sb.String()
}
