// Package discovery collects candidate proxies from public lists and local files.
//
// Each Source fetches one list. A Registry holds the enabled sources,
// fetches them concurrently and merges the results in registration order,
// removing duplicate hosts (the entry from the later source wins).
// Registry implements finder.Discoverer.
//
// Built-in sources:
//   - free-proxy-list: the HTML table at https://free-proxy-list.net/
//   - proxyscrape-http, proxyscrape-socks4, proxyscrape-socks5: plain
//     "ip:port" lists from api.proxyscrape.com
//
// Any plain text list, local or remote, can be added with NewFileSource
// or NewURLListSource. CachedSource keeps a copy of a source's last
// listing so repeated runs do not refetch it.
package discovery
