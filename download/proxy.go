package download

import (
	"math/rand"
	"net/http"
	"net/url"
)

// proxyPool rotates download traffic across a set of forward proxies so
// repeated requests do not all originate from one address. An empty pool
// means direct connections.
type proxyPool struct {
	urls []*url.URL
}

// newProxyPool parses the configured proxy URLs, silently dropping
// entries that are not absolute URLs.
func newProxyPool(proxies []string) *proxyPool {
	pool := &proxyPool{}
	for _, raw := range proxies {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			continue
		}
		pool.urls = append(pool.urls, u)
	}
	return pool
}

func (p *proxyPool) empty() bool {
	return len(p.urls) == 0
}

// pick returns a random proxy from the pool, or nil for direct.
func (p *proxyPool) pick() *url.URL {
	if len(p.urls) == 0 {
		return nil
	}
	return p.urls[rand.Intn(len(p.urls))]
}

// transportProxy adapts the pool to http.Transport; a nil URL falls back
// to a direct connection.
func (p *proxyPool) transportProxy(*http.Request) (*url.URL, error) {
	return p.pick(), nil
}
