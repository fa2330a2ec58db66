package httputil

import (
	"net/http"
	"net/url"
	"time"
)

type Clients struct {
	Fetch *http.Client // listing page/API fetches, optionally proxied
	API   *http.Client // direct, for archive endpoints
}

func NewClients(proxyURL string, fetchTimeout time.Duration) *Clients {
	fetch := &http.Client{Timeout: fetchTimeout}

	if proxyURL != "" {
		if proxy, err := url.Parse(proxyURL); err == nil {
			fetch.Transport = &http.Transport{Proxy: http.ProxyURL(proxy)}
		}
	}

	return &Clients{
		Fetch: fetch,
		API:   &http.Client{Timeout: 30 * time.Second},
	}
}
