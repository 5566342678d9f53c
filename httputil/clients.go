package httputil

import (
	"net/http"
	"net/url"
	"time"
)

type Clients struct {
	Scraping *http.Client // listing/detail pages on the target site
	API      *http.Client // object storage and other direct calls
}

// NewClients builds the shared HTTP clients. proxyURL may be empty, in which
// case the scraping client goes direct.
func NewClients(proxyURL string) *Clients {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	scraping := &http.Client{
		Timeout:   10 * time.Second,
		Transport: transport,
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}
