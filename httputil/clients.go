package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"
)

type Clients struct {
	Scraping *http.Client // target sites, optionally proxied
	API      *http.Client // Telegram and other direct APIs
}

// NewClients builds the two HTTP clients. Every scraping fetch has a
// bounded timeout; expiry is treated as a fetch failure upstream.
func NewClients(timeout time.Duration, proxyURL string) *Clients {
	scraping := &http.Client{Timeout: timeout}

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			scraping.Transport = &http.Transport{
				Proxy:             http.ProxyURL(parsed),
				ForceAttemptHTTP2: false,
				TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
			}
		}
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: timeout},
	}
}

// BrowserHeaders makes a request look like an ordinary browser visit.
// The listing sites serve bot traffic differently or not at all.
func BrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
