package utils

import (
	"net"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient returns a client bounded by timeout. A nil proxy falls back to
// the proxy settings of the environment.
func HTTPClient(timeout time.Duration, proxy func(*http.Request) (*url.URL, error)) *http.Client {
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: proxy,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			MaxIdleConnsPerHost: 4,
		},
	}
}
