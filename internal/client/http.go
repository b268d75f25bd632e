package client

import (
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent matches the desktop browser the session cookies usually come from
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
)

// CreateProxyHTTPClient creates an HTTP client with proxy support.
// Intercepting proxies present their own certificates, so verification is relaxed for them only.
func CreateProxyHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	if proxyURL == "" {
		return CreateHTTPClient(timeout), nil
	}

	proxy, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", proxyURL, err)
	}

	transport := newTransport()
	transport.Proxy = http.ProxyURL(proxy)
	transport.TLSClientConfig.InsecureSkipVerify = true

	return &http.Client{
		Transport: transport,
		Timeout:   timeoutOrDefault(timeout),
	}, nil
}

// CreateHTTPClient creates a standard HTTP client
func CreateHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newTransport(),
		Timeout:   timeoutOrDefault(timeout),
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
		ForceAttemptHTTP2:   true,
	}
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// GetPageHeaders returns headers for loading a job page the way a desktop browser navigation would
func GetPageHeaders(userAgent, referer string) http.Header {
	headers := http.Header{}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")
	// only gzip is decoded by ReadResponseBody
	headers.Set("Accept-Encoding", "gzip")
	headers.Set("Upgrade-Insecure-Requests", "1")
	headers.Set("Sec-Fetch-Site", "same-origin")
	headers.Set("Sec-Fetch-Mode", "navigate")
	headers.Set("Sec-Fetch-Dest", "document")
	headers.Set("Sec-Ch-Ua-Mobile", "?0")

	if referer != "" {
		headers.Set("Referer", referer)
	}
	return headers
}

// ReadResponseBody reads the response body, handling gzip compression if necessary
func ReadResponseBody(resp *http.Response) ([]byte, error) {
	var reader io.ReadCloser
	var err error

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
	default:
		reader = resp.Body
	}

	return io.ReadAll(reader)
}
