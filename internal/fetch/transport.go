package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"time"
)

// DialContextFunc opens a network connection, like net.Dialer.DialContext.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

type transportConfig struct {
	dial    DialContextFunc
	browser bool
	rootCAs *x509.CertPool
}

// TransportOption configures NewTransport.
type TransportOption func(*transportConfig)

// WithDialContext routes every connection through dial, for example a
// Tor SOCKS5 client. Proxy environment variables are ignored in that case.
func WithDialContext(dial DialContextFunc) TransportOption {
	return func(c *transportConfig) {
		c.dial = dial
	}
}

// WithBrowserIdentity makes TLS handshakes look like Chrome's.
func WithBrowserIdentity(enabled bool) TransportOption {
	return func(c *transportConfig) {
		c.browser = enabled
	}
}

// WithRootCAs replaces the system certificate pool.
func WithRootCAs(pool *x509.CertPool) TransportOption {
	return func(c *transportConfig) {
		c.rootCAs = pool
	}
}

// NewTransport builds the round tripper used by HTTPFetcher.
func NewTransport(opts ...TransportOption) http.RoundTripper {
	cfg := &transportConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.browser {
		return newBrowserTransport(cfg)
	}
	return newStdTransport(cfg)
}

func newStdTransport(cfg *transportConfig) *http.Transport {
	t := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			RootCAs:    cfg.rootCAs,
		},
	}

	if cfg.dial != nil {
		t.Proxy = nil
		t.DialContext = cfg.dial
	} else {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		t.DialContext = dialer.DialContext
	}
	return t
}
