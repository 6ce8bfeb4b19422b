package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// ChromeUserAgent matches the ClientHello sent by the browser transport.
const ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// ChromeHeaders returns the request headers Chrome 131 sends for a
// top-level navigation, without the User-Agent.
func ChromeHeaders() map[string]string {
	h := chromeClientHints()
	h["Accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	h["Sec-Fetch-Dest"] = "document"
	h["Sec-Fetch-Mode"] = "navigate"
	h["Sec-Fetch-Site"] = "none"
	h["Sec-Fetch-User"] = "?1"
	h["Upgrade-Insecure-Requests"] = "1"
	return h
}

// ChromeScriptHeaders returns the headers Chrome 131 sends when a page loads
// a classic <script src>. Sec-Fetch-Site and Referer depend on the page and
// are added per request.
func ChromeScriptHeaders() map[string]string {
	h := chromeClientHints()
	h["Accept"] = "*/*"
	h["Sec-Fetch-Dest"] = "script"
	h["Sec-Fetch-Mode"] = "no-cors"
	return h
}

func chromeClientHints() map[string]string {
	return map[string]string{
		"Accept-Language":    "en-US,en;q=0.9",
		"Sec-Ch-Ua":          `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
	}
}

// browserTransport performs TLS handshakes with a Chrome 131 ClientHello.
// Connections that negotiate h2 are shared per address; HTTP/1.1
// connections serve a single request.
type browserTransport struct {
	dial   DialContextFunc
	config *utls.Config
	plain  *http.Transport
	h2     *http2.Transport

	mu      sync.Mutex
	conns   map[string]*http2.ClientConn
	dialing map[string]*dialCall
}

// dialCall is a dial in progress that other requests to the same address
// wait for.
type dialCall struct {
	done chan struct{}
	cc   *http2.ClientConn // nil when the dial failed or h2 was not negotiated
}

const h2IdleTimeout = 90 * time.Second

func newBrowserTransport(cfg *transportConfig) *browserTransport {
	dial := cfg.dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	return &browserTransport{
		dial:    dial,
		config:  &utls.Config{RootCAs: cfg.rootCAs},
		plain:   newStdTransport(cfg),
		h2:      &http2.Transport{IdleConnTimeout: h2IdleTimeout},
		conns:   make(map[string]*http2.ClientConn),
		dialing: make(map[string]*dialCall),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *browserTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	switch req.URL.Scheme {
	case "http":
		return t.plain.RoundTrip(req)
	case "https":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, req.URL.Scheme)
	}

	addr := canonicalAddr(req.URL)
	cc, conn, err := t.connFor(req.Context(), addr, req.URL.Hostname())
	if err != nil {
		return nil, err
	}
	if conn != nil {
		return roundTripHTTP1(conn, req)
	}

	resp, err := cc.RoundTrip(req)
	if err != nil {
		t.forget(addr, cc)
	}
	return resp, err
}

// connFor returns the shared HTTP/2 session for addr, or a fresh HTTP/1.1
// connection owned by the caller when the server does not speak h2.
// Concurrent first requests to one address wait for a single dial.
func (t *browserTransport) connFor(ctx context.Context, addr, serverName string) (*http2.ClientConn, net.Conn, error) {
	t.mu.Lock()
	if cc := t.cachedLocked(addr); cc != nil {
		t.mu.Unlock()
		return cc, nil, nil
	}
	if call, ok := t.dialing[addr]; ok {
		t.mu.Unlock()
		select {
		case <-call.done:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
		if call.cc != nil && call.cc.CanTakeNewRequest() {
			return call.cc, nil, nil
		}
		// No shareable session came out of that dial.
		cc, conn, err := t.dialConn(ctx, addr, serverName)
		if cc != nil {
			t.store(addr, cc)
		}
		return cc, conn, err
	}
	call := &dialCall{done: make(chan struct{})}
	t.dialing[addr] = call
	t.mu.Unlock()

	cc, conn, err := t.dialConn(ctx, addr, serverName)

	t.mu.Lock()
	delete(t.dialing, addr)
	if cc != nil && t.cachedLocked(addr) == nil {
		t.conns[addr] = cc
	}
	call.cc = cc
	t.mu.Unlock()
	close(call.done)

	return cc, conn, err
}

// dialConn opens a connection to addr. An h2 session is returned as a
// client connection, anything else as the raw TLS connection.
func (t *browserTransport) dialConn(ctx context.Context, addr, serverName string) (*http2.ClientConn, net.Conn, error) {
	conn, err := t.dialTLS(ctx, addr, serverName)
	if err != nil {
		return nil, nil, err
	}
	if conn.ConnectionState().NegotiatedProtocol != http2.NextProtoTLS {
		return nil, conn, nil
	}

	cc, err := t.h2.NewClientConn(conn)
	if err != nil {
		_ = conn.Close() //nolint:errcheck // already failing
		return nil, nil, fmt.Errorf("failed to start HTTP/2 session with %s: %w", addr, err)
	}
	return cc, nil, nil
}

func (t *browserTransport) dialTLS(ctx context.Context, addr, serverName string) (*utls.UConn, error) {
	raw, err := t.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	config := t.config.Clone()
	config.ServerName = serverName
	conn := utls.UClient(raw, config, utls.HelloChrome_131)
	if err := conn.HandshakeContext(ctx); err != nil {
		_ = raw.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("TLS handshake with %s failed: %w", addr, err)
	}
	return conn, nil
}

func (t *browserTransport) cached(addr string) *http2.ClientConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cachedLocked(addr)
}

func (t *browserTransport) cachedLocked(addr string) *http2.ClientConn {
	cc, ok := t.conns[addr]
	if !ok {
		return nil
	}
	if !cc.CanTakeNewRequest() {
		delete(t.conns, addr)
		return nil
	}
	return cc
}

// store caches cc unless a usable session for addr is already cached.
// A replaced session is never closed: requests may still be running on it,
// and the h2 idle timeout reclaims it.
func (t *browserTransport) store(addr string, cc *http2.ClientConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cachedLocked(addr) == nil {
		t.conns[addr] = cc
	}
}

// forget drops cc from the cache once it stops accepting requests. A failed
// request alone does not make a session unusable for other streams.
func (t *browserTransport) forget(addr string, cc *http2.ClientConn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conns[addr] == cc && !cc.CanTakeNewRequest() {
		delete(t.conns, addr)
	}
}

// CloseIdleConnections closes cached HTTP/2 sessions without active streams.
func (t *browserTransport) CloseIdleConnections() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for addr, cc := range t.conns {
		if state := cc.State(); state.StreamsActive > 0 || state.StreamsPending > 0 {
			continue
		}
		_ = cc.Close() //nolint:errcheck // idle session
		delete(t.conns, addr)
	}
	t.plain.CloseIdleConnections()
}

func roundTripHTTP1(conn net.Conn, req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close() //nolint:errcheck // unblocks pending I/O
	})

	req = req.Clone(ctx)
	req.Close = true
	if err := req.Write(conn); err != nil {
		stop()
		_ = conn.Close() //nolint:errcheck // already failing
		return nil, err
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		stop()
		_ = conn.Close() //nolint:errcheck // already failing
		return nil, err
	}
	resp.Body = &connBody{ReadCloser: resp.Body, conn: conn, stop: stop}
	return resp, nil
}

// connBody closes the underlying connection together with the body.
type connBody struct {
	io.ReadCloser
	conn net.Conn
	stop func() bool
	once sync.Once
}

func (b *connBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() {
		b.stop()
		_ = b.conn.Close() //nolint:errcheck // one-shot connection
	})
	return err
}

// canonicalAddr returns host:port, adding the scheme's default port.
func canonicalAddr(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
