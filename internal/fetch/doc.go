// Package fetch retrieves pages and scripts over HTTP.
//
// HTTPFetcher wraps a resty client. It sends no retries and enforces a body
// size limit. Every failure, including a non-2xx status, is returned as a
// *model.TransportError so that callers can report it per script.
//
// # Transports
//
// NewTransport builds the round tripper underneath:
//   - a plain net/http transport, the default
//   - the same transport dialing through a Tor SOCKS5 proxy (WithDialContext)
//   - a browser identity transport (WithBrowserIdentity) whose TLS
//     ClientHello parrots Chrome 131
//
// The browser transport speaks HTTP/2 when the server negotiates h2 and
// shares one session per host:port. Concurrent first requests to a host
// wait for a single handshake. HTTP/1.1 connections serve one request.
//
// # Request headers
//
// Headers set with WithHeaders go out with every request. Headers set with
// WithDocumentHeaders go out with page requests only, and those set with
// WithScriptHeaders with requests whose context comes from ScriptRequest.
// Script requests also carry Referer and Sec-Fetch-Site, computed from the
// page that references the script, so that a spoofed browser identity
// stays consistent between the page and its scripts:
//
//	f := fetch.NewHTTPFetcher(
//	    fetch.WithUserAgent(fetch.ChromeUserAgent),
//	    fetch.WithDocumentHeaders(fetch.ChromeHeaders()),
//	    fetch.WithScriptHeaders(fetch.ChromeScriptHeaders()),
//	)
//	body, err := f.Fetch(fetch.ScriptRequest(ctx, page), scriptURL)
//
// Per-host cookies and headers (WithHostSettings) are added last and win
// over everything else.
package fetch
