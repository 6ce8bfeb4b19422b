// Package tor routes jssift traffic through the Tor network.
//
// Two routes are supported: an external SOCKS5 proxy (usually a local tor
// daemon on 127.0.0.1:9050), verified with a SOCKS5 handshake before use,
// and an embedded daemon started with github.com/nao1215/tornago for the
// lifetime of one run. Either way the result is a Client whose DialContext
// plugs into the transport built by package fetch.
//
// The package also validates .onion hosts: only v3 addresses with a correct
// checksum are accepted as crawl targets.
package tor
