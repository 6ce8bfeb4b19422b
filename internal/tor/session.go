package tor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Session is an open Tor route for one run.
type Session struct {
	client   *Client
	embedded *Embedded
}

// Open prepares a Tor route. With a non-empty proxyAddress the external
// proxy is checked and used; otherwise an embedded daemon is started and
// stopped again by Close.
func Open(ctx context.Context, proxyAddress string, startupTimeout time.Duration, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if proxyAddress != "" {
		client, err := NewClient(proxyAddress)
		if err != nil {
			return nil, err
		}
		if status := client.CheckConnection(ctx); status != ProxyStatusOK {
			return nil, fmt.Errorf("tor proxy %s: %w", proxyAddress, status.Err())
		}
		logger.Debug("using external tor proxy", "proxy", proxyAddress)
		return &Session{client: client}, nil
	}

	embedded := NewEmbedded(WithStartupTimeout(startupTimeout), WithEmbeddedLogger(logger))
	if err := embedded.Start(ctx); err != nil {
		return nil, err
	}
	client, err := embedded.Client()
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // already failing
		return nil, err
	}
	return &Session{client: client, embedded: embedded}, nil
}

// Client returns the dialing client of the session.
func (s *Session) Client() *Client {
	return s.client
}

// Close releases the route, stopping the embedded daemon if one was started.
func (s *Session) Close() error {
	if s == nil || s.embedded == nil {
		return nil
	}
	return s.embedded.Stop()
}
