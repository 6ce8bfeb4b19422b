package tor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/tornago"
)

// defaultStartupTimeout bounds the bootstrap of the embedded daemon.
const defaultStartupTimeout = 3 * time.Minute

// Embedded is a tor daemon owned by the current process.
// Bootstrapping takes from several seconds to a few minutes.
type Embedded struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
	logger         *slog.Logger
}

// EmbeddedOption configures an Embedded daemon.
type EmbeddedOption func(*Embedded)

// WithStartupTimeout sets the bootstrap deadline.
func WithStartupTimeout(timeout time.Duration) EmbeddedOption {
	return func(e *Embedded) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// WithEmbeddedLogger sets the logger.
func WithEmbeddedLogger(logger *slog.Logger) EmbeddedOption {
	return func(e *Embedded) {
		e.logger = logger
	}
}

// NewEmbedded creates a stopped daemon.
func NewEmbedded(opts ...EmbeddedOption) *Embedded {
	e := &Embedded{
		startupTimeout: defaultStartupTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches tor on OS-assigned ports and blocks until it has
// bootstrapped or the startup timeout expires.
func (e *Embedded) Start(ctx context.Context) error {
	cfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	e.logger.Info("starting embedded tor daemon", "timeout", e.startupTimeout)
	process, err := tornago.StartTorDaemon(cfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	if err := ctx.Err(); err != nil {
		_ = process.Stop() //nolint:errcheck // already failing
		return err
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	e.logger.Debug("embedded tor daemon ready", "socks", e.socksAddr)
	return nil
}

// Stop shuts the daemon down. It is a no-op when the daemon is not running.
func (e *Embedded) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	return err
}

// IsRunning reports whether the daemon has been started and not stopped.
func (e *Embedded) IsRunning() bool {
	return e.process != nil
}

// SocksAddr returns the SOCKS5 address of the running daemon, or "".
func (e *Embedded) SocksAddr() string {
	return e.socksAddr
}

// Client returns a Client dialing through the running daemon.
func (e *Embedded) Client() (*Client, error) {
	if !e.IsRunning() {
		return nil, ErrEmbeddedNotRunning
	}
	return NewClient(e.socksAddr)
}
