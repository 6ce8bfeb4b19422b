package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/jssift/internal/extract"
	"github.com/nao1215/jssift/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "jssift"

	// DefaultTimeout bounds every single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is the number of scripts analyzed at once.
	DefaultConcurrency = 16

	// DefaultMaxBodySize limits the size of a fetched page or script.
	// Bundles of several megabytes are common, so this is generous.
	DefaultMaxBodySize = 20 * 1024 * 1024

	// DefaultOutputDir is where the per-host artifact directory is created.
	DefaultOutputDir = "."

	// DefaultUserAgent identifies jssift in HTTP requests unless --spoof is set.
	DefaultUserAgent = "jssift/1.0 (+https://github.com/nao1215/jssift)"

	// DefaultMode is the extraction mode name.
	DefaultMode = "reachable"

	// DefaultTorStartupTimeout is how long the embedded Tor daemon may take
	// to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds every option of a sift run.
// It is populated from CLI flags and passed down explicitly.
type Config struct {
	// Target is the root page URL as typed by the user.
	Target string

	// OutputDir is the parent of the per-host artifact directory.
	OutputDir string

	// Timeout is the limit for each HTTP request.
	Timeout time.Duration

	// Concurrency is the maximum number of scripts analyzed at once.
	Concurrency int

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int

	// RateLimit caps requests per second for the whole run. Zero means
	// unlimited.
	RateLimit float64

	// UserAgent is sent with every request unless Spoof is set.
	UserAgent string

	// Spoof makes requests look like a desktop Chrome browser, from the TLS
	// handshake up to the request headers.
	Spoof bool

	// Mode is the extraction mode name ("reachable" or "coarse").
	Mode string

	// Stoplist drops common tokens from reachable-mode output as well.
	// Coarse mode always applies it.
	Stoplist bool

	// UseTor routes all traffic through an embedded Tor daemon.
	UseTor bool

	// TorProxyAddress routes all traffic through an external Tor SOCKS5
	// proxy. It takes precedence over UseTor.
	TorProxyAddress string

	// TorStartupTimeout bounds the bootstrap of the embedded daemon.
	TorStartupTimeout time.Duration

	// JSONReport prints the run report as JSON.
	JSONReport bool

	// MarkdownReport prints the run report as Markdown.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit .jssift file. When empty the current
	// directory and then the home directory are searched.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, nil when none.
	SiteConfigs *File

	// SaveToDB records the run in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	DBDir string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputDir:         DefaultOutputDir,
		Timeout:           DefaultTimeout,
		Concurrency:       DefaultConcurrency,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		Mode:              DefaultMode,
		TorStartupTimeout: DefaultTorStartupTimeout,
		SaveToDB:          true,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for jssift.
// On Linux: ~/.local/share/jssift
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for jssift.
// On Linux: ~/.config/jssift
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}

	target, err := model.NewCrawlTarget(c.Target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if _, err := extract.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if target.IsOnion() && !c.TorEnabled() {
		return ErrOnionRequiresTor
	}
	if c.UseTor && c.TorProxyAddress == "" && c.TorStartupTimeout <= 0 {
		return ErrInvalidTorStartupTimeout
	}

	return nil
}

// TorEnabled reports whether traffic is routed through Tor.
func (c *Config) TorEnabled() bool {
	return c.UseTor || c.TorProxyAddress != ""
}

// CrawlTarget parses Target. Call Validate first.
func (c *Config) CrawlTarget() (model.CrawlTarget, error) {
	return model.NewCrawlTarget(c.Target)
}

// ExtractMode parses Mode. Call Validate first.
func (c *Config) ExtractMode() (extract.Mode, error) {
	return extract.ParseMode(c.Mode)
}

// SiteConfig returns the merged file settings for host, or the zero value
// when no configuration file was loaded.
func (c *Config) SiteConfig(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}
