package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// CrawlTarget errors.
var (
	// ErrEmptyTarget is returned when the target URL is empty.
	ErrEmptyTarget = errors.New("target URL cannot be empty")
	// ErrRelativeTarget is returned when the target URL has no scheme or host.
	ErrRelativeTarget = errors.New("target URL must be absolute")
	// ErrUnsupportedScheme is returned when the target URL is not http or https.
	ErrUnsupportedScheme = errors.New("target URL scheme must be http or https")
)

const onionSuffix = ".onion"

// CrawlTarget is the absolute root location of a run.
// It is created once from user input and never modified afterwards.
type CrawlTarget struct {
	url *url.URL
}

// NewCrawlTarget parses raw into a CrawlTarget.
// Only absolute http and https URLs are accepted.
func NewCrawlTarget(raw string) (CrawlTarget, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CrawlTarget{}, ErrEmptyTarget
	}

	u, err := url.Parse(raw)
	if err != nil {
		return CrawlTarget{}, fmt.Errorf("failed to parse target URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return CrawlTarget{}, fmt.Errorf("%w: %s", ErrRelativeTarget, raw)
	}
	if !IsHTTPScheme(u.Scheme) {
		return CrawlTarget{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""

	return CrawlTarget{url: u}, nil
}

// URL returns a copy of the target location.
func (t CrawlTarget) URL() *url.URL {
	if t.url == nil {
		return nil
	}
	u := *t.url
	return &u
}

// Host returns the lower-cased host name without port.
func (t CrawlTarget) Host() string {
	if t.url == nil {
		return ""
	}
	return strings.ToLower(t.url.Hostname())
}

// IsOnion reports whether the target is a Tor hidden service.
func (t CrawlTarget) IsOnion() bool {
	return strings.HasSuffix(t.Host(), onionSuffix)
}

// IsZero reports whether t was never initialized.
func (t CrawlTarget) IsZero() bool {
	return t.url == nil
}

// String returns the target URL.
func (t CrawlTarget) String() string {
	if t.url == nil {
		return ""
	}
	return t.url.String()
}

// IsHTTPScheme reports whether scheme is http or https, ignoring case.
func IsHTTPScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
