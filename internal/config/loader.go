package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/http/httpguts"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".jssift"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrInvalidSiteConfig is returned for a configuration file whose request
// settings could not be sent as HTTP headers.
var ErrInvalidSiteConfig = errors.New("invalid site configuration")

// LoadConfigFile loads site configurations from a YAML file.
// A missing file yields ErrConfigNotFound; whether that matters depends on
// whether the path was given explicitly.
//
// Unknown keys are rejected. Site keys are normalized to lower-case host
// names, and cookies and headers must be valid HTTP header material.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cf.normalize(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cf, nil
}

// normalize rewrites site keys to bare lower-case host names and checks
// every cookie and header.
func (cf *File) normalize() error {
	if err := checkRequestSettings("defaults", cf.Defaults); err != nil {
		return err
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for _, name := range slices.Sorted(maps.Keys(cf.Sites)) {
		host := normalizeHost(name)
		if host == "" {
			return fmt.Errorf("%w: empty host name %q", ErrInvalidSiteConfig, name)
		}
		if _, dup := sites[host]; dup {
			return fmt.Errorf("%w: host %q is configured twice", ErrInvalidSiteConfig, host)
		}
		site := cf.Sites[name]
		if err := checkRequestSettings(host, site); err != nil {
			return err
		}
		sites[host] = site
	}
	cf.Sites = sites
	return nil
}

func normalizeHost(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

func checkRequestSettings(scope string, site SiteConfig) error {
	if !httpguts.ValidHeaderFieldValue(site.Cookie) {
		return fmt.Errorf("%w: cookie of %s contains control characters", ErrInvalidSiteConfig, scope)
	}
	for name, value := range site.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: header name %q of %s", ErrInvalidSiteConfig, name, scope)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("%w: header %s of %s contains control characters", ErrInvalidSiteConfig, name, scope)
		}
	}
	return nil
}

// FindConfigFile returns configPath if it exists. Without an explicit path
// it returns the first existing file of SearchPath, or "" when there is
// none.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if isFile(configPath) {
			return configPath
		}
		return ""
	}
	for _, candidate := range SearchPath() {
		if isFile(candidate) {
			return candidate
		}
	}
	return ""
}

// SearchPath lists the locations checked for a configuration file, in
// order: .jssift in the current directory, config.yaml in the XDG config
// directory, .jssift in the home directory.
func SearchPath() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
