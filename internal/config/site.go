package config

import (
	"maps"
	"strings"
)

// SiteConfig holds request and filter settings for one host.
type SiteConfig struct {
	// Cookie is sent with every request to the host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers for requests to the host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Stoplist holds additional values to drop from the output.
	Stoplist []string `yaml:"stoplist,omitempty"`
}

// File is the structure of the .jssift configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the
// defaults. Site headers override default headers of the same name and
// stoplist entries accumulate.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Cookie:   cf.Defaults.Cookie,
		Headers:  maps.Clone(cf.Defaults.Headers),
		Stoplist: append([]string(nil), cf.Defaults.Stoplist...),
	}

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	result.Stoplist = append(result.Stoplist, site.Stoplist...)

	return result
}

// lookup finds the settings of host, ignoring case.
func (cf *File) lookup(host string) (SiteConfig, bool) {
	if site, ok := cf.Sites[host]; ok {
		return site, true
	}
	for name, site := range cf.Sites {
		if strings.EqualFold(name, host) {
			return site, true
		}
	}
	return SiteConfig{}, false
}
