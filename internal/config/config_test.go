package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/jssift/internal/extract"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Concurrency is 16", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 16 {
			t.Errorf("expected Concurrency to be 16, got %d", cfg.Concurrency)
		}
	})

	t.Run("default MaxBodySize is 20 MiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 20<<20 {
			t.Errorf("expected MaxBodySize to be 20 MiB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default output and mode", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputDir != "." {
			t.Errorf("expected OutputDir '.', got %q", cfg.OutputDir)
		}
		if cfg.Mode != "reachable" {
			t.Errorf("expected Mode 'reachable', got %q", cfg.Mode)
		}
	})

	t.Run("default identity is not spoofed", func(t *testing.T) {
		t.Parallel()
		if cfg.Spoof {
			t.Error("expected Spoof to be false")
		}
		if !strings.HasPrefix(cfg.UserAgent, "jssift/") {
			t.Errorf("unexpected UserAgent %q", cfg.UserAgent)
		}
	})

	t.Run("tor is off and history is on", func(t *testing.T) {
		t.Parallel()
		if cfg.TorEnabled() {
			t.Error("expected tor to be disabled")
		}
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout 3m, got %v", cfg.TorStartupTimeout)
		}
		if !cfg.SaveToDB || cfg.DBDir == "" {
			t.Error("expected run history to be enabled with a data dir")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Target = "https://example.com/"
		return cfg
	}

	const onion = "http://pg6mmjiyjmcrsslvykfwnntlaru7p5svn6y2ymmju6nubxndf4pscryd.onion/"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "empty target", mutate: func(c *Config) { c.Target = "" }, wantErr: ErrNoTarget},
		{name: "relative target", mutate: func(c *Config) { c.Target = "/index.html" }, wantErr: ErrInvalidTarget},
		{name: "ftp target", mutate: func(c *Config) { c.Target = "ftp://example.com/" }, wantErr: ErrInvalidTarget},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "zero max body size", mutate: func(c *Config) { c.MaxBodySize = 0 }, wantErr: ErrInvalidMaxBodySize},
		{name: "negative rate limit", mutate: func(c *Config) { c.RateLimit = -1 }, wantErr: ErrInvalidRateLimit},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimit = 0 }},
		{
			name:    "json and markdown",
			mutate:  func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			wantErr: ErrConflictingReportFormats,
		},
		{name: "json only", mutate: func(c *Config) { c.JSONReport = true }},
		{name: "coarse mode", mutate: func(c *Config) { c.Mode = "coarse" }},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "aggressive" }, wantErr: ErrInvalidMode},
		{name: "onion without tor", mutate: func(c *Config) { c.Target = onion }, wantErr: ErrOnionRequiresTor},
		{name: "onion with embedded tor", mutate: func(c *Config) { c.Target = onion; c.UseTor = true }},
		{name: "onion with tor proxy", mutate: func(c *Config) { c.Target = onion; c.TorProxyAddress = "127.0.0.1:9050" }},
		{
			name:    "embedded tor without startup timeout",
			mutate:  func(c *Config) { c.UseTor = true; c.TorStartupTimeout = 0 },
			wantErr: ErrInvalidTorStartupTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigAccessors(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Target = "https://Example.com/app"
	cfg.Mode = "coarse"

	target, err := cfg.CrawlTarget()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target.Host() != "example.com" {
		t.Errorf("expected host example.com, got %q", target.Host())
	}

	mode, err := cfg.ExtractMode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode != extract.ModeCoarse {
		t.Errorf("expected coarse mode, got %v", mode)
	}

	if got := cfg.SiteConfig("example.com"); got.Cookie != "" || got.Headers != nil {
		t.Errorf("expected zero SiteConfig without a file, got %+v", got)
	}
	cfg.SiteConfigs = &File{Sites: map[string]SiteConfig{"example.com": {Cookie: "a=b"}}}
	if got := cfg.SiteConfig("example.com"); got.Cookie != "a=b" {
		t.Errorf("expected site cookie, got %+v", got)
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{
				Cookie:   "session=default",
				Headers:  map[string]string{"X-Default": "1"},
				Stoplist: []string{"noise"},
			},
			Sites: map[string]SiteConfig{},
		}

		got := cf.GetSiteConfig("unknown.example")
		if got.Cookie != "session=default" || got.Headers["X-Default"] != "1" {
			t.Errorf("unexpected config %+v", got)
		}
		if len(got.Stoplist) != 1 || got.Stoplist[0] != "noise" {
			t.Errorf("unexpected stoplist %v", got.Stoplist)
		}
	})

	t.Run("site overrides cookie and merges headers", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{
				Cookie:  "session=default",
				Headers: map[string]string{"X-Default": "1", "X-Shared": "default"},
			},
			Sites: map[string]SiteConfig{
				"example.com": {
					Cookie:  "session=site",
					Headers: map[string]string{"X-Shared": "site", "X-Site": "2"},
				},
			},
		}

		got := cf.GetSiteConfig("example.com")
		if got.Cookie != "session=site" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		want := map[string]string{"X-Default": "1", "X-Shared": "site", "X-Site": "2"}
		for k, v := range want {
			if got.Headers[k] != v {
				t.Errorf("header %s = %q, want %q", k, got.Headers[k], v)
			}
		}
	})

	t.Run("merge does not modify defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{
				Headers:  map[string]string{"X-Default": "1"},
				Stoplist: []string{"a"},
			},
			Sites: map[string]SiteConfig{
				"example.com": {Headers: map[string]string{"X-Site": "2"}, Stoplist: []string{"b"}},
			},
		}

		_ = cf.GetSiteConfig("example.com")
		if _, ok := cf.Defaults.Headers["X-Site"]; ok {
			t.Error("expected defaults headers to be unchanged")
		}
		if len(cf.Defaults.Stoplist) != 1 {
			t.Error("expected defaults stoplist to be unchanged")
		}
	})

	t.Run("stoplists accumulate", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: SiteConfig{Stoplist: []string{"a"}},
			Sites:    map[string]SiteConfig{"example.com": {Stoplist: []string{"b", "c"}}},
		}

		got := cf.GetSiteConfig("example.com")
		if strings.Join(got.Stoplist, ",") != "a,b,c" {
			t.Errorf("expected a,b,c, got %v", got.Stoplist)
		}
	})

	t.Run("host lookup ignores case", func(t *testing.T) {
		t.Parallel()

		cf := &File{Sites: map[string]SiteConfig{"Example.COM": {Cookie: "x=1"}}}
		if got := cf.GetSiteConfig("example.com"); got.Cookie != "x=1" {
			t.Errorf("expected case-insensitive match, got %+v", got)
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		cf := &File{Defaults: SiteConfig{Cookie: "d=1"}}
		if got := cf.GetSiteConfig("example.com"); got.Cookie != "d=1" {
			t.Errorf("expected defaults, got %+v", got)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".jssift")
		content := `defaults:
  headers:
    Accept-Language: en-US
  stoplist:
    - webpackJsonp
sites:
  app.example.com:
    cookie: "session=abc123"
    headers:
      Authorization: "Bearer token"
    stoplist:
      - __NEXT_DATA__
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.Defaults.Headers["Accept-Language"] != "en-US" {
			t.Errorf("unexpected defaults %+v", cf.Defaults)
		}
		site := cf.GetSiteConfig("app.example.com")
		if site.Cookie != "session=abc123" {
			t.Errorf("expected cookie, got %q", site.Cookie)
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Errorf("expected Authorization header, got %v", site.Headers)
		}
		if strings.Join(site.Stoplist, ",") != "webpackJsonp,__NEXT_DATA__" {
			t.Errorf("unexpected stoplist %v", site.Stoplist)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".jssift")
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := LoadConfigFile(path)
		if err == nil {
			t.Fatal("expected error for invalid YAML")
		}
		if errors.Is(err, ErrConfigNotFound) {
			t.Error("expected a parse error, not ErrConfigNotFound")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".jssift")
		if err := os.WriteFile(path, []byte("defaults:\n  cookie: a=b\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected Sites to be initialized")
		}
	})
}

func TestLoadConfigFileValidation(t *testing.T) {
	t.Parallel()

	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), ".jssift")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		return path
	}

	t.Run("empty file is an empty configuration", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(write(t, ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil || len(cf.Sites) != 0 {
			t.Errorf("expected empty Sites, got %v", cf.Sites)
		}
	})

	t.Run("host keys are normalized", func(t *testing.T) {
		t.Parallel()

		cf, err := LoadConfigFile(write(t, "sites:\n  \" App.Example.COM.\":\n    cookie: a=b\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := cf.Sites["app.example.com"]; !ok || len(cf.Sites) != 1 {
			t.Errorf("expected app.example.com, got %v", cf.Sites)
		}
	})

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{
			name:    "unknown key",
			content: "sites:\n  example.com:\n    cookies: a=b\n",
		},
		{
			name:    "header value with line break",
			content: "sites:\n  example.com:\n    headers:\n      X-Token: \"a\\r\\nInjected: yes\"\n",
			want:    ErrInvalidSiteConfig,
		},
		{
			name:    "invalid header name",
			content: "defaults:\n  headers:\n    \"Bad Header\": x\n",
			want:    ErrInvalidSiteConfig,
		},
		{
			name:    "cookie with line break",
			content: "defaults:\n  cookie: \"a=b\\nc=d\"\n",
			want:    ErrInvalidSiteConfig,
		},
		{
			name:    "host configured twice",
			content: "sites:\n  example.com:\n    cookie: a=b\n  EXAMPLE.com:\n    cookie: c=d\n",
			want:    ErrInvalidSiteConfig,
		},
		{
			name:    "empty host",
			content: "sites:\n  \" \":\n    cookie: a=b\n",
			want:    ErrInvalidSiteConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfigFile(write(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("directory is not a config file", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(t.TempDir()); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("search path ends with the home directory", func(t *testing.T) {
		t.Parallel()

		paths := SearchPath()
		if len(paths) == 0 {
			t.Fatal("expected candidates")
		}
		if !slices.Contains(paths, filepath.Join(XDGConfigDir(), "config.yaml")) {
			t.Errorf("expected XDG config.yaml in %v", paths)
		}
		if home, err := os.UserHomeDir(); err == nil {
			if last := paths[len(paths)-1]; last != filepath.Join(home, DefaultConfigFile) {
				t.Errorf("expected home config last, got %q", last)
			}
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
	} {
		if dir == "" {
			t.Errorf("expected non-empty %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
		}
	}
}
