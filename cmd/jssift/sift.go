package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/jssift/internal/config"
	"github.com/nao1215/jssift/internal/database"
	"github.com/nao1215/jssift/internal/extract"
	"github.com/nao1215/jssift/internal/fetch"
	"github.com/nao1215/jssift/internal/filter"
	"github.com/nao1215/jssift/internal/model"
	"github.com/nao1215/jssift/internal/report"
	"github.com/nao1215/jssift/internal/sifter"
	"github.com/nao1215/jssift/internal/store"
	"github.com/nao1215/jssift/internal/tor"
	"github.com/spf13/cobra"
)

// NewSiftCmd creates the sift command.
func NewSiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sift [url]",
		Short: "Extract string literals from the scripts of a web page",
		Long: `Sift fetches a page, downloads every <script src> it references and writes
the string literals of each script to <output>/<host>/<script name>.txt,
one value per line. Scripts are analyzed concurrently; a script that fails
to download or parse is reported and skipped.

Examples:
  # Sift a page into ./example.com/
  jssift sift -u https://example.com/

  # Look like a desktop browser and use more workers
  jssift sift -u https://example.com/ --spoof -n 32

  # Be gentle with a slow server
  jssift sift -u https://example.com/ -n 4 --rate-limit 2

  # Dump every identifier and string token, minus common noise
  jssift sift -u https://example.com/ --mode coarse

  # Crawl an onion service through an external Tor proxy
  jssift sift -u http://<address>.onion/ --tor-proxy 127.0.0.1:9050

  # Write a Markdown report next to the artifacts
  jssift sift -u https://example.com/ --markdown -r report.md

Configuration file (.jssift) example:
  defaults:
    stoplist:
      - webpackJsonp
  sites:
    app.example.com:
      cookie: "session=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSiftCmd,
	}

	cmd.Flags().StringP("url", "u", "", "URL of the page to sift")
	cmd.Flags().BoolP("spoof", "s", false,
		"Send requests with a desktop Chrome TLS fingerprint and headers")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory in which the per-host artifact directory is created")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of scripts analyzed at once")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Int("max-body-size", config.DefaultMaxBodySize,
		"Maximum size in bytes of a page or script")
	cmd.Flags().Float64("rate-limit", 0,
		"Maximum requests per second for the whole run (0 = unlimited)")
	cmd.Flags().String("mode", config.DefaultMode,
		"Extraction mode: reachable or coarse")
	cmd.Flags().Bool("stoplist", false,
		"Drop common tokens in reachable mode too (always on in coarse mode)")

	cmd.Flags().Bool("tor", false, "Route traffic through an embedded Tor daemon")
	cmd.Flags().String("tor-proxy", "",
		"Route traffic through an external Tor SOCKS5 proxy (e.g. 127.0.0.1:9050)")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().BoolP("json", "j", false,
		"Print a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print a Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the report to a file instead of stdout")

	cmd.Flags().Bool("no-db", false, "Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .jssift in current or home directory)")

	cmd.MarkFlagsMutuallyExclusive("tor", "tor-proxy")

	return cmd
}

func runSiftCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSift(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildConfig creates a Config from the sift flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Target, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.Target == "" && len(args) > 0 {
		cfg.Target = args[0]
	}
	if cfg.Spoof, err = flags.GetBool("spoof"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate-limit"); err != nil {
		return nil, err
	}
	if cfg.Mode, err = flags.GetString("mode"); err != nil {
		return nil, err
	}
	if cfg.Stoplist, err = flags.GetBool("stoplist"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorProxyAddress, err = flags.GetString("tor-proxy"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit config path must exist; the default search may find nothing.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		if cfg.SiteConfigs, err = config.LoadConfigFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runSift performs one run. Per-script progress lines go to out.
func runSift(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	target, err := cfg.CrawlTarget()
	if err != nil {
		return err
	}
	if err := tor.ValidateHost(target.Host()); err != nil {
		return err
	}
	mode, err := cfg.ExtractMode()
	if err != nil {
		return err
	}

	var dial fetch.DialContextFunc
	if cfg.TorEnabled() {
		session, err := tor.Open(ctx, cfg.TorProxyAddress, cfg.TorStartupTimeout, logger)
		if err != nil {
			return fmt.Errorf("failed to open tor route: %w", err)
		}
		defer func() {
			if err := session.Close(); err != nil {
				logger.Warn("failed to stop embedded tor", "error", err)
			}
		}()
		dial = session.Client().DialContext
	}

	site := cfg.SiteConfig(target.Host())
	fetcher := newFetcher(cfg, target, site, dial, logger)
	defer fetcher.Close()

	artifacts, err := store.NewArtifactStore(cfg.OutputDir, target)
	if err != nil {
		return err
	}

	s := sifter.New(fetcher,
		sifter.WithConcurrency(cfg.Concurrency),
		sifter.WithLogger(logger),
		sifter.WithExtractor(extract.NewExtractor(mode)),
		sifter.WithFilter(newFilter(cfg, mode, site)),
	)

	summary, siftErr := s.Sift(ctx, target, progressSink(out, artifacts))
	if siftErr != nil {
		var crawlErr *model.CrawlError
		if errors.As(siftErr, &crawlErr) {
			printRootFailure(out, target, crawlErr)
		}
		if summary == nil {
			return siftErr
		}
	}

	// A canceled run still reports and records what was analyzed.
	if err := writeReport(cfg, out, summary); err != nil {
		logger.Error("failed to write report", "error", err)
	}
	if cfg.SaveToDB {
		if err := saveRun(context.WithoutCancel(ctx), cfg.DBDir, summary, logger); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}

	return siftErr
}

// newFetcher builds the HTTP fetcher for target, applying the browser
// identity, the Tor route and the per-host file settings.
func newFetcher(cfg *config.Config, target model.CrawlTarget, site config.SiteConfig, dial fetch.DialContextFunc, logger *slog.Logger) *fetch.HTTPFetcher {
	transportOpts := []fetch.TransportOption{fetch.WithBrowserIdentity(cfg.Spoof)}
	if dial != nil {
		transportOpts = append(transportOpts, fetch.WithDialContext(dial))
	}

	opts := []fetch.Option{
		fetch.WithLogger(logger),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRateLimit(cfg.RateLimit),
		fetch.WithTransport(fetch.NewTransport(transportOpts...)),
	}
	if cfg.Spoof {
		opts = append(opts,
			fetch.WithUserAgent(fetch.ChromeUserAgent),
			fetch.WithDocumentHeaders(fetch.ChromeHeaders()),
			fetch.WithScriptHeaders(fetch.ChromeScriptHeaders()),
		)
	} else {
		opts = append(opts, fetch.WithUserAgent(cfg.UserAgent))
	}

	if cfg.SiteConfigs != nil {
		for host := range cfg.SiteConfigs.Sites {
			hs := cfg.SiteConfig(host)
			opts = append(opts, fetch.WithHostSettings(host, fetch.HostSettings{
				Cookie:  hs.Cookie,
				Headers: hs.Headers,
			}))
		}
	}
	// The target host always gets at least the defaults.
	opts = append(opts, fetch.WithHostSettings(target.Host(), fetch.HostSettings{
		Cookie:  site.Cookie,
		Headers: site.Headers,
	}))

	return fetch.NewHTTPFetcher(opts...)
}

// newFilter attaches the stoplist in coarse mode, with --stoplist, or when
// the configuration file adds entries for the target host.
func newFilter(cfg *config.Config, mode extract.Mode, site config.SiteConfig) filter.Filter {
	if mode != extract.ModeCoarse && !cfg.Stoplist && len(site.Stoplist) == 0 {
		return filter.New()
	}
	return filter.New(filter.WithStoplist(filter.NewStoplist(site.Stoplist...)))
}

// progressSink writes artifacts and prints one line per script.
func progressSink(out io.Writer, artifacts *store.ArtifactStore) sifter.Sink {
	return func(res model.AnalysisResult) (string, error) {
		url := res.Ref.String()
		if res.Failed() {
			printFailure(out, url, res.Err)
			return "", nil
		}

		path, err := artifacts.Write(res)
		if err != nil {
			fmt.Fprintf(out, "%s | failed to write file: %v\n", url, unwrapPersistence(err))
			return "", err
		}
		if n := len(res.Strings); n > 0 {
			fmt.Fprintf(out, "%s | %d strings found\n", url, n)
		}
		return path, nil
	}
}

func printFailure(out io.Writer, url string, err error) {
	var transportErr *model.TransportError
	var parseErr *model.ParseError
	switch {
	case errors.As(err, &transportErr):
		fmt.Fprintf(out, "%s | failed http request %s\n", url, requestFailure(transportErr))
	case errors.As(err, &parseErr):
		fmt.Fprintf(out, "%s | failed to parse javascript %s\n", url, parseErr.Error())
	default:
		fmt.Fprintf(out, "%s | failed to analyze script %v\n", url, err)
	}
}

func printRootFailure(out io.Writer, target model.CrawlTarget, crawlErr *model.CrawlError) {
	var transportErr *model.TransportError
	if errors.As(crawlErr, &transportErr) {
		fmt.Fprintf(out, "%s | failed http request %s\n", target, requestFailure(transportErr))
		return
	}
	fmt.Fprintf(out, "%s | failed to read page %v\n", target, crawlErr.Err)
}

// requestFailure is the status line, followed by the cause when no response
// was received.
func requestFailure(err *model.TransportError) string {
	if err.StatusCode == 0 && err.Err != nil {
		return fmt.Sprintf("%s (%v)", err.Status(), err.Err)
	}
	return err.Status()
}

func unwrapPersistence(err error) error {
	var persistErr *model.PersistenceError
	if errors.As(err, &persistErr) && persistErr.Err != nil {
		return persistErr.Err
	}
	return err
}

// writeReport writes the run report to out or to the report file, when a
// format or a file was requested. The per-script lines are the default
// output.
func writeReport(cfg *config.Config, out io.Writer, summary *model.RunSummary) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	output := out
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).Write(summary)
	return err
}

func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output, report.WithStrings(true))
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}

// createReportFile creates path and its parent directories. Reports may
// contain credentials found in scripts, so the file is owner-only.
func createReportFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided report path
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}

func saveRun(ctx context.Context, dbDir string, summary *model.RunSummary, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, summary)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", id, "target", summary.Target)
	return nil
}
