package sifter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/jssift/internal/discovery"
	"github.com/nao1215/jssift/internal/extract"
	"github.com/nao1215/jssift/internal/fetch"
	"github.com/nao1215/jssift/internal/filter"
	"github.com/nao1215/jssift/internal/model"
)

// DefaultConcurrency is the number of scripts analyzed at the same time.
const DefaultConcurrency = 16

// Sink receives every analysis result, failed ones included, and persists
// it. It returns the path of the written artifact, or "" when nothing was
// written. Sift never calls a Sink concurrently.
type Sink func(res model.AnalysisResult) (artifact string, err error)

// Sifter orchestrates one crawl at a time. A Sifter holds no per-run state
// and may be reused.
type Sifter struct {
	fetcher     fetch.Fetcher
	extractor   extract.Extractor
	filter      filter.Filter
	concurrency int
	logger      *slog.Logger
}

// Option configures a Sifter.
type Option func(*Sifter)

// WithConcurrency sets the maximum number of concurrent script analyses.
// Zero or negative values keep DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(s *Sifter) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sifter) {
		s.logger = logger
	}
}

// WithExtractor sets the extraction strategy.
func WithExtractor(e extract.Extractor) Option {
	return func(s *Sifter) {
		s.extractor = e
	}
}

// WithFilter sets the noise filter applied to every script's values.
func WithFilter(f filter.Filter) Option {
	return func(s *Sifter) {
		s.filter = f
	}
}

// New creates a Sifter that retrieves pages and scripts with fetcher.
func New(fetcher fetch.Fetcher, opts ...Option) *Sifter {
	s := &Sifter{
		fetcher:     fetcher,
		extractor:   extract.NewExtractor(extract.ModeReachable),
		filter:      filter.New(),
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Concurrency returns the configured concurrency limit.
func (s *Sifter) Concurrency() int {
	return s.concurrency
}

// Sift crawls target and analyzes every external script it references.
//
// If the target page cannot be fetched, a *model.CrawlError is returned and
// no script is analyzed. Otherwise every discovered script yields exactly
// one result, which is passed to sink (when non-nil) and recorded in the
// returned summary. Individual script failures do not fail the run.
// If ctx is canceled, the remaining scripts fail with transport errors and
// the summary is returned together with the context error.
func (s *Sifter) Sift(ctx context.Context, target model.CrawlTarget, sink Sink) (*model.RunSummary, error) {
	if target.IsZero() {
		return nil, ErrNoTarget
	}
	if s.fetcher == nil {
		return nil, ErrNoFetcher
	}

	summary := model.NewRunSummary(target, s.extractor.Mode().String())
	root := target.URL()

	s.logger.Debug("fetching target", "url", target.String())
	page, err := s.fetcher.Fetch(ctx, root)
	if err != nil {
		return nil, &model.CrawlError{Target: target.String(), Err: err}
	}

	urls, err := discovery.Discover(bytes.NewReader(page), root)
	if err != nil {
		return nil, &model.CrawlError{Target: target.String(), Err: err}
	}
	refs := discovery.References(urls)
	for i := range refs {
		refs[i].Page = root
	}

	s.logger.Info("discovered scripts",
		"target", target.String(),
		"scripts", len(refs),
		"concurrency", s.concurrency,
	)

	for res := range s.analyzeAll(ctx, refs) {
		var artifact string
		var persistErr error
		if sink != nil {
			artifact, persistErr = s.persist(sink, res)
		}
		summary.Record(res, artifact, persistErr)
	}
	summary.Finish()

	s.logger.Info("sift complete",
		"target", target.String(),
		"scripts", len(summary.Scripts),
		"failed", summary.FailedCount(),
		"elapsed", summary.Duration(),
	)

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// analyzeAll starts one task per reference and returns a channel that
// yields every result and is closed after the last one.
func (s *Sifter) analyzeAll(ctx context.Context, refs []model.ScriptReference) <-chan model.AnalysisResult {
	results := make(chan model.AnalysisResult)

	// Tasks report through the channel and never return an error, so the
	// group context is only canceled together with ctx.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	go func() {
		defer close(results)
		for _, ref := range refs {
			g.Go(func() error {
				results <- s.Analyze(gctx, ref)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // tasks never fail
	}()

	return results
}

// Analyze fetches one script, extracts its string values and filters them.
// It never panics; a panic inside the analysis becomes a failed result
// wrapping ErrAnalysisPanic.
func (s *Sifter) Analyze(ctx context.Context, ref model.ScriptReference) (res model.AnalysisResult) {
	start := time.Now()
	res.Ref = ref

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("script analysis panicked", "url", ref.String(), "panic", r)
			res.Strings = nil
			res.Err = fmt.Errorf("%w: %v", ErrAnalysisPanic, r)
		}
		res.Elapsed = time.Since(start)
	}()

	if ref.URL == nil {
		res.Err = &model.TransportError{Err: errors.New("script reference has no URL")}
		return res
	}

	body, err := s.fetcher.Fetch(fetch.ScriptRequest(ctx, ref.Page), ref.URL)
	if err != nil {
		s.logger.Debug("script fetch failed", "url", ref.String(), "error", err)
		res.Err = err
		return res
	}

	values, err := s.extractor.Extract(body)
	if err != nil {
		annotateBodyType(err, body)
		s.logger.Debug("script parse failed", "url", ref.String(), "error", err)
		res.Err = err
		return res
	}

	res.Strings = s.filter.Apply(values)
	s.logger.Debug("script analyzed",
		"url", ref.String(),
		"bytes", len(body),
		"raw", len(values),
		"kept", len(res.Strings),
	)
	return res
}

// persist calls sink and normalizes its failure into a PersistenceError.
func (s *Sifter) persist(sink Sink, res model.AnalysisResult) (artifact string, err error) {
	defer func() {
		if r := recover(); r != nil {
			artifact = ""
			err = &model.PersistenceError{Ref: res.Ref, Err: fmt.Errorf("sink panicked: %v", r)}
		}
	}()

	artifact, err = sink(res)
	if err == nil {
		return artifact, nil
	}

	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		err = &model.PersistenceError{Ref: res.Ref, Path: artifact, Err: err}
	}
	s.logger.Debug("artifact write failed", "url", res.Ref.String(), "error", err)
	return "", err
}

// annotateBodyType names the detected content type in a parse error when
// the body is clearly not script text, such as an HTML fallback page served
// with status 200.
func annotateBodyType(err error, body []byte) {
	var parseErr *model.ParseError
	if !errors.As(err, &parseErr) {
		return
	}
	mt := mimetype.Detect(body)
	if mt.Is("text/plain") || mt.Is("application/javascript") {
		return
	}
	parseErr.Message = fmt.Sprintf("%s (response is %s)", parseErr.Message, mt.String())
}
