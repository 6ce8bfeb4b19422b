package sifter

import "errors"

var (
	// ErrNoTarget is returned when Sift is called with a zero CrawlTarget.
	ErrNoTarget = errors.New("no crawl target")

	// ErrNoFetcher is returned when the Sifter was created without a Fetcher.
	ErrNoFetcher = errors.New("no fetcher configured")

	// ErrAnalysisPanic is wrapped by results whose analysis panicked.
	ErrAnalysisPanic = errors.New("script analysis panicked")
)
