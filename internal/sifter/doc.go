// Package sifter runs a crawl: it fetches the target page, discovers its
// external scripts and analyzes every script concurrently.
//
// # Pipeline
//
// Each script is fetched, parsed, walked and filtered in its own task.
// Tasks run on an errgroup limited to the configured concurrency
// (DefaultConcurrency when unset). Script requests are marked with
// fetch.ScriptRequest so that the fetcher can send script headers naming
// the target page.
//
// # Failure isolation
//
// A failing task produces a failed AnalysisResult and never affects the
// other tasks. A panic inside one analysis is recovered and reported as
// ErrAnalysisPanic. Only a failure to fetch or read the target page fails
// the whole run, as a *model.CrawlError.
//
// Results are handed to the caller's Sink one at a time, in completion
// order, from the goroutine that called Sift:
//
//	s := sifter.New(fetcher, sifter.WithConcurrency(8))
//	summary, err := s.Sift(ctx, target, artifacts.Write) // *store.ArtifactStore
package sifter
