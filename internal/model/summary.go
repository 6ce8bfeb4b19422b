package model

import (
	"sort"
	"sync"
	"time"
)

// ScriptSummary is the reported outcome of one script within a run.
type ScriptSummary struct {
	// URL is the script location.
	URL string `json:"url"`
	// Index is the position of the script element in document order.
	Index int `json:"index"`
	// Identifier is the artifact name derived from the last path segment.
	Identifier string `json:"identifier"`
	// Status is the FailureKind label ("ok", "transport", ...).
	Status string `json:"status"`
	// Error is the human-readable cause when Status is not "ok".
	Error string `json:"error,omitempty"`
	// StringCount is the number of accepted values.
	StringCount int `json:"string_count"`
	// Strings holds the accepted values in source order.
	Strings []string `json:"strings,omitempty"`
	// Artifact is the path of the written artifact, empty if none was written.
	Artifact string `json:"artifact,omitempty"`
	// ElapsedMillis is the analysis time in milliseconds.
	ElapsedMillis int64 `json:"elapsed_ms"`
}

// Failed reports whether the script failed at any stage.
func (s ScriptSummary) Failed() bool {
	return s.Status != FailureNone.String()
}

// RunSummary is the aggregate record of one crawl.
// Record is safe for concurrent use; the remaining methods must not race
// with Record.
type RunSummary struct {
	// ID is the run-history identifier, 0 until the run is saved.
	ID int64 `json:"id,omitempty"`
	// Target is the root page URL.
	Target string `json:"target"`
	// Mode is the extraction mode used for the run.
	Mode string `json:"mode"`
	// StartedAt is when the root fetch began.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is when the last script reported.
	FinishedAt time.Time `json:"finished_at"`
	// Scripts holds one entry per discovered script, in completion order.
	Scripts []ScriptSummary `json:"scripts"`

	mu sync.Mutex
}

// NewRunSummary creates a summary for target starting now.
func NewRunSummary(target CrawlTarget, mode string) *RunSummary {
	return &RunSummary{
		Target:    target.String(),
		Mode:      mode,
		StartedAt: time.Now(),
		Scripts:   []ScriptSummary{},
	}
}

// Record appends the outcome of one analysis. artifact is the written path
// and persistErr the write failure, if any.
func (s *RunSummary) Record(res AnalysisResult, artifact string, persistErr error) ScriptSummary {
	entry := ScriptSummary{
		URL:           res.Ref.String(),
		Index:         res.Ref.Index,
		Identifier:    res.Ref.Identifier(),
		Status:        res.Kind().String(),
		ElapsedMillis: res.Elapsed.Milliseconds(),
	}
	switch {
	case res.Err != nil:
		entry.Error = res.Err.Error()
	case persistErr != nil:
		entry.Status = ClassifyError(persistErr).String()
		entry.Error = persistErr.Error()
		entry.StringCount = len(res.Strings)
		entry.Strings = res.Strings
	default:
		entry.StringCount = len(res.Strings)
		entry.Strings = res.Strings
		entry.Artifact = artifact
	}

	s.mu.Lock()
	s.Scripts = append(s.Scripts, entry)
	s.mu.Unlock()

	return entry
}

// Finish stamps the completion time.
func (s *RunSummary) Finish() {
	s.FinishedAt = time.Now()
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Succeeded returns the number of scripts analyzed without failure.
func (s *RunSummary) Succeeded() int {
	n := 0
	for _, sc := range s.Scripts {
		if !sc.Failed() {
			n++
		}
	}
	return n
}

// FailedCount returns the number of scripts that failed at any stage.
func (s *RunSummary) FailedCount() int {
	return len(s.Scripts) - s.Succeeded()
}

// TotalStrings returns the number of accepted values across all scripts.
func (s *RunSummary) TotalStrings() int {
	n := 0
	for _, sc := range s.Scripts {
		n += sc.StringCount
	}
	return n
}

// SortByIndex orders Scripts by discovery order, for stable reports.
func (s *RunSummary) SortByIndex() {
	sort.SliceStable(s.Scripts, func(i, j int) bool {
		return s.Scripts[i].Index < s.Scripts[j].Index
	})
}
