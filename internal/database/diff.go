package database

import (
	"sort"
	"time"

	"github.com/nao1215/jssift/internal/model"
)

// Script change kinds used in ScriptDiff.Change.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeChanged = "changed"
)

// RunRef identifies one side of a comparison.
type RunRef struct {
	ID          int64     `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	ScriptCount int       `json:"script_count"`
	FailedCount int       `json:"failed_count"`
	StringCount int       `json:"string_count"`
}

// ScriptDiff describes how the findings of one script URL changed.
type ScriptDiff struct {
	// URL is the script location.
	URL string `json:"url"`
	// Change is ChangeAdded, ChangeRemoved or ChangeChanged.
	Change string `json:"change"`
	// OlderStatus and NewerStatus are the outcome labels of each run,
	// empty when the script was absent.
	OlderStatus string `json:"older_status,omitempty"`
	NewerStatus string `json:"newer_status,omitempty"`
	// Added holds strings present only in the newer run, in newer order.
	Added []string `json:"added,omitempty"`
	// Removed holds strings present only in the older run, in older order.
	Removed []string `json:"removed,omitempty"`
	// Unchanged is the number of distinct strings found in both runs.
	Unchanged int `json:"unchanged"`
}

// RunDiff is the comparison of two runs against the same target.
type RunDiff struct {
	Target string `json:"target"`
	Older  RunRef `json:"older"`
	Newer  RunRef `json:"newer"`
	// Scripts lists every script whose presence, status or strings changed,
	// ordered by URL.
	Scripts []ScriptDiff `json:"scripts"`
	// UnchangedScripts counts scripts identical in both runs.
	UnchangedScripts int `json:"unchanged_scripts"`
}

// HasChanges reports whether anything differs between the runs.
func (d *RunDiff) HasChanges() bool {
	return len(d.Scripts) > 0
}

// AddedStrings returns the number of strings added across all scripts.
func (d *RunDiff) AddedStrings() int {
	n := 0
	for _, s := range d.Scripts {
		n += len(s.Added)
	}
	return n
}

// RemovedStrings returns the number of strings removed across all scripts.
func (d *RunDiff) RemovedStrings() int {
	n := 0
	for _, s := range d.Scripts {
		n += len(s.Removed)
	}
	return n
}

// CompareRuns compares the findings of older and newer per script URL.
// When a URL occurs more than once in a run, its strings are merged.
func CompareRuns(older, newer *model.RunSummary) *RunDiff {
	diff := &RunDiff{
		Target:  newer.Target,
		Older:   refOf(older),
		Newer:   refOf(newer),
		Scripts: []ScriptDiff{},
	}

	before := groupByURL(older)
	after := groupByURL(newer)

	urls := make([]string, 0, len(before)+len(after))
	for u := range before {
		urls = append(urls, u)
	}
	for u := range after {
		if _, ok := before[u]; !ok {
			urls = append(urls, u)
		}
	}
	sort.Strings(urls)

	for _, u := range urls {
		prev, inOlder := before[u]
		next, inNewer := after[u]

		sd := ScriptDiff{URL: u}
		switch {
		case !inOlder:
			sd.Change = ChangeAdded
			sd.NewerStatus = next.status
			sd.Added = distinct(next.values)
		case !inNewer:
			sd.Change = ChangeRemoved
			sd.OlderStatus = prev.status
			sd.Removed = distinct(prev.values)
		default:
			sd.Change = ChangeChanged
			sd.OlderStatus = prev.status
			sd.NewerStatus = next.status
			sd.Added = subtract(next.values, prev.values)
			sd.Removed = subtract(prev.values, next.values)
			sd.Unchanged = len(intersect(prev.values, next.values))
			if len(sd.Added) == 0 && len(sd.Removed) == 0 && prev.status == next.status {
				diff.UnchangedScripts++
				continue
			}
		}
		diff.Scripts = append(diff.Scripts, sd)
	}

	return diff
}

type scriptFindings struct {
	status string
	values []string
}

func groupByURL(summary *model.RunSummary) map[string]scriptFindings {
	out := make(map[string]scriptFindings, len(summary.Scripts))
	for _, sc := range summary.Scripts {
		f := out[sc.URL]
		if f.status == "" || f.status == model.FailureNone.String() {
			f.status = sc.Status
		}
		f.values = append(f.values, sc.Strings...)
		out[sc.URL] = f
	}
	return out
}

func refOf(summary *model.RunSummary) RunRef {
	return RunRef{
		ID:          summary.ID,
		StartedAt:   summary.StartedAt,
		ScriptCount: len(summary.Scripts),
		FailedCount: summary.FailedCount(),
		StringCount: summary.TotalStrings(),
	}
}

// distinct returns values without repeats, keeping first occurrences.
func distinct(values []string) []string {
	return subtract(values, nil)
}

// subtract returns the distinct values of a not present in b, in a's order.
func subtract(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, v := range b {
		exclude[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := exclude[v]; ok {
			continue
		}
		exclude[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func intersect(a, b []string) []string {
	in := make(map[string]struct{}, len(b))
	for _, v := range b {
		in[v] = struct{}{}
	}
	var out []string
	for _, v := range distinct(a) {
		if _, ok := in[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
