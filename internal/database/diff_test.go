package database

import (
	"slices"
	"testing"
	"time"

	"github.com/nao1215/jssift/internal/model"
)

func TestCompareRuns(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	older := sampleRun("https://example.com/", t0,
		okScript("https://example.com/app.js", 0, "/api/v1", "token-old", "shared"),
		okScript("https://example.com/gone.js", 1, "legacy"),
		okScript("https://example.com/same.js", 2, "stable"),
	)
	older.ID = 1
	newer := sampleRun("https://example.com/", t0.Add(24*time.Hour),
		okScript("https://example.com/app.js", 0, "/api/v2", "shared", "/api/v2"),
		okScript("https://example.com/same.js", 1, "stable"),
		okScript("https://example.com/new.js", 2, "fresh"),
	)
	newer.ID = 2

	diff := CompareRuns(older, newer)

	if diff.Older.ID != 1 || diff.Newer.ID != 2 {
		t.Errorf("unexpected run refs %+v / %+v", diff.Older, diff.Newer)
	}
	if diff.UnchangedScripts != 1 {
		t.Errorf("expected 1 unchanged script, got %d", diff.UnchangedScripts)
	}
	if len(diff.Scripts) != 3 {
		t.Fatalf("expected 3 changed scripts, got %d: %+v", len(diff.Scripts), diff.Scripts)
	}

	byURL := map[string]ScriptDiff{}
	for _, sd := range diff.Scripts {
		byURL[sd.URL] = sd
	}

	app := byURL["https://example.com/app.js"]
	if app.Change != ChangeChanged {
		t.Errorf("app.js: expected changed, got %q", app.Change)
	}
	if !slices.Equal(app.Added, []string{"/api/v2"}) {
		t.Errorf("app.js: unexpected added %v", app.Added)
	}
	if !slices.Equal(app.Removed, []string{"/api/v1", "token-old"}) {
		t.Errorf("app.js: unexpected removed %v", app.Removed)
	}
	if app.Unchanged != 1 {
		t.Errorf("app.js: expected 1 unchanged, got %d", app.Unchanged)
	}

	if gone := byURL["https://example.com/gone.js"]; gone.Change != ChangeRemoved || !slices.Equal(gone.Removed, []string{"legacy"}) {
		t.Errorf("gone.js: unexpected diff %+v", gone)
	}
	if fresh := byURL["https://example.com/new.js"]; fresh.Change != ChangeAdded || fresh.NewerStatus != "ok" {
		t.Errorf("new.js: unexpected diff %+v", fresh)
	}

	if !slices.IsSortedFunc(diff.Scripts, func(a, b ScriptDiff) int {
		switch {
		case a.URL < b.URL:
			return -1
		case a.URL > b.URL:
			return 1
		}
		return 0
	}) {
		t.Error("expected scripts ordered by URL")
	}
	if !diff.HasChanges() || diff.AddedStrings() != 2 || diff.RemovedStrings() != 3 {
		t.Errorf("unexpected totals: added %d, removed %d", diff.AddedStrings(), diff.RemovedStrings())
	}
}

func TestCompareRunsStatusChange(t *testing.T) {
	t.Parallel()

	now := time.Now()
	older := sampleRun("https://example.com/", now, okScript("https://example.com/a.js", 0))
	broken := model.ScriptSummary{URL: "https://example.com/a.js", Status: model.FailureParse.String()}
	newer := sampleRun("https://example.com/", now.Add(time.Hour), broken)

	diff := CompareRuns(older, newer)
	if len(diff.Scripts) != 1 {
		t.Fatalf("expected status change to be reported, got %+v", diff)
	}
	if sd := diff.Scripts[0]; sd.OlderStatus != "ok" || sd.NewerStatus != "parse" {
		t.Errorf("unexpected statuses %+v", sd)
	}
}

func TestCompareRunsIdentical(t *testing.T) {
	t.Parallel()

	now := time.Now()
	run := sampleRun("https://example.com/", now, okScript("https://example.com/a.js", 0, "x"))
	diff := CompareRuns(run, run)
	if diff.HasChanges() {
		t.Errorf("expected no changes, got %+v", diff.Scripts)
	}
	if diff.UnchangedScripts != 1 {
		t.Errorf("expected 1 unchanged script, got %d", diff.UnchangedScripts)
	}
}

func TestSubtract(t *testing.T) {
	t.Parallel()

	got := subtract([]string{"a", "b", "a", "c"}, []string{"c"})
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("unexpected result %v", got)
	}
	if got := distinct([]string{"x", "x"}); !slices.Equal(got, []string{"x"}) {
		t.Errorf("unexpected distinct %v", got)
	}
}
