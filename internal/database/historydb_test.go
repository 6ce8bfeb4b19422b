package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/jssift/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRun(target string, started time.Time, scripts ...model.ScriptSummary) *model.RunSummary {
	if scripts == nil {
		scripts = []model.ScriptSummary{}
	}
	return &model.RunSummary{
		Target:     target,
		Mode:       "reachable",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Scripts:    scripts,
	}
}

func okScript(url string, index int, values ...string) model.ScriptSummary {
	return model.ScriptSummary{
		URL:         url,
		Index:       index,
		Identifier:  filepath.Base(url),
		Status:      model.FailureNone.String(),
		StringCount: len(values),
		Strings:     values,
		Artifact:    "out/" + filepath.Base(url) + ".txt",
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("directory must not be created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		ctx := context.Background()
		if _, err := db1.SaveRun(ctx, sampleRun("https://example.com/", time.Now())); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db2.Close()

		runs, err := db2.ListRuns(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 {
			t.Errorf("expected 1 run, got %d", len(runs))
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true by default")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true by default")
	}
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC)
	failed := model.ScriptSummary{
		URL:        "https://example.com/missing.js",
		Index:      1,
		Identifier: "missing.js",
		Status:     model.FailureTransport.String(),
		Error:      "failed http request https://example.com/missing.js: 404 Not Found",
	}
	run := sampleRun("https://example.com/",
		started,
		okScript("https://example.com/app.js", 0, "https://api.example.com", "token123", "token123"),
		failed,
		okScript("https://example.com/empty.js", 2),
	)

	id, err := db.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if id == 0 || run.ID != id {
		t.Fatalf("expected run ID to be set, got %d (summary %d)", id, run.ID)
	}

	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if got.Target != run.Target || got.Mode != "reachable" {
		t.Errorf("unexpected run header %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("expected start %v, got %v", started, got.StartedAt)
	}
	if got.Duration() != 1500*time.Millisecond {
		t.Errorf("expected duration 1.5s, got %v", got.Duration())
	}
	if len(got.Scripts) != 3 {
		t.Fatalf("expected 3 scripts, got %d", len(got.Scripts))
	}

	app := got.Scripts[0]
	if !slices.Equal(app.Strings, []string{"https://api.example.com", "token123", "token123"}) {
		t.Errorf("strings not preserved in order: %v", app.Strings)
	}
	if app.Artifact != "out/app.js.txt" {
		t.Errorf("unexpected artifact %q", app.Artifact)
	}
	if got.Scripts[1].Status != "transport" || got.Scripts[1].Error != failed.Error {
		t.Errorf("failure not preserved: %+v", got.Scripts[1])
	}
	if got.Scripts[2].Strings != nil {
		t.Errorf("expected no strings, got %v", got.Scripts[2].Strings)
	}
	if got.FailedCount() != 1 || got.TotalStrings() != 3 {
		t.Errorf("unexpected counts: failed %d, strings %d", got.FailedCount(), got.TotalStrings())
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	_, err := db.GetRun(context.Background(), 42)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRunsAndTargets(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, target := range []string{"https://b.example/", "https://a.example/", "https://b.example/"} {
		run := sampleRun(target, base.Add(time.Duration(i)*time.Hour),
			okScript(target+"main.js", 0, "v"))
		if _, err := db.SaveRun(ctx, run); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	targets, err := db.ListTargets(ctx)
	if err != nil {
		t.Fatalf("failed to list targets: %v", err)
	}
	if !slices.Equal(targets, []string{"https://a.example/", "https://b.example/"}) {
		t.Errorf("unexpected targets %v", targets)
	}

	runs, err := db.ListRuns(ctx, "https://b.example/")
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("expected newest first, got %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
	if runs[0].ScriptCount != 1 || runs[0].StringCount != 1 || runs[0].FailedCount != 0 {
		t.Errorf("unexpected metadata %+v", runs[0])
	}

	none, err := db.ListRuns(ctx, "https://unknown.example/")
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no runs, got %d", len(none))
	}
}

func TestDeleteRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.SaveRun(ctx, sampleRun("https://example.com/", time.Now(),
		okScript("https://example.com/a.js", 0, "x", "y")))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if err := db.DeleteRun(ctx, id); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}
	if _, err := db.GetRun(ctx, id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after delete, got %v", err)
	}
	if err := db.DeleteRun(ctx, id); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on second delete, got %v", err)
	}

	var orphans int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM strings`).Scan(&orphans); err != nil {
		t.Fatalf("failed to count strings: %v", err)
	}
	if orphans != 0 {
		t.Errorf("expected cascading delete, %d strings left", orphans)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	for _, s := range []string{
		formatTimestamp(want),
		"2026-05-06T07:08:09Z",
		"2026-05-06 07:08:09",
	} {
		if got := parseTimestamp(s); !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", s, got, want)
		}
	}
	if !parseTimestamp("garbage").IsZero() {
		t.Error("expected zero time for unparseable input")
	}
}
