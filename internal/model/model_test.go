package model

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

func TestNewCrawlTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr error
		host    string
	}{
		{name: "https URL", raw: "https://Example.com/app/", host: "example.com"},
		{name: "http URL with port", raw: "http://example.com:8080/", host: "example.com"},
		{name: "surrounding spaces", raw: "  https://example.com  ", host: "example.com"},
		{name: "empty", raw: "", wantErr: ErrEmptyTarget},
		{name: "relative", raw: "/app/index.html", wantErr: ErrRelativeTarget},
		{name: "ftp scheme", raw: "ftp://example.com/", wantErr: ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target, err := NewCrawlTarget(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := target.Host(); got != tt.host {
				t.Errorf("Host() = %q, want %q", got, tt.host)
			}
		})
	}

	t.Run("URL returns a copy", func(t *testing.T) {
		t.Parallel()

		target, err := NewCrawlTarget("https://example.com/app/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		u := target.URL()
		u.Path = "/changed"
		if target.URL().Path != "/app/" {
			t.Errorf("target was mutated through URL(): %s", target)
		}
	})

	t.Run("onion host is detected", func(t *testing.T) {
		t.Parallel()

		target, err := NewCrawlTarget("http://abcdefghijklmnop.onion/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !target.IsOnion() {
			t.Error("expected IsOnion() to be true")
		}
	})
}

func TestScriptReferenceIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "https://example.com/app/main.js", want: "main.js"},
		{raw: "https://example.com/static/js/", want: "js"},
		{raw: "https://example.com/", want: "index"},
		{raw: "https://example.com", want: "index"},
		{raw: "https://example.com/lib.js?v=3", want: "lib.js"},
		{raw: "https://example.com/a%2Fb.js", want: "a_b.js"},
		{raw: "https://example.com/we%20ird:name.js", want: "we ird_name.js"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			ref := ScriptReference{URL: mustURL(t, tt.raw)}
			if got := ref.Identifier(); got != tt.want {
				t.Errorf("Identifier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "nil", err: nil, want: FailureNone},
		{name: "transport", err: &TransportError{URL: "u", StatusCode: 404}, want: FailureTransport},
		{name: "wrapped transport", err: fmt.Errorf("fetch: %w", &TransportError{URL: "u"}), want: FailureTransport},
		{name: "parse", err: &ParseError{Message: "unexpected }"}, want: FailureParse},
		{name: "persistence", err: &PersistenceError{Err: errors.New("disk full")}, want: FailurePersistence},
		{name: "other", err: errors.New("boom"), want: FailureInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
			if got := ParseFailureKind(tt.want.String()); got != tt.want {
				t.Errorf("ParseFailureKind(%q) = %v, want %v", tt.want.String(), got, tt.want)
			}
		})
	}
}

func TestTransportErrorStatus(t *testing.T) {
	t.Parallel()

	t.Run("with status code", func(t *testing.T) {
		t.Parallel()

		err := &TransportError{URL: "https://example.com/a.js", StatusCode: 404}
		if got := err.Status(); got != "404 Not Found" {
			t.Errorf("Status() = %q", got)
		}
	})

	t.Run("without response", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		err := &TransportError{URL: "https://example.com/a.js", Err: cause}
		if got := err.Status(); got != "unknown" {
			t.Errorf("Status() = %q", got)
		}
		if !errors.Is(err, cause) {
			t.Error("expected errors.Is to reach the cause")
		}
	})
}

func TestRunSummaryRecord(t *testing.T) {
	t.Parallel()

	target, err := NewCrawlTarget("https://example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary := NewRunSummary(target, "reachable")

	ok := AnalysisResult{
		Ref:     ScriptReference{URL: mustURL(t, "https://example.com/b.js"), Index: 1},
		Strings: []string{"a", "b"},
		Elapsed: 5 * time.Millisecond,
	}
	failed := AnalysisResult{
		Ref: ScriptReference{URL: mustURL(t, "https://example.com/a.js"), Index: 0},
		Err: &TransportError{URL: "https://example.com/a.js", StatusCode: 500},
	}
	unwritten := AnalysisResult{
		Ref:     ScriptReference{URL: mustURL(t, "https://example.com/c.js"), Index: 2},
		Strings: []string{"c"},
	}

	summary.Record(ok, "/tmp/b.js.txt", nil)
	summary.Record(failed, "", nil)
	entry := summary.Record(unwritten, "", &PersistenceError{Err: errors.New("read-only file system")})
	summary.Finish()

	if entry.Status != "persistence" {
		t.Errorf("expected persistence status, got %q", entry.Status)
	}
	if got := summary.Succeeded(); got != 1 {
		t.Errorf("Succeeded() = %d, want 1", got)
	}
	if got := summary.FailedCount(); got != 2 {
		t.Errorf("FailedCount() = %d, want 2", got)
	}
	if got := summary.TotalStrings(); got != 3 {
		t.Errorf("TotalStrings() = %d, want 3", got)
	}

	summary.SortByIndex()
	for i, sc := range summary.Scripts {
		if sc.Index != i {
			t.Errorf("Scripts[%d].Index = %d after SortByIndex", i, sc.Index)
		}
	}
	if summary.Scripts[1].Artifact != "/tmp/b.js.txt" {
		t.Errorf("unexpected artifact %q", summary.Scripts[1].Artifact)
	}
}
