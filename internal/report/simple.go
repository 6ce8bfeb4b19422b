package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/jssift/internal/database"
	"github.com/nao1215/jssift/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleWriter outputs human-readable text for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every accepted string under its script.
	verbose bool

	title cases.Caser
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists the accepted strings of each script.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeScripts(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                           JSSIFT REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:    %s\n", summary.Target)
	if summary.ID > 0 {
		fmt.Fprintf(sb, "Run:       #%d\n", summary.ID)
	}
	fmt.Fprintf(sb, "Mode:      %s\n", summary.Mode)
	fmt.Fprintf(sb, "Started:   %s\n", summary.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:  %s\n", summary.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Scripts:   %d (%d ok, %d failed)\n",
		len(summary.Scripts), summary.Succeeded(), summary.FailedCount())
	fmt.Fprintf(sb, "Strings:   %d\n", summary.TotalStrings())
	sb.WriteString("\n")

	counts := statusCounts(summary)
	if len(counts) > 1 || (len(counts) == 1 && counts[0].status != model.FailureNone.String()) {
		for _, c := range counts {
			fmt.Fprintf(sb, "  %-12s %d\n", w.label(c.status)+":", c.count)
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeScripts(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SCRIPTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	scripts := scriptsInOrder(summary)
	if len(scripts) == 0 {
		sb.WriteString("  No scripts discovered\n\n")
		return
	}

	for _, s := range scripts {
		fmt.Fprintf(sb, "  [%s] %s\n", w.label(s.Status), s.URL)
		if s.Failed() {
			fmt.Fprintf(sb, "    Error: %s\n", s.Error)
		}
		if s.Failed() && s.StringCount == 0 {
			continue
		}
		fmt.Fprintf(sb, "    Strings: %d\n", s.StringCount)
		if s.Artifact != "" {
			fmt.Fprintf(sb, "    Artifact: %s\n", s.Artifact)
		}
		if w.verbose {
			for _, v := range s.Strings {
				fmt.Fprintf(sb, "      %s\n", v)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by jssift\n")
	sb.WriteString("https://github.com/nao1215/jssift\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteDiff outputs the comparison of two runs in human-readable format.
func (w *SimpleWriter) WriteDiff(diff *database.RunDiff) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run Comparison: %s\n", diff.Target)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Older run: #%d  %s\n", diff.Older.ID, diff.Older.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Newer run: #%d  %s\n", diff.Newer.ID, diff.Newer.StartedAt.Format(timeLayout))

	sb.WriteString("\nTotals:\n")
	fmt.Fprintf(&sb, "  %-10s  %-8s  %-8s  %-8s\n", "Metric", "Older", "Newer", "Change")
	sb.WriteString("  " + strings.Repeat("-", 40) + "\n")
	rows := []struct {
		name         string
		older, newer int
	}{
		{"Scripts", diff.Older.ScriptCount, diff.Newer.ScriptCount},
		{"Failed", diff.Older.FailedCount, diff.Newer.FailedCount},
		{"Strings", diff.Older.StringCount, diff.Newer.StringCount},
	}
	for _, r := range rows {
		fmt.Fprintf(&sb, "  %-10s  %-8d  %-8d  %-8s\n", r.name, r.older, r.newer, formatDelta(r.newer-r.older))
	}

	if !diff.HasChanges() {
		sb.WriteString("\nNo changes detected.\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "\nChanged scripts (%d, %d unchanged):\n", len(diff.Scripts), diff.UnchangedScripts)
	for _, s := range diff.Scripts {
		fmt.Fprintf(&sb, "\n  [%s] %s\n", w.label(s.Change), s.URL)
		if s.OlderStatus != s.NewerStatus && s.OlderStatus != "" && s.NewerStatus != "" {
			fmt.Fprintf(&sb, "    Status: %s -> %s\n", w.label(s.OlderStatus), w.label(s.NewerStatus))
		}
		for _, v := range s.Added {
			fmt.Fprintf(&sb, "    + %s\n", v)
		}
		for _, v := range s.Removed {
			fmt.Fprintf(&sb, "    - %s\n", v)
		}
	}

	return io.WriteString(w.output, sb.String())
}

// label title-cases a status or change label for display.
func (w *SimpleWriter) label(s string) string {
	return w.title.String(s)
}
