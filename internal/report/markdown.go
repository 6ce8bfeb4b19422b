package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/jssift/internal/database"
	"github.com/nao1215/jssift/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs run results as Markdown documents.
type MarkdownWriter struct {
	baseWriter

	// withStrings appends the accepted strings of every script.
	withStrings bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithStrings appends a section listing the strings of every script.
func WithStrings(enabled bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.withStrings = enabled
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	scripts := scriptsInOrder(summary)

	w.writeHeader(md, summary)
	w.writeOutcomes(md, summary)
	w.writeScripts(md, scripts)
	w.writeFailures(md, scripts)
	if w.withStrings {
		w.writeStrings(md, scripts)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("jssift Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", inlineCode(summary.Target)},
		{"Mode", summary.Mode},
		{"Started", summary.StartedAt.Format(timeLayout)},
		{"Duration", summary.Duration().Round(time.Millisecond).String()},
		{"Scripts", strconv.Itoa(len(summary.Scripts))},
		{"Failed", strconv.Itoa(summary.FailedCount())},
		{"Strings", strconv.Itoa(summary.TotalStrings())},
	}
	if summary.ID > 0 {
		rows = append([][]string{{"Run", "#" + strconv.FormatInt(summary.ID, 10)}}, rows...)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, summary *model.RunSummary) {
	if len(summary.Scripts) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Script Outcomes"),
			piechart.WithShowData(true),
		)
		for _, c := range statusCounts(summary) {
			chart.LabelAndIntValue(c.status, uint64(c.count)) //nolint:gosec // counts are non-negative
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	failed := summary.FailedCount()
	switch {
	case len(summary.Scripts) == 0:
		md.Note("The page references no external scripts.")
	case failed == len(summary.Scripts):
		md.Cautionf("All %d script(s) failed.", failed)
	case failed > 0:
		md.Warningf("%d of %d script(s) failed. Their findings are missing from this report.",
			failed, len(summary.Scripts))
	case summary.TotalStrings() == 0:
		md.Importantf("All %d script(s) were analyzed but no strings were accepted.", len(summary.Scripts))
	default:
		md.Tip("Every script was analyzed successfully.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeScripts(md *markdown.Markdown, scripts []model.ScriptSummary) {
	md.H2("Scripts")
	md.PlainText("")

	if len(scripts) == 0 {
		md.PlainText("No scripts discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(scripts))
	for i, s := range scripts {
		artifact := s.Artifact
		if artifact == "" {
			artifact = "-"
		}
		rows[i] = []string{
			strconv.Itoa(s.Index),
			escapeCell(truncateString(s.URL, 80)),
			statusBadge(s.Status),
			strconv.Itoa(s.StringCount),
			escapeCell(artifact),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Script", "Status", "Strings", "Artifact"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, scripts []model.ScriptSummary) {
	var failed []model.ScriptSummary
	for _, s := range scripts {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	if len(failed) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	for _, s := range failed {
		md.Details(fmt.Sprintf("%s (%s)", s.Identifier, s.Status), s.URL+"\n\n"+s.Error)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeStrings(md *markdown.Markdown, scripts []model.ScriptSummary) {
	md.H2("Strings")
	md.PlainText("")

	for _, s := range scripts {
		if len(s.Strings) == 0 {
			continue
		}
		md.PlainText("### " + s.Identifier)
		md.PlainText("")
		items := make([]string, len(s.Strings))
		for i, v := range s.Strings {
			items[i] = inlineCode(v)
		}
		md.BulletList(items...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [jssift](https://github.com/nao1215/jssift)*")
}

// WriteDiff outputs the comparison of two runs in Markdown format.
func (w *MarkdownWriter) WriteDiff(diff *database.RunDiff) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Run Comparison: " + diff.Target)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Older (#" + strconv.FormatInt(diff.Older.ID, 10) + ")",
			"Newer (#" + strconv.FormatInt(diff.Newer.ID, 10) + ")", "Change"},
		Rows: [][]string{
			{"Started", diff.Older.StartedAt.Format(timeLayout), diff.Newer.StartedAt.Format(timeLayout), "-"},
			{"Scripts", strconv.Itoa(diff.Older.ScriptCount), strconv.Itoa(diff.Newer.ScriptCount),
				formatDelta(diff.Newer.ScriptCount - diff.Older.ScriptCount)},
			{"Failed", strconv.Itoa(diff.Older.FailedCount), strconv.Itoa(diff.Newer.FailedCount),
				formatDelta(diff.Newer.FailedCount - diff.Older.FailedCount)},
			{"Strings", strconv.Itoa(diff.Older.StringCount), strconv.Itoa(diff.Newer.StringCount),
				formatDelta(diff.Newer.StringCount - diff.Older.StringCount)},
		},
	})
	md.PlainText("")

	if !diff.HasChanges() {
		md.Tip("No changes detected between the two runs.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	md.Importantf("%d script(s) changed: %d string(s) added, %d removed.",
		len(diff.Scripts), diff.AddedStrings(), diff.RemovedStrings())
	md.PlainText("")

	md.H2("Changed Scripts")
	md.PlainText("")
	for _, s := range diff.Scripts {
		md.PlainText(fmt.Sprintf("### %s %s", statusBadge(s.Change), inlineCode(s.URL)))
		md.PlainText("")
		if s.OlderStatus != "" && s.NewerStatus != "" && s.OlderStatus != s.NewerStatus {
			md.PlainText(fmt.Sprintf("Status: %s → %s", statusBadge(s.OlderStatus), statusBadge(s.NewerStatus)))
			md.PlainText("")
		}
		items := make([]string, 0, len(s.Added)+len(s.Removed))
		for _, v := range s.Added {
			items = append(items, "➕ "+inlineCode(v))
		}
		for _, v := range s.Removed {
			items = append(items, "➖ "+inlineCode(v))
		}
		if len(items) > 0 {
			md.BulletList(items...)
			md.PlainText("")
		}
	}

	return len(md.String()), md.Build()
}

func statusBadge(status string) string {
	switch status {
	case model.FailureNone.String():
		return "✅ ok"
	case database.ChangeAdded:
		return "🆕 added"
	case database.ChangeRemoved:
		return "🗑️ removed"
	case database.ChangeChanged:
		return "✏️ changed"
	default:
		return "❌ " + status
	}
}

// inlineCode wraps s in a code span long enough not to collide with
// backticks inside s. Line breaks are shown escaped.
func inlineCode(s string) string {
	s = lineBreaks.Replace(s)
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

var lineBreaks = strings.NewReplacer("\r", `\r`, "\n", `\n`)

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
