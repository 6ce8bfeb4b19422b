package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/jssift/internal/database"
	"github.com/nao1215/jssift/internal/model"
)

// Writer renders run results to a destination.
type Writer interface {
	// Write outputs the summary of one run.
	// It returns the number of bytes written.
	Write(summary *model.RunSummary) (int, error)

	// WriteDiff outputs the comparison of two runs.
	WriteDiff(diff *database.RunDiff) (int, error)
}

// MultiWriter writes to several Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every writer, stopping at the first error.
func (m *MultiWriter) Write(summary *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDiff outputs the comparison to every writer, stopping at the first error.
func (m *MultiWriter) WriteDiff(diff *database.RunDiff) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDiff(diff)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for every timestamp shown to a reader.
const timeLayout = "2006-01-02 15:04:05 MST"

// scriptsInOrder returns the scripts of summary in discovery order without
// reordering the summary itself.
func scriptsInOrder(summary *model.RunSummary) []model.ScriptSummary {
	scripts := make([]model.ScriptSummary, len(summary.Scripts))
	copy(scripts, summary.Scripts)
	sort.SliceStable(scripts, func(i, j int) bool {
		return scripts[i].Index < scripts[j].Index
	})
	return scripts
}

// statusCounts returns how many scripts ended with each status label, in
// taxonomy order. Labels with no scripts are omitted.
func statusCounts(summary *model.RunSummary) []statusCount {
	counts := make(map[string]int)
	for _, s := range summary.Scripts {
		counts[s.Status]++
	}

	kinds := []model.FailureKind{
		model.FailureNone,
		model.FailureTransport,
		model.FailureParse,
		model.FailurePersistence,
		model.FailureInternal,
	}
	out := make([]statusCount, 0, len(kinds))
	for _, k := range kinds {
		if n := counts[k.String()]; n > 0 {
			out = append(out, statusCount{status: k.String(), count: n})
		}
	}
	return out
}

type statusCount struct {
	status string
	count  int
}

func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
