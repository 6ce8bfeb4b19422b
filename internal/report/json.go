package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/jssift/internal/database"
	"github.com/nao1215/jssift/internal/model"
)

// JSONWriter outputs run results as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string

	// version, when set, wraps run summaries in a JSONReport.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion wraps run summaries in a JSONReport carrying version.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport is a run summary together with the tool version and counts.
type JSONReport struct {
	Version      string            `json:"version"`
	Succeeded    int               `json:"succeeded"`
	Failed       int               `json:"failed"`
	TotalStrings int               `json:"total_strings"`
	Run          *model.RunSummary `json:"run"`
}

// Write outputs the run summary in JSON format, scripts in discovery order.
func (w *JSONWriter) Write(summary *model.RunSummary) (int, error) {
	ordered := &model.RunSummary{
		ID:         summary.ID,
		Target:     summary.Target,
		Mode:       summary.Mode,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Scripts:    scriptsInOrder(summary),
	}

	if w.version == "" {
		return w.writeJSON(ordered)
	}
	return w.writeJSON(&JSONReport{
		Version:      w.version,
		Succeeded:    summary.Succeeded(),
		Failed:       summary.FailedCount(),
		TotalStrings: summary.TotalStrings(),
		Run:          ordered,
	})
}

// WriteDiff outputs the comparison of two runs in JSON format.
func (w *JSONWriter) WriteDiff(diff *database.RunDiff) (int, error) {
	return w.writeJSON(diff)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
