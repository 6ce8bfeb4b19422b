// Package report renders run summaries and run comparisons.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured output for other tools
//   - MarkdownWriter: documents for sharing, with a mermaid chart of outcomes
//
// Every writer implements Writer, so several can be combined with
// MultiWriter (for example terminal text plus a Markdown file).
package report
