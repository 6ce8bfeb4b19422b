package model

import (
	"fmt"
	"net/http"
)

// TransportError reports a failed fetch of the root page or of a script:
// a connection failure, a timeout, or a non-success HTTP status.
type TransportError struct {
	// URL is the location that could not be fetched.
	URL string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Err is the underlying cause. It may be nil for status failures.
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed http request %s: %s", e.URL, e.Status())
	}
	if e.Err != nil {
		return fmt.Sprintf("failed http request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed http request %s", e.URL)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Status returns the status line ("404 Not Found"), or "unknown" when no
// response was received.
func (e *TransportError) Status() string {
	if e.StatusCode == 0 {
		return "unknown"
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return fmt.Sprintf("%d %s", e.StatusCode, text)
	}
	return fmt.Sprintf("%d", e.StatusCode)
}

// ParseError reports script bytes that are not valid JavaScript.
type ParseError struct {
	// Line is the 1-based line of the offending token, 0 if unknown.
	Line int
	// Column is the 1-based column of the offending token, 0 if unknown.
	Column int
	// Message is the parser's description of the problem.
	Message string
}

// Error implements error.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d column %d", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// PersistenceError reports an artifact that could not be written.
type PersistenceError struct {
	// Ref is the script whose findings were being written.
	Ref ScriptReference
	// Path is the artifact path, empty if it was never determined.
	Path string
	// Err is the underlying file system error.
	Err error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to write file %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to write file: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// CrawlError reports a run that ended before any script was analyzed
// because the root page could not be fetched.
type CrawlError struct {
	// Target is the root location of the run.
	Target string
	// Err is the cause, usually a *TransportError.
	Err error
}

// Error implements error.
func (e *CrawlError) Error() string {
	return fmt.Sprintf("crawl of %s failed: %v", e.Target, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CrawlError) Unwrap() error {
	return e.Err
}
