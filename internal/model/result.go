package model

import (
	"errors"
	"time"
)

// FailureKind classifies the outcome of one script analysis.
type FailureKind int

const (
	// FailureNone means the script was fetched, parsed and sifted.
	FailureNone FailureKind = iota
	// FailureTransport means the script could not be fetched.
	FailureTransport
	// FailureParse means the script is not valid JavaScript.
	FailureParse
	// FailurePersistence means the findings could not be written.
	FailurePersistence
	// FailureInternal means the analysis panicked or failed unexpectedly.
	FailureInternal
)

// String returns the status label used in reports and the run history.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case FailureTransport:
		return "transport"
	case FailureParse:
		return "parse"
	case FailurePersistence:
		return "persistence"
	case FailureInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ParseFailureKind converts a status label back into a FailureKind.
// Unknown labels map to FailureInternal.
func ParseFailureKind(s string) FailureKind {
	switch s {
	case "ok":
		return FailureNone
	case "transport":
		return FailureTransport
	case "parse":
		return FailureParse
	case "persistence":
		return FailurePersistence
	default:
		return FailureInternal
	}
}

// ClassifyError maps an error onto the failure taxonomy.
func ClassifyError(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var transportErr *TransportError
	var parseErr *ParseError
	var persistErr *PersistenceError
	switch {
	case errors.As(err, &transportErr):
		return FailureTransport
	case errors.As(err, &parseErr):
		return FailureParse
	case errors.As(err, &persistErr):
		return FailurePersistence
	default:
		return FailureInternal
	}
}

// AnalysisResult is the terminal outcome of analyzing one ScriptReference.
// Exactly one is produced per reference. Strings is meaningful only when
// Err is nil; it may be empty.
type AnalysisResult struct {
	// Ref is the analyzed script.
	Ref ScriptReference
	// Strings holds the accepted values in source order.
	Strings []string
	// Err is the failure, nil on success.
	Err error
	// Elapsed is the wall time spent on fetch, extraction and filtering.
	Elapsed time.Duration
}

// Failed reports whether the analysis failed.
func (r AnalysisResult) Failed() bool {
	return r.Err != nil
}

// Kind classifies the result.
func (r AnalysisResult) Kind() FailureKind {
	return ClassifyError(r.Err)
}
