// Package filter turns extracted values into the accepted output sequence.
//
// A Filter drops empty values, optionally drops values found in a shared
// Stoplist, and strips embedded line breaks so that every value fits on one
// line of an artifact. Order and duplicates are preserved.
package filter
