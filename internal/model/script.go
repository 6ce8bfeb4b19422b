package model

import (
	"net/url"
	"strings"
)

// indexIdentifier names the artifact of a script served from a bare host path.
const indexIdentifier = "index"

// ScriptReference is one external script discovered on the root page.
// Duplicated src attributes yield distinct references with distinct indexes.
type ScriptReference struct {
	// URL is the absolute script location.
	URL *url.URL
	// Index is the position of the script element in document order.
	Index int
	// Page is the document that references the script, if known.
	Page *url.URL
}

// String returns the script URL.
func (r ScriptReference) String() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Identifier returns the stable artifact name of the reference: the last
// non-empty path segment with characters that are unsafe in file names
// replaced by '_'. A reference without a usable segment is named "index".
func (r ScriptReference) Identifier() string {
	if r.URL == nil {
		return indexIdentifier
	}

	path := r.URL.EscapedPath()
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		seg = sanitizeSegment(seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		return seg
	}
	return indexIdentifier
}

// sanitizeSegment replaces path separators, control characters and
// characters rejected by common file systems.
func sanitizeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
