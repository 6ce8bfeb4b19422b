package filter

import "strings"

// lineBreaks removes every character that would split a value across
// artifact lines.
var lineBreaks = strings.NewReplacer(
	"\r", "",
	"\n", "",
	"\u2028", "",
	"\u2029", "",
)

// Option configures a Filter.
type Option func(*Filter)

// WithStoplist drops values contained in l.
func WithStoplist(l *Stoplist) Option {
	return func(f *Filter) {
		f.stoplist = l
	}
}

// Filter cleans raw extracted values. The zero value applies no stoplist.
type Filter struct {
	stoplist *Stoplist
}

// New creates a Filter with the given options.
func New(opts ...Option) Filter {
	var f Filter
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Stoplist returns the attached stoplist, nil if none.
func (f Filter) Stoplist() *Stoplist {
	return f.stoplist
}

// Apply returns the accepted values of in, in order. Empty values and
// stoplisted values are dropped, line breaks are removed from the rest.
// Duplicates are kept. Apply(Apply(x)) equals Apply(x).
func (f Filter) Apply(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || f.stoplist.Contains(s) {
			continue
		}
		s = lineBreaks.Replace(s)
		if s == "" || f.stoplist.Contains(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
