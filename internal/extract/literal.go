package extract

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// decodeString returns the value of a quoted string literal as it appears
// in source, resolving escape sequences.
func decodeString(raw []byte) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		raw = raw[1 : len(raw)-1]
	}
	return unescape(raw)
}

// decodeTemplateChunk returns the cooked value of a template token, which
// carries its delimiters: "`", "${" and "}".
func decodeTemplateChunk(raw []byte) string {
	if len(raw) > 0 && (raw[0] == '`' || raw[0] == '}') {
		raw = raw[1:]
	}
	switch {
	case len(raw) >= 2 && raw[len(raw)-2] == '$' && raw[len(raw)-1] == '{':
		raw = raw[:len(raw)-2]
	case len(raw) >= 1 && raw[len(raw)-1] == '`':
		raw = raw[:len(raw)-1]
	}
	return unescape(raw)
}

// unescape resolves JavaScript escape sequences. Malformed escapes are kept
// verbatim and unpaired surrogates become U+FFFD.
func unescape(b []byte) string {
	if !containsByte(b, '\\') {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		c := b[i]
		if c != '\\' || i+1 == len(b) {
			sb.WriteByte(c)
			i++
			continue
		}

		i++
		c = b[i]
		switch c {
		case 'n':
			sb.WriteByte('\n')
			i++
		case 't':
			sb.WriteByte('\t')
			i++
		case 'r':
			sb.WriteByte('\r')
			i++
		case 'b':
			sb.WriteByte('\b')
			i++
		case 'f':
			sb.WriteByte('\f')
			i++
		case 'v':
			sb.WriteByte('\v')
			i++
		case '\r':
			// line continuation, \r\n counts as one terminator
			i++
			if i < len(b) && b[i] == '\n' {
				i++
			}
		case '\n':
			i++
		case 'x':
			if r, ok := hexValue(b[i+1:], 2); ok {
				sb.WriteRune(r)
				i += 3
			} else {
				sb.WriteString(`\x`)
				i++
			}
		case 'u':
			r, n := unicodeEscape(b[i+1:])
			if n == 0 {
				sb.WriteString(`\u`)
				i++
				break
			}
			i += 1 + n
			switch {
			case 0xD800 <= r && r < 0xDC00:
				if r2, n2 := lowSurrogate(b[i:]); n2 > 0 {
					r = utf16.DecodeRune(r, r2)
					i += n2
				} else {
					r = utf8.RuneError
				}
			case utf16.IsSurrogate(r):
				r = utf8.RuneError
			}
			sb.WriteRune(r)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			r, n := legacyOctal(b[i:])
			sb.WriteRune(r)
			i += n
		default:
			// \<LS>, \<PS> are line continuations, everything else maps to itself.
			r, size := utf8.DecodeRune(b[i:])
			if r != '\u2028' && r != '\u2029' {
				sb.WriteRune(r)
			}
			i += size
		}
	}
	return sb.String()
}

func containsByte(b []byte, c byte) bool {
	for _, x := range b {
		if x == c {
			return true
		}
	}
	return false
}

// hexValue parses exactly n hex digits at the start of b.
func hexValue(b []byte, n int) (rune, bool) {
	if len(b) < n {
		return 0, false
	}
	var r rune
	for _, c := range b[:n] {
		d, ok := hexDigit(c)
		if !ok {
			return 0, false
		}
		r = r<<4 | d
	}
	return r, true
}

func hexDigit(c byte) (rune, bool) {
	switch {
	case '0' <= c && c <= '9':
		return rune(c - '0'), true
	case 'a' <= c && c <= 'f':
		return rune(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return rune(c-'A') + 10, true
	default:
		return 0, false
	}
}

// unicodeEscape parses the part after "\u": either four hex digits or a
// braced code point. It returns the rune and the number of bytes consumed,
// 0 if malformed.
func unicodeEscape(b []byte) (rune, int) {
	if len(b) > 0 && b[0] == '{' {
		var r rune
		for j := 1; j < len(b); j++ {
			if b[j] == '}' {
				if j == 1 || r > utf8.MaxRune {
					return 0, 0
				}
				return r, j + 1
			}
			d, ok := hexDigit(b[j])
			if !ok {
				return 0, 0
			}
			r = r<<4 | d
			if r > utf8.MaxRune {
				return 0, 0
			}
		}
		return 0, 0
	}
	if r, ok := hexValue(b, 4); ok {
		return r, 4
	}
	return 0, 0
}

// lowSurrogate parses a "\uXXXX" low surrogate at the start of b.
func lowSurrogate(b []byte) (rune, int) {
	if len(b) < 6 || b[0] != '\\' || b[1] != 'u' {
		return 0, 0
	}
	r, ok := hexValue(b[2:], 4)
	if !ok || r < 0xDC00 || r > 0xDFFF {
		return 0, 0
	}
	return r, 6
}

// legacyOctal parses up to three octal digits with a value of at most 0377.
// A lone \0 is NUL.
func legacyOctal(b []byte) (rune, int) {
	limit := 3
	if b[0] > '3' {
		limit = 2
	}
	var r rune
	n := 0
	for n < limit && n < len(b) && '0' <= b[n] && b[n] <= '7' {
		r = r<<3 | rune(b[n]-'0')
		n++
	}
	return r, n
}
