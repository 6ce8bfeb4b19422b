package extract

import (
	"errors"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// Tokens returns every identifier, private name, string literal and template
// chunk of src in token order, without any reachability reasoning. The
// source is parsed first so that invalid scripts fail the same way as in
// Walk.
func Tokens(src []byte) ([]string, error) {
	if _, err := Parse(src); err != nil {
		return nil, err
	}

	buf := make([]byte, len(src), len(src)+1)
	copy(buf, src)
	l := js.NewLexer(parse.NewInputBytes(buf))

	var out []string
	prev := js.ErrorToken
	for {
		tt, data := l.Next()
		if (tt == js.DivToken || tt == js.DivEqToken) && regexpAllowed(prev) {
			tt, data = l.RegExp()
		}

		switch {
		case tt == js.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, toParseError(err)
			}
			return out, nil
		case tt == js.StringToken:
			out = append(out, decodeString(data))
		case tt == js.TemplateToken, tt == js.TemplateStartToken,
			tt == js.TemplateMiddleToken, tt == js.TemplateEndToken:
			out = append(out, decodeTemplateChunk(data))
		case tt == js.PrivateIdentifierToken:
			out = append(out, string(data))
		case js.IsIdentifier(tt):
			out = append(out, string(data))
		}

		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		default:
			prev = tt
		}
	}
}

// regexpAllowed reports whether a slash following prev starts a regular
// expression rather than a division.
func regexpAllowed(prev js.TokenType) bool {
	switch {
	case prev == js.ErrorToken:
		return true
	case js.IsIdentifier(prev), js.IsNumeric(prev):
		return false
	}
	switch prev {
	case js.StringToken, js.RegExpToken, js.PrivateIdentifierToken,
		js.TemplateToken, js.TemplateEndToken,
		js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.ThisToken, js.SuperToken, js.NullToken, js.TrueToken, js.FalseToken,
		js.IncrToken, js.DecrToken:
		return false
	default:
		return true
	}
}
