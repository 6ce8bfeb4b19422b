package extract

import (
	"errors"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"

	"github.com/nao1215/jssift/internal/model"
)

// Script is a parsed JavaScript program.
type Script struct {
	ast *js.AST
}

// Parse parses src as a JavaScript program.
// Syntax errors are returned as *model.ParseError.
func Parse(src []byte) (*Script, error) {
	// The parser appends a NUL sentinel to its input.
	buf := make([]byte, len(src), len(src)+1)
	copy(buf, src)

	ast, err := js.Parse(parse.NewInputBytes(buf), js.Options{})
	if err != nil {
		return nil, toParseError(err)
	}
	return &Script{ast: ast}, nil
}

// Len returns the number of top-level statements.
func (s *Script) Len() int {
	if s == nil || s.ast == nil {
		return 0
	}
	return len(s.ast.List)
}

func toParseError(err error) *model.ParseError {
	var perr *parse.Error
	if errors.As(err, &perr) {
		return &model.ParseError{
			Line:    perr.Line,
			Column:  perr.Column,
			Message: perr.Message,
		}
	}
	return &model.ParseError{Message: err.Error()}
}
