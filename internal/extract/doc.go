// Package extract pulls string literals out of JavaScript source.
//
// # Strategies
//
// The default strategy (ModeReachable) parses a script with
// github.com/tdewolff/parse/v2/js and walks the syntax tree with a
// reachability classifier. Only string literals sitting in evaluated
// positions are reported.
//
// The coarse strategy (ModeCoarse) skips the classifier and reports every
// identifier, string and template chunk in token order. It is meant to be
// combined with the stoplist of package filter.
//
// # Reachable positions
//
// A literal is reported when the program evaluates it for its value:
//   - call and constructor arguments, and the callee itself
//   - return and yield operands
//   - if, while, do and for conditions, and the for update clause
//   - let and const initializers, assignment right-hand sides and the
//     operands of other operators
//   - the tag and substitutions of a tagged template
//   - the target of an optional chain (f("x")?.y, "x"?.length)
//
// Everything else is left out: object keys and values, array entries,
// untagged templates, var initializers, and the target and key of a plain
// member access. Parentheses end an optional chain, so (f("x")?.a).b hides
// "x". Switch, throw, try, for-in and for-of statements are skipped whole.
//
// # Usage
//
//	values, err := extract.NewExtractor(extract.ModeReachable).Extract(body)
//	if err != nil {
//	    var parseErr *model.ParseError
//	    errors.As(err, &parseErr) // line and column of the offending token
//	}
//
// Walking is pure: a Script is owned by the goroutine that parsed it and
// nothing is shared between walks, so scripts can be processed in parallel.
package extract
