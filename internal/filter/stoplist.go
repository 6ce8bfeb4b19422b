package filter

import "strings"

// commonStrings are low-signal values that show up in nearly every script:
// keywords, builtin globals, DOM and prototype member names, and bundler
// runtime boilerplate.
var commonStrings = []string{
	// keywords and contextual keywords
	"await", "break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "enum", "export", "extends", "false",
	"finally", "for", "function", "if", "import", "in", "instanceof", "new",
	"null", "return", "super", "switch", "this", "throw", "true", "try",
	"typeof", "var", "void", "while", "with", "yield", "let", "static",
	"implements", "interface", "package", "private", "protected", "public",
	"as", "async", "from", "get", "meta", "of", "set", "target", "undefined",
	"arguments", "eval", "NaN", "Infinity",

	// typeof results and common type names
	"object", "string", "number", "boolean", "symbol", "bigint",

	// builtin globals
	"Object", "Function", "Array", "Number", "parseFloat", "parseInt", "Boolean",
	"String", "Symbol", "Date", "Promise", "RegExp", "Error", "AggregateError",
	"EvalError", "RangeError", "ReferenceError", "SyntaxError", "TypeError",
	"URIError", "globalThis", "JSON", "Math", "Intl", "ArrayBuffer", "Atomics",
	"Uint8Array", "Int8Array", "Uint16Array", "Int16Array", "Uint32Array",
	"Int32Array", "Float32Array", "Float64Array", "Uint8ClampedArray",
	"BigUint64Array", "BigInt64Array", "DataView", "Map", "BigInt", "Set",
	"WeakMap", "WeakSet", "WeakRef", "Proxy", "Reflect", "FinalizationRegistry",
	"SharedArrayBuffer", "decodeURI", "decodeURIComponent", "encodeURI",
	"encodeURIComponent", "escape", "unescape", "isFinite", "isNaN", "console",

	// browser globals
	"window", "document", "navigator", "location", "history", "self", "top",
	"parent", "frames", "localStorage", "sessionStorage", "setTimeout",
	"clearTimeout", "setInterval", "clearInterval", "requestAnimationFrame",
	"cancelAnimationFrame", "fetch", "XMLHttpRequest", "Event", "CustomEvent",
	"MutationObserver", "Element", "HTMLElement", "Node", "Image", "URL",
	"URLSearchParams", "FormData", "Headers", "Request", "Response", "Blob",
	"File", "FileReader", "WebSocket", "Worker", "performance", "crypto",
	"screen", "alert", "confirm", "prompt", "module", "exports", "require",
	"define", "global", "process",

	// prototype and DOM members
	"prototype", "constructor", "__proto__", "length", "name", "message",
	"stack", "call", "apply", "bind", "toString", "valueOf", "hasOwnProperty",
	"isPrototypeOf", "propertyIsEnumerable", "toLocaleString", "push", "pop",
	"shift", "unshift", "slice", "splice", "concat", "join", "reverse", "sort",
	"indexOf", "lastIndexOf", "includes", "forEach", "map", "filter", "reduce",
	"reduceRight", "some", "every", "find", "findIndex", "keys", "values",
	"entries", "assign", "create", "defineProperty", "defineProperties",
	"getOwnPropertyNames", "getOwnPropertyDescriptor", "getPrototypeOf",
	"setPrototypeOf", "freeze", "isArray", "from", "then", "catch", "finally",
	"resolve", "reject", "all", "race", "allSettled", "next", "done", "value",
	"iterator", "asyncIterator", "toStringTag", "hasInstance", "replace",
	"split", "substring", "substr", "charAt", "charCodeAt", "fromCharCode",
	"codePointAt", "trim", "toLowerCase", "toUpperCase", "startsWith",
	"endsWith", "match", "test", "exec", "parse", "stringify", "now",
	"getElementById", "getElementsByTagName", "getElementsByClassName",
	"querySelector", "querySelectorAll", "createElement", "appendChild",
	"removeChild", "insertBefore", "setAttribute", "getAttribute",
	"removeAttribute", "addEventListener", "removeEventListener",
	"dispatchEvent", "preventDefault", "stopPropagation", "innerHTML",
	"textContent", "className", "classList", "style", "head", "body", "src",
	"href", "type", "id", "data", "key", "ref", "props", "state", "children",
	"default", "enumerable", "configurable", "writable", "use strict",

	// bundler runtime
	"__esModule", "__webpack_require__", "__webpack_exports__",
	"__webpack_modules__", "webpackChunk", "webpackJsonp", "__dirname",
	"__filename", "Module", "e", "t", "n", "r", "o", "i", "a", "s", "u", "c",
	"l", "f", "d", "p", "h", "m", "v", "g", "y", "b", "w", "x", "_", "$",
}

// Stoplist is an immutable set of values excluded from output.
// It is safe for concurrent use once constructed.
type Stoplist struct {
	set map[string]struct{}
}

// NewStoplist returns the built-in common-token list extended with extra.
// Blank entries in extra are ignored.
func NewStoplist(extra ...string) *Stoplist {
	set := make(map[string]struct{}, len(commonStrings)+len(extra))
	for _, s := range commonStrings {
		set[s] = struct{}{}
	}
	for _, s := range extra {
		if strings.TrimSpace(s) == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return &Stoplist{set: set}
}

// Contains reports whether s is stoplisted.
func (l *Stoplist) Contains(s string) bool {
	if l == nil {
		return false
	}
	_, ok := l.set[s]
	return ok
}

// Len returns the number of entries.
func (l *Stoplist) Len() int {
	if l == nil {
		return 0
	}
	return len(l.set)
}
