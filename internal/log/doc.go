// Package log builds the slog loggers used by jssift.
//
// Every logger is wrapped in a SecureHandler, which masks attribute values
// that carry credentials before they reach the output.
//
// # Masking
//
// The SecureHandler inspects every attribute, including attributes nested
// in groups and attributes bound with With:
//   - attributes whose key names a secret (cookie, authorization, token, ...)
//   - string values that look like a credential (JWT, bearer or basic
//     authorization, AWS access key, private key block)
//   - header maps passed as attributes, entry by entry
//   - signed URLs, whose credential query parameters are masked while the
//     rest of the URL stays readable
//
// Masking applies at every level. Sites crawled with a cookie or an
// Authorization header from the .jssift file are logged at Debug level
// when --verbose is set, and those values must not appear there.
//
// # Levels
//
// verbose selects slog.LevelDebug. Otherwise only warnings and errors are
// written, so that the per-script progress lines on stdout stay readable.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetching target",
//	    "url", "https://example.com/?X-Amz-Signature=abc", // signature masked
//	    "cookie", "session=abc123",                         // masked
//	)
//
// NewSecureJSONLogger writes the same records as JSON lines. The loggers
// are also handed to tornago when an embedded Tor daemon is started.
package log
