package fetch

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger forwards resty's printf-style messages to slog. Request
// failures are reported by the caller, so resty errors are logged at
// debug level.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug(l.format(format, v), "source", "resty", "severity", "error")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug(l.format(format, v), "source", "resty", "severity", "warn")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(l.format(format, v), "source", "resty")
}

func (restyLogger) format(format string, v []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
