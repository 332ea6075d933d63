package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pscheid92/textpulse/internal/platform/correlation"
)

// Logger is the application-wide structured logger.
var Logger *slog.Logger

// InitLogger builds the logger with New, writing to stdout, and installs it as
// the slog default.
func InitLogger(level, format string) {
	Logger = New(os.Stdout, level, format)
	slog.SetDefault(Logger)
}

// New returns a logger writing to w. format is "json" or "text" (default);
// every record carries the correlation ID of its context, if any.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(correlation.NewHandler(handler))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
