package app

import (
	"io"
	"log/slog"
)

// newLogger builds the isolated logger of one App. Diagnostics go to logW so
// that the resolved configuration on the output writer stays parseable. The
// global logger is never touched.
func newLogger(levelStr, formatStr string, logW io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelWarn
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(logW, handlerOpts)
	default:
		handler = slog.NewTextHandler(logW, handlerOpts)
	}

	return slog.New(handler).With("app", "buildvariant")
}
