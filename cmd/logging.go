package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// initLogging sends the logs of every package to stderr. Commands write
// their output on stdout so reports and exports can be piped.
func initLogging(logLevel string, logFormat string) {
	color := isatty.IsTerminal(os.Stderr.Fd())
	slog.SetDefault(newLogger(os.Stderr, slogLevel(logLevel), logFormat, color))
}

func newLogger(w io.Writer, level slog.Level, format string, color bool) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			AddSource:   level == slog.LevelDebug,
			ReplaceAttr: renameJSONKeys,
		}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !color,
	}))
}

// renameJSONKeys follows the structured logging keys of log collectors.
func renameJSONKeys(groups []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}
