// Package logging configures the global slog logger for cliprelay.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

const previewLen = 120

// level is shared by every handler Setup installs so SetLevel can change it
// while the process runs.
var level = new(slog.LevelVar)

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Setup configures the global slog logger writing to stderr.
func Setup(format Format, lvl slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, lvl)))
}

// NewHandler builds the handler Setup installs. Text output uses tinter; auto
// picks tinter only when w is a terminal.
func NewHandler(w io.Writer, format Format, lvl slog.Level) slog.Handler {
	level.Set(lvl)
	if format == FormatText || (format == FormatAuto && IsTTY(w)) {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// SetLevel changes the level of the installed handler.
func SetLevel(lvl slog.Level) { level.Set(lvl) }

// Level returns the current level.
func Level() slog.Level { return level.Level() }

// Preview shortens clipboard text for debug logs.
func Preview(text string) string {
	r := []rune(text)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "…"
	}
	return text
}
