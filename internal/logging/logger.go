// Package logging builds the leveled slog.Logger used across codelens.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/codelens/internal/model"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is a custom slog level below Debug for full content logging
// (section texts, LLM prompts and responses).
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps "info", "debug", "trace" or "warn" to a slog.Level.
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FromConfig creates the process logger. With logging.file set, output
// goes to a size-rotated file; otherwise to stderr. The returned closer
// must be called on shutdown.
func FromConfig(cfg model.LoggingConfig) (*slog.Logger, io.Closer) {
	if cfg.File == "" {
		return NewLogger(cfg.Level, os.Stderr), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	return NewLogger(cfg.Level, rotator), rotator
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
