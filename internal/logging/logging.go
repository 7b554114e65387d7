// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the leveled, structured logger shared by every
// subsystem in this module.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps a *slog.Logger with the key-value call shape used across
// the codebase: Info/Warn/Error/Debug(msg string, kv ...any).
type Logger struct {
	sl *slog.Logger
}

// New returns a Logger writing JSON lines to w at the given level.
func New(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{sl: slog.New(h)}
}

// Default returns a Logger writing to stderr at Info level.
func Default() *Logger {
	return New(os.Stderr, slog.LevelInfo)
}

// With returns a child Logger with the given key-value pairs attached to
// every subsequent record, e.g. logger.With("slot", 0).
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sl: l.sl.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.sl.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sl.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sl.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.sl.Error(msg, kv...) }

// InfoContext and WarnContext accept a context so log records can carry
// deadline cancellation reasons when a caller has one handy; kept thin
// since the module's workers rarely need them.
func (l *Logger) InfoContext(ctx context.Context, msg string, kv ...any) {
	l.sl.InfoContext(ctx, msg, kv...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, kv ...any) {
	l.sl.WarnContext(ctx, msg, kv...)
}

// Slog exposes the underlying *slog.Logger for packages (like wish
// middleware adapters) that want direct slog.Handler access.
func (l *Logger) Slog() *slog.Logger {
	return l.sl
}
