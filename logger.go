package lazylist

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with lazylist-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPosition adds a window position field to the logger.
func (l *Logger) WithPosition(pos Position) *Logger {
	return &Logger{
		Logger: l.Logger.With("position", int(pos)),
	}
}

// WithOp adds an op field to the logger.
func (l *Logger) WithOp(op Op) *Logger {
	return &Logger{
		Logger: l.Logger.With("op", string(op)),
	}
}

// LogDispatch logs the start of a fetch. running is the number of fetches
// already holding a concurrency slot.
func (l *Logger) LogDispatch(ctx context.Context, anchor Position, windowLen int, running int64) {
	l.DebugContext(ctx, "fetch dispatched",
		"anchor", int(anchor),
		"window", windowLen,
		"running", running,
	)
}

// LogFetch logs a completed fetch.
func (l *Logger) LogFetch(ctx context.Context, anchor Position, items int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "fetch failed",
			"anchor", int(anchor),
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "fetch completed",
			"anchor", int(anchor),
			"items", items,
			"elapsed", elapsed,
		)
	}
}

// LogMutation logs an applied window mutation.
func (l *Logger) LogMutation(ctx context.Context, op string, windowLen int) {
	l.DebugContext(ctx, "window mutated",
		"op", op,
		"window", windowLen,
	)
}

// LogStaleCompletion logs a fetch completion that was discarded because the
// window changed underneath it.
func (l *Logger) LogStaleCompletion(ctx context.Context, anchor Position, reason string) {
	l.InfoContext(ctx, "fetch completion discarded",
		"anchor", int(anchor),
		"reason", reason,
	)
}

// LogHandlerPanic logs a panic recovered from the change handler.
func (l *Logger) LogHandlerPanic(ctx context.Context, seq uint64, recovered any) {
	l.ErrorContext(ctx, "change handler panicked",
		"seq", seq,
		"panic", recovered,
	)
}
