package plover

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with plover-specific context.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRequestID adds a request_id field to the logger.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("request_id", id),
	}
}

// WithGeneration adds the snapshot generation to the logger.
func (l *Logger) WithGeneration(gen uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("generation", gen),
	}
}

// WithComponent scopes the logger to a subsystem.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", name),
	}
}

// LogBuild logs the outcome of an index build.
func (l *Logger) LogBuild(ctx context.Context, stats *Stats, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "build completed",
		"generation", stats.Generation,
		"nodes", stats.Graph.Nodes,
		"edges", stats.Graph.Edges,
		"index_entries", stats.Index.Entries,
		"subclass_parents", stats.SubclassParents,
		"duration", duration,
	)
}

// LogQuery logs one answered or rejected query.
func (l *Logger) LogQuery(ctx context.Context, kind string, edges int, duration time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "query failed",
			"kind", kind,
			"duration", duration,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"kind", kind,
		"edges", edges,
		"duration", duration,
	)
}

// LogRebuild logs a snapshot swap.
func (l *Logger) LogRebuild(ctx context.Context, from, to uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rebuild failed, keeping current snapshot",
			"generation", from,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot swapped",
		"from", from,
		"to", to,
	)
}

// LogOntology logs the state of the predicate expansion.
func (l *Logger) LogOntology(ctx context.Context, predicates int, degraded string) {
	if degraded != "" {
		l.WarnContext(ctx, "predicate expansion degraded to identity",
			"reason", degraded,
		)
		return
	}
	l.DebugContext(ctx, "predicate expansion ready",
		"predicates", predicates,
	)
}
