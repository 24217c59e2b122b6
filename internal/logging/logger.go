// Package logging defines a minimal structured-logging interface used by
// the dbwire command-line tools. Implementations can wrap slog, zap,
// zerolog, etc. The protocol core itself does not log.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "decoded descriptor stream", "codecs", n)
type Logger interface {
	// Debug logs detail useful when diagnosing a decode or handshake.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given
	// key–value pairs.
	With(args ...any) Logger
}
