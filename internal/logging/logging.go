// Package logging constructs the process-wide zap logger used by every
// other package. Unlike a global logger, callers receive a *zap.Logger
// from New and pass it down through constructors; packages that need a
// scoped logger call With* helpers rather than reaching for a singleton.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls the logger constructed by New.
type Options struct {
	// Verbose enables debug-level logging and a development encoder
	// (console output, stack traces on Warn+) instead of JSON production
	// output.
	Verbose bool
}

// New builds the root logger for the process.
func New(opts Options) (*zap.Logger, error) {
	if opts.Verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return cfg.Build()
}

// WithSession returns a child logger tagged with a session id, the way a
// handler scopes every log line it emits for the duration of one client's
// connection.
func WithSession(l *zap.Logger, sessionID string) *zap.Logger {
	return l.With(zap.String("session_id", sessionID))
}

// WithTask returns a child logger further tagged with a task id.
func WithTask(l *zap.Logger, taskID int32) *zap.Logger {
	return l.With(zap.Int32("task_id", taskID))
}
