// Package applog provides the leveled logger that store, schema, graph,
// and cep write failures through. Not every error return in those
// packages is logged: graph's Connect and cep's PersistArchived, among
// others, return their errors without a log entry. It wraps log/slog with an optional rotating file sink so a
// long-running CEP ingest doesn't grow one log file without bound.
package applog

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the narrow entry-point contract the core depends on: every
// call names the component that failed, a line-like location string, and
// a message. This mirrors the C original's
// info/debug/warn/error/fatal(logger, function_name, line, message) shape
// closely enough that a reader porting call sites can match them 1:1.
type Logger struct {
	slog *slog.Logger
	file *lumberjack.Logger
}

// New builds a Logger that writes structured text to stderr and, when
// filePath is non-empty, also rotates into filePath via lumberjack
// (100MB per file, 5 backups, 28 days, matching the teacher's defaults
// for its own log rotation needs).
func New(filePath string) *Logger {
	var w io.Writer = os.Stderr
	l := &Logger{}
	if filePath != "" {
		l.file = &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, l.file)
	}
	l.slog = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return l
}

// Discard returns a Logger that drops everything, for tests and
// call sites that don't care to wire a sink.
func Discard() *Logger {
	return &Logger{slog: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Debug(component, location, msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, component, location, msg, args...)
}

func (l *Logger) Info(component, location, msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, component, location, msg, args...)
}

func (l *Logger) Warn(component, location, msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, component, location, msg, args...)
}

func (l *Logger) Error(component, location, msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, component, location, msg, args...)
}

// Fatal logs at error level and exits the process. It is reserved for the
// demo CLI's top-level command handlers; library code never calls it.
func (l *Logger) Fatal(component, location, msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, component, location, msg, args...)
	os.Exit(1)
}

func (l *Logger) log(ctx context.Context, level slog.Level, component, location, msg string, args ...any) {
	attrs := append([]any{slog.String("component", component), slog.String("at", location)}, args...)
	l.slog.Log(ctx, level, msg, attrs...)
}
