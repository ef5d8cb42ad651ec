// Package logging provides the leveled logger used throughout FlaxKV.
// It preserves the Debugf/Infof/Warningf/Errorf call shape the teacher
// codebase wired into a third-party consensus library's logger
// interface, but is backed by the standard library's log/slog instead.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Level is a logging verbosity threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// Logger is the leveled logging surface every FlaxKV component takes
// through its constructor rather than reaching for a package-level
// global.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a derived Logger that annotates every record with
	// the given key/value pairs.
	With(args ...any) Logger
}

type slogLogger struct {
	level Level
	l     *slog.Logger
}

// New returns a Logger backed by slog.Default(), gated at level.
func New(level Level) Logger {
	return &slogLogger{level: level, l: slog.Default()}
}

// NewWithHandler returns a Logger backed by a custom slog.Handler,
// gated at level, for routing logs to a handler other than the
// default one. No command in this module calls it.
func NewWithHandler(level Level, h slog.Handler) Logger {
	return &slogLogger{level: level, l: slog.New(h)}
}

func NewTextLogger(level Level) Logger {
	return NewWithHandler(level, slog.NewTextHandler(os.Stderr, nil))
}

func (s *slogLogger) log(level Level, sl slog.Level, format string, args ...any) {
	if level < s.level {
		return
	}
	s.l.Log(context.Background(), sl, sprintf(format, args...))
}

func (s *slogLogger) Debugf(format string, args ...any) {
	s.log(LevelDebug, slog.LevelDebug, format, args...)
}

func (s *slogLogger) Infof(format string, args ...any) {
	s.log(LevelInfo, slog.LevelInfo, format, args...)
}

func (s *slogLogger) Warningf(format string, args ...any) {
	s.log(LevelWarning, slog.LevelWarn, format, args...)
}

func (s *slogLogger) Errorf(format string, args ...any) {
	s.log(LevelError, slog.LevelError, format, args...)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{level: s.level, l: s.l.With(args...)}
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
