// Package logging provides the leveled log.Logger wrapper the engine and
// graph store call into, following the teacher's own direct use of the
// standard library "log" package rather than a structured-logging
// dependency neither core package actually imports.
package logging

import (
	"io"
	"log"
	"os"
)

// Level gates which leveled helpers actually write output.
type Level int

const (
	LevelDebug Level = iota
	LevelWarn
	LevelError
	LevelSilent
)

// Logger wraps a standard library *log.Logger with Debugf/Warnf/Errorf
// helpers gated by a minimum level, matching the call sites the teacher's
// core packages use directly (log.Printf with a component prefix).
type Logger struct {
	level Level
	out   *log.Logger
}

// New returns a Logger writing to os.Stderr, prefixed with name.
func New(name string) *Logger {
	return NewWithWriter(name, os.Stderr)
}

// NewWithWriter returns a Logger writing to w, for tests that want to
// capture output.
func NewWithWriter(name string, w io.Writer) *Logger {
	return &Logger{level: LevelDebug, out: log.New(w, "["+name+"] ", log.LstdFlags)}
}

// SetLevel changes the minimum level this Logger emits.
func (l *Logger) SetLevel(lvl Level) { l.level = lvl }

func (l *Logger) Debugf(format string, args ...any) {
	if l.level <= LevelDebug {
		l.out.Printf("DEBUG "+format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...any) {
	if l.level <= LevelWarn {
		l.out.Printf("WARN "+format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...any) {
	if l.level <= LevelError {
		l.out.Printf("ERROR "+format, args...)
	}
}
