// Package logging provides the level-filtered textual log sink
// assumed available by spec.md §6. It mirrors the method set of the
// teacher's types.Logger interface, backed by logrus instead of the
// teacher's hand-rolled stdlib-log wrapper.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the level-filtered sink the bracha core logs through. The
// core never logs below Debug or above Fatal/Panic.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Panicf(format string, args ...interface{})

	// ToggleDebug enables or disables debug-level output and returns
	// the new state.
	ToggleDebug(enabled bool) bool
}

// logrusLogger is the default Logger implementation.
type logrusLogger struct {
	entry *logrus.Logger
}

// NewLogrusLogger returns the default Logger, writing to stderr with
// text formatting, matching the teacher's default_logger.go choice of
// os.Stderr as the sink.
func NewLogrusLogger() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{entry: l}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }
func (l *logrusLogger) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusLogger) ToggleDebug(enabled bool) bool {
	if enabled {
		l.entry.SetLevel(logrus.DebugLevel)
	} else {
		l.entry.SetLevel(logrus.InfoLevel)
	}
	return enabled
}

// noop is a Logger that discards everything, used by tests that don't
// care about log output and don't want to pay logrus's formatting
// cost.
type noop struct{}

// NewNoop returns a Logger that discards all output.
func NewNoop() Logger { return noop{} }

func (noop) Debugf(string, ...interface{}) {}
func (noop) Infof(string, ...interface{})  {}
func (noop) Warnf(string, ...interface{})  {}
func (noop) Errorf(string, ...interface{}) {}
func (noop) Fatalf(string, ...interface{}) {}
func (noop) Panicf(string, ...interface{}) {}
func (noop) ToggleDebug(enabled bool) bool { return enabled }
