// Package fmlog is the logging seam library packages accept but never
// reach for themselves. The teacher routes diagnostics through
// astilog.Error(errors.Wrap(err, ...)) at its application boundary
// (src/message.go) while its library-ish code stays silent; corefm's
// core packages (key, undo, put, ops) log nothing on their own. Of them,
// only undo takes an optional Logger (through undo.Init).
package fmlog

import (
	"log"
	"os"

	"github.com/pkg/errors"
)

// Logger is the minimal surface a core package needs: structured enough
// to tell severities apart, small enough that nobody has to implement a
// logging framework just to embed corefm.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

// stdLogger backs Logger with the standard library's log package,
// matching the teacher's habit of defaulting to something boring rather
// than forcing a specific backend on embedders.
type stdLogger struct {
	*log.Logger
	debug bool
}

// New builds a Logger writing to os.Stderr. When debug is false, Debugf
// calls are discarded.
func New(debug bool) Logger {
	return &stdLogger{Logger: log.New(os.Stderr, "corefm: ", log.LstdFlags), debug: debug}
}

func (l *stdLogger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.Printf("debug: "+format, args...)
}

func (l *stdLogger) Infof(format string, args ...any) {
	l.Printf("info: "+format, args...)
}

func (l *stdLogger) Errorf(err error, format string, args ...any) {
	l.Printf("error: %s", errors.Wrapf(err, format, args...))
}

// Discard is a Logger that drops everything, for tests and callers that
// don't want any output.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Debugf(string, ...any)       {}
func (discardLogger) Infof(string, ...any)        {}
func (discardLogger) Errorf(error, string, ...any) {}
