// Package log is a thin wrapper around logrus shared by every phase of the
// build-file evaluation pipeline.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields.
type Fields = logrus.Fields

// Entry aliases logrus.Entry.
type Entry = logrus.Entry

// Logger is the interface every phase logs diagnostics through.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})

	WithField(key string, value interface{}) *Entry
	WithFields(Fields) *Entry
}

var std = logrus.New()

func init() {
	std.SetOutput(os.Stderr)
	std.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// Std returns the package-wide default logger.
func Std() Logger {
	return std
}

// SetLevel sets the default logger's level by name ("debug", "info",
// "warn", "error"). An unrecognized name leaves the level unchanged.
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// WithPhase returns an entry tagged with the evaluation-pipeline phase
// name, used consistently by project, elaborate, graph, headers and dwyu.
func WithPhase(phase string) *Entry {
	return std.WithField("phase", phase)
}
