// Package klog centralizes structured logging for klishd and klish,
// following the development/production logrus split used across the
// retrieved example corpus (see DESIGN.md).
package klog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger for component (e.g. "klishd", "klish"). debug
// selects a human-readable text formatter at debug level against
// logFile (or stderr if logFile is empty); otherwise it returns a
// JSON-formatted, info-level logger for a non-debug daemon on a
// production host.
func New(component string, debug bool, logFile string) *logrus.Entry {
	log := logrus.New()

	if debug {
		log.SetLevel(levelFromEnv(logrus.DebugLevel))
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
		log.SetOutput(openOrStderr(logFile))
	} else {
		log.SetLevel(levelFromEnv(logrus.InfoLevel))
		log.Formatter = &logrus.JSONFormatter{}
		log.SetOutput(openOrStderr(logFile))
	}

	return log.WithField("component", component)
}

// Discard returns a logger that drops everything, for tests and
// dry-run tooling that must not touch stderr.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.Out = io.Discard
	return log.WithField("component", "discard")
}

func levelFromEnv(def logrus.Level) logrus.Level {
	if v := os.Getenv("KLISH_LOG_LEVEL"); v != "" {
		if lvl, err := logrus.ParseLevel(v); err == nil {
			return lvl
		}
	}
	return def
}

func openOrStderr(path string) io.Writer {
	if path == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}
