// Package logging configures the application logger. The terminal belongs to
// the dashboard, so log output goes to a file or is discarded.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

const DefaultLogFile = "defiprice.log"

// New returns a logger writing JSON lines to path. An empty path with debug
// off discards all output.
func New(path string, debug bool) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		if path == "" {
			path = DefaultLogFile
		}
	}

	if path == "" {
		logger.SetOutput(io.Discard)
		return logger, io.NopCloser(nil), nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(f)
	return logger, f, nil
}

// Discard returns a logger that drops everything. Handy for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
