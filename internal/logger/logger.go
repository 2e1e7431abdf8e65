package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: JSON to stdout, level from LOG_LEVEL
// (default info). LOG_FORMAT=text switches to the plain formatter for
// local development.
func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	if os.Getenv("LOG_FORMAT") == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}
