package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	level := os.Getenv("SHIFTLOG_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	SetLevel(level)
}

// GetLogger returns the shared logger instance.
func GetLogger() *logrus.Logger {
	return logger
}

// SetLevel accepts DEBUG, INFO, WARN or ERROR (any case). Anything else
// resets to INFO.
func SetLevel(level string) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		logger.SetLevel(logrus.DebugLevel)
	case "WARN", "WARNING":
		logger.SetLevel(logrus.WarnLevel)
	case "ERROR":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}
