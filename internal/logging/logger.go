package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a configured logrus logger. JSON output is used outside
// development so log collectors can ingest the fields directly.
func NewLogger(logLevel string, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(ParseLevel(logLevel))

	if strings.ToLower(environment) == "development" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// ParseLevel converts a string level to logrus.Level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
