package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"unknown", logrus.InfoLevel},
		{"", logrus.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "level %q", tt.input)
	}
}

func TestNewLoggerFormatters(t *testing.T) {
	dev := NewLogger("debug", "development")
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())

	prod := NewLogger("warn", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
	assert.Equal(t, logrus.WarnLevel, prod.GetLevel())
}
