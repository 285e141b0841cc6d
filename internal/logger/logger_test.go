package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerWithOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithOutput(&buf)

	l.Info("order", "fulfilled")
	l.LogSecurity("LOGIN_FAILED", "bad password")

	out := buf.String()
	assert.Contains(t, out, "INFO  [ORDER     ] fulfilled")
	assert.Contains(t, out, "WARN  [SECURITY  ] [LOGIN_FAILED] bad password")
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("X", "y") })
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, parseLevel("debug"))
	assert.Equal(t, ERROR, parseLevel("ERROR"))
	assert.Equal(t, INFO, parseLevel(""))
}
