package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Debugf("debug %d", 1)
	l.Printf("info %d", 2)
	assert.Empty(t, buf.String())

	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)
	out := buf.String()
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "error 4")
	assert.Contains(t, out, "logger_test.go")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" error "))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Printf("x")
		l.Errorf("y")
		l.Debug("z")
	})
	assert.NotNil(t, Default())
}
