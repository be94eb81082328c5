package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, int(slog.LevelInfo))

	l.Debug("hidden")
	l.Info("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, 0).With("component", "gate")

	l.Info("attempt")

	assert.Contains(t, buf.String(), "component=gate")
}
