package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WARN, &buf)

	log.Debug("debug %d", 1)
	log.Info("info %d", 2)
	assert.Empty(t, buf.String())

	log.Warn("warn %d", 3)
	log.Error("error %d", 4)
	out := buf.String()
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "error 4")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(ERROR, &buf)

	log.Warn("hidden")
	assert.Empty(t, buf.String())

	log.SetLevel(DEBUG)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestOffSilencesEverything(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(OFF, &buf)
	log.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestDiscardLogger(t *testing.T) {
	log := NewDiscardLogger()
	// Must not panic and must accept every level.
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
	log.SetLevel(DEBUG)
}

func TestDefaultLoggerSwap(t *testing.T) {
	original := GetDefault()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(NewLogger(INFO, &buf))
	Info("through the default")
	assert.Contains(t, buf.String(), "through the default")
}
