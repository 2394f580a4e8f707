// ABOUTME: Tests for logger construction.
// ABOUTME: Verifies level filtering in verbose and quiet modes.
package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestQuietLoggerDropsInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(zapcore.WarnLevel, zapcore.AddSync(&buf))

	log.Info("hidden")
	log.Warn("commit failed")
	_ = log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "commit failed")
	assert.Contains(t, out, "WARN")
}

func TestVerboseLoggerKeepsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(zapcore.DebugLevel, zapcore.AddSync(&buf))

	log.Debug("commit saved")
	_ = log.Sync()

	assert.Contains(t, buf.String(), "commit saved")
}

func TestNewLogger(t *testing.T) {
	assert.True(t, NewLogger(true).Core().Enabled(zapcore.DebugLevel))
	assert.False(t, NewLogger(false).Core().Enabled(zapcore.InfoLevel))
	assert.True(t, NewLogger(false).Core().Enabled(zapcore.ErrorLevel))
}
