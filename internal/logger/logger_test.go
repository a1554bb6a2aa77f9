package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewQuietByDefault(t *testing.T) {
	log := New(false)
	assert.False(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zapcore.InfoLevel)
	log.Debug("hidden")
	log.Info("blamed file", zap.String("path", "main.go"), zap.Int("lines", 3))
	_ = log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "blamed file")
	assert.Contains(t, out, `"path": "main.go"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":      zapcore.DebugLevel,
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"bogus": zapcore.DebugLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}
