package logger

import (
	"testing"

	"trade-store-go/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(config.Logger{Level: "warn", Format: "json"})
	assert.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = NewLogger(config.Logger{Level: "debug", Format: "console"})
	assert.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_Errors(t *testing.T) {
	_, err := NewLogger(config.Logger{Level: "loud", Format: "json"})
	assert.Error(t, err)

	_, err = NewLogger(config.Logger{Level: "info", Format: "xml"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log format")
}
