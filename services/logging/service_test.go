package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewService(t *testing.T) {
	t.Run("creates service with json format", func(t *testing.T) {
		service, err := NewService(Config{Level: Info, Format: "json", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service)
		assert.NotNil(t, service.Logger())
	})

	t.Run("creates service with console format", func(t *testing.T) {
		service, err := NewService(Config{Level: Debug, Format: "console", OutputPath: "stdout"})

		require.NoError(t, err)
		assert.NotNil(t, service)
	})
}

func TestService_NilSafety(t *testing.T) {
	var service *Service

	assert.NotPanics(t, func() {
		service.Debug("debug message")
		service.Info("info message", zap.String("key", "value"))
		service.Warn("warn message")
		service.Error("error message")
	})

	assert.Nil(t, service.Logger())
	assert.NoError(t, service.Sync())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected zapcore.Level
	}{
		{Debug, zapcore.DebugLevel},
		{Info, zapcore.InfoLevel},
		{Warn, zapcore.WarnLevel},
		{Error, zapcore.ErrorLevel},
		{LogLevel("unknown"), zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLogLevel(tt.level))
	}
}
