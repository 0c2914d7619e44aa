package logger_test

import (
	"errors"
	"testing"

	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestComponentAddsField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.Component(logger.FromZap(zap.New(core)), "QueryEngine")

	log.WithError(errors.New("boom")).Warn("query failed", logger.Fields{"platform": "openai"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "QueryEngine", ctx["component"])
		assert.Equal(t, "openai", ctx["platform"])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	}
}

func TestComponentWithNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Component(nil, "x").Info("hello", nil)
	})
}

func TestNewZapFallsBackToInfo(t *testing.T) {
	l := logger.NewZap("not-a-level", "console")
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
