package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Info("Dispatcher", "resolved", map[string]interface{}{"call_id": "abc123"})
	l.Warn("Dispatcher", "no details", nil)
	l.Error("Dispatcher", "failed", map[string]interface{}{"error": "boom"})

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "Dispatcher", first["module"])
	assert.Equal(t, map[string]interface{}{"call_id": "abc123"}, first["details"])

	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"])
	assert.Equal(t, "boom", entries[2].ContextMap()["error_ref"])
}

func TestNopLoggerSync(t *testing.T) {
	l := NewNopLogger()
	l.Debug("x", "y", nil)
	assert.NoError(t, l.Sync())
}
