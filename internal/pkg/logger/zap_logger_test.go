package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDetailsBecomeTopLevelFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newZapLogger(core)

	l.Info("Dispatcher", "turn handled", map[string]interface{}{"intent": "size_recommendation", "session_id": "s-1"})
	l.Error("Dispatcher", "handler failed", map[string]interface{}{"error": errors.New("boom"), "stage": "handle"})
	l.Warn("Dispatcher", "nil details", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	first := entries[0].ContextMap()
	assert.Equal(t, "Dispatcher", first["module"])
	assert.Equal(t, "commerce-assistant", first["service"])
	assert.Equal(t, "size_recommendation", first["intent"])
	assert.Equal(t, "s-1", first["session_id"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "handle", second["stage"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestReservedKeysAreNotOverwritten(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := newZapLogger(core)

	l.Info("Hub", "spoof", map[string]interface{}{"module": "Other"})
	l.Debug("Hub", "below level", nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Hub", entries[0].ContextMap()["module"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("x", "y", nil)
	assert.NoError(t, l.Sync())
}
