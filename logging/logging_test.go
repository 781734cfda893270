package logging

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWatermillAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewWatermillAdapter(zap.New(core).Sugar())

	adapter.With(watermill.LogFields{"topic": "walletauth.login"}).
		Error("publish failed", errors.New("boom"), watermill.LogFields{"uuid": "1"})
	adapter.Trace("tick", nil)
	adapter.Info("started", watermill.LogFields{"b": 2, "a": 1})

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "walletauth.login", ctx["topic"])
	assert.Equal(t, "1", ctx["uuid"])
	assert.Equal(t, "boom", ctx["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "started", entries[2].Message)
	assert.Len(t, entries[2].Context, 2)
	assert.Equal(t, "a", entries[2].Context[0].Key)
}

func TestSetup(t *testing.T) {
	assert.NoError(t, Setup("debug", "plaintext"))
	assert.Error(t, Setup("loud", "json"))
	assert.Error(t, Setup("info", "xml"))
	assert.NoError(t, Setup("info", "json"))

	assert.NotNil(t, Logger("test"))
}
