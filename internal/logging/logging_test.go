package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "test")

	l.Info("upload submitted", "project", "Project Alpha", "files", 2)
	l.Debug("tick")
	l.Warn("slow")
	l.Error("boom", "error", "x")

	require.Equal(t, 4, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "upload submitted", entry.Message)
	assert.Equal(t, map[string]any{"component": "test", "project": "Project Alpha", "files": int64(2)}, entry.ContextMap())
	assert.Equal(t, 1, logs.FilterMessage("boom").Len())
}

func TestNew_Levels(t *testing.T) {
	l, err := New("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = New("loud", false)
	assert.Error(t, err)

	NewNop().Info("discarded")
}
