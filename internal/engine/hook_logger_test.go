package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerHook(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	hook := LoggerHook(zap.New(core))

	hook("coach_response", time.Second, Usage{Prompt: 10, Completion: 5, Total: 15}, nil)
	hook("coach_response", time.Second, Usage{}, &ResponseValidationError{Schema: "coach_response"})
	hook("session_summary", time.Second, Usage{}, errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "[Caller] model call finished", entries[0].Message)
	assert.Equal(t, int64(15), entries[0].ContextMap()["total_tokens"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, true, entries[1].ContextMap()["validation"])
	assert.Equal(t, false, entries[2].ContextMap()["validation"])
}

func TestLoggerHookNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LoggerHook(nil)("x", 0, Usage{}, nil)
	})
}
