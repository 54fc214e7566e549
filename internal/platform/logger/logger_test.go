package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/mastery-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		want slog.Level
	}{
		{name: "debug", want: slog.LevelDebug},
		{name: "INFO", want: slog.LevelInfo},
		{name: "Warn", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "verbose", want: slog.LevelInfo},
		{name: "", want: slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ParseLevel(tc.name))
		})
	}
}

func TestSetup(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &TestLogBuffer{}
	log := setup(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NotNil(t, log)

	log.Info("dropped")
	log.Warn("kept", "topic", "fractions")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "fractions", entries[0]["topic"])
	assert.Same(t, log, slog.Default())
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback, fallbackBuf := GetTestLogger(t)
	ctxLogger, ctxBuf := GetTestLogger(t)

	t.Run("falls back without a context logger", func(t *testing.T) {
		FromContextOrDefault(context.Background(), fallback).Info("from fallback")
		AssertLogContains(t, fallbackBuf, "from fallback")
	})

	t.Run("prefers the context logger", func(t *testing.T) {
		ctx := WithLogger(context.Background(), ctxLogger)
		FromContextOrDefault(ctx, fallback).Info("from context")
		AssertLogContains(t, ctxBuf, "from context")
	})

	t.Run("attaches the request id", func(t *testing.T) {
		ctx := WithRequestID(WithLogger(context.Background(), ctxLogger), "req-42")
		FromContextOrDefault(ctx, fallback).Info("with request")
		AssertLogField(t, ctxBuf, "request_id", "req-42")
	})
}

func TestCaptureContext(t *testing.T) {
	t.Parallel()

	ctx, buf := CaptureContext(t)
	FromContext(ctx).Debug("captured", "learner_id", "abc")
	FromContext(ctx).Info("other")

	AssertLogField(t, buf, "learner_id", "abc")
	captured, err := buf.EntriesWithMessage("captured")
	require.NoError(t, err)
	assert.Len(t, captured, 1)
	assert.Empty(t, RequestID(ctx))
}
