package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewConfig(t *testing.T) {
	t.Run("Production", func(t *testing.T) {
		cfg := newConfig("production", "")
		assert.Equal(t, "json", cfg.Encoding)
		assert.Equal(t, "timestamp", cfg.EncoderConfig.TimeKey)
		assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
	})

	t.Run("Development", func(t *testing.T) {
		cfg := newConfig("development", "")
		assert.Equal(t, "console", cfg.Encoding)
		assert.True(t, cfg.Development)
	})

	t.Run("LevelOverride", func(t *testing.T) {
		assert.Equal(t, zapcore.WarnLevel, newConfig("production", "warn").Level.Level())
	})

	t.Run("BadLevelIgnored", func(t *testing.T) {
		assert.Equal(t, zapcore.DebugLevel, newConfig("development", "loud").Level.Level())
	})
}

func TestL(t *testing.T) {
	original := log
	defer func() { log = original }()

	log = nil
	t.Setenv("APP_ENV", "test")

	assert.NotNil(t, L())
	assert.NotNil(t, log)
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	assert.Equal(t, "req-1", RequestIDFrom(ctx))
	assert.Equal(t, "", RequestIDFrom(context.Background()))
}

func TestFromCtx(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	original := log
	log = zap.New(core)
	defer func() { log = original }()

	t.Run("RequestAndTrace", func(t *testing.T) {
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		require.NoError(t, err)

		ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID,
			SpanID:  spanID,
		}))
		ctx = WithRequestID(ctx, "req-abc")

		FromCtx(ctx).Info("payment initiated")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, "req-abc", fields["request_id"])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	})

	t.Run("Bare", func(t *testing.T) {
		FromCtx(context.Background()).Info("no context")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		assert.Empty(t, logs[0].ContextMap())
	})
}

func TestReplace(t *testing.T) {
	original := L()
	replacement := zap.NewNop()

	restore := Replace(replacement)
	assert.Same(t, replacement, L())

	restore()
	assert.Same(t, original, L())
}

func TestSync(t *testing.T) {
	assert.NotPanics(t, Sync)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	t.Run("Generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/track/x", nil))

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		assert.Equal(t, w.Header().Get(RequestIDHeader), seen)
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders/track/x", nil)
		req.Header.Set(RequestIDHeader, "gw-123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "gw-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "gw-123", seen)
	})
}
