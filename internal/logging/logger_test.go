package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerRejectsInvalidFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg)
	require.Error(t, err)
}

func TestLoggerContextFields(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithQueryID(ctx, "query-1")

	tl.Info(ctx, "query received", zap.String("collection", "wing-archive"))

	tl.AssertLogged(t, zapcore.InfoLevel, "query received")
	tl.AssertField(t, "query received", "request.id", "req-1")
	tl.AssertField(t, "query received", "query.id", "query-1")
	tl.AssertField(t, "query received", "collection", "wing-archive")
}

func TestLoggerWithAddsFields(t *testing.T) {
	tl := NewTestLogger()
	child := tl.With(zap.String("component", "datcom"))
	child.Info(context.Background(), "stage complete")
	tl.AssertLogged(t, zapcore.InfoLevel, "stage complete")
	tl.AssertField(t, "stage complete", "component", "datcom")
}

func TestFromContextReturnsNopWhenMissing(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
	assert.False(t, l.Enabled(zapcore.InfoLevel))
}
