package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRequestIDPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		WithRequestID(context.Background(), "")
	})
	assert.Panics(t, func() {
		WithRequestID(context.Background(), "has space")
	})
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	assert.Equal(t, "abc-123", RequestIDFromContext(ctx))
	assert.Equal(t, "", QueryIDFromContext(ctx))
}

func TestQueryIDRoundTrip(t *testing.T) {
	ctx := WithQueryID(context.Background(), "q-1")
	assert.Equal(t, "q-1", QueryIDFromContext(ctx))
}

func TestContextFieldsEmptyWhenUnset(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}
