package sagalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewEntry_WithoutSpan(t *testing.T) {
	e := NewEntry(context.Background(), "run-1", StatusStarted, "")

	assert.Equal(t, "run-1", e.SagaID)
	assert.Empty(t, e.TraceID)
	assert.Empty(t, e.SpanID)
	assert.False(t, e.At.IsZero())
}

func TestNewEntry_StampsActiveSpan(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	e := NewEntry(ctx, "run-2", StatusFailed, "Persist_Order_Step")

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", e.TraceID)
	assert.Equal(t, "00f067aa0ba902b7", e.SpanID)
	assert.Equal(t, "Persist_Order_Step", e.Step)
}
