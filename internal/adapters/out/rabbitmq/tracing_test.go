package rabbitmq_test

import (
	"context"
	"testing"

	"orderqueue/internal/adapters/out/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestTracePropagationThroughHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "producer")
	defer span.End()

	headers := rabbitmq.InjectTrace(ctx, nil)
	require.Contains(t, headers, "traceparent")

	extracted := rabbitmq.ExtractTrace(context.Background(), headers)
	remote := trace.SpanContextFromContext(extracted)
	assert.True(t, remote.IsRemote())
	assert.Equal(t, span.SpanContext().TraceID(), remote.TraceID())
}

func TestExtractTrace_NoHeaders(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, rabbitmq.ExtractTrace(ctx, nil))
}
