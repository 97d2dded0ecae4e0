package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{ServiceName: "arche-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{ServiceName: "arche-test", Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestServiceSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() { Tracer = previous })

	_, cast := StartServiceSpan(context.Background(), "votes", "cast")
	EndSpan(cast, nil)
	_, failed := StartRedisSpan(context.Background(), "aside")
	EndSpan(failed, errors.New("connection refused"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "votes.cast", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "redis.aside", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "connection refused", spans[1].Status().Description)
}
