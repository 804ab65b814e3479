package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracerReturnsNoOp(t *testing.T) {
	tr := Tracer(nil)
	require.NotNil(t, tr)

	_, span := tr.Start(context.Background(), "test.operation")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := Tracer(tp).Start(context.Background(), SpanUploadPart)
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanUploadPart, spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "boom", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, TracerName, spans[0].InstrumentationScope().Name)
}

func TestObjectAttributes(t *testing.T) {
	attrs := ObjectAttributes("bucket", "key")
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(AttrBucket, "bucket"),
		attribute.String(AttrKey, "key"),
	}, attrs)
}
