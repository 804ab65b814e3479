// Package telemetry provides OpenTelemetry tracing helpers for stream operations.
//
// Tracing is off unless a TracerProvider is supplied; the no-op provider is
// used otherwise so call sites never need to check.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope reported on every span.
const TracerName = "github.com/input-output-hk/catalyst-forge-libs/s3stream"

// Attribute keys for S3 stream spans.
const (
	AttrBucket     = "storage.bucket"
	AttrKey        = "storage.key"
	AttrUploadID   = "s3.upload_id"
	AttrPartNumber = "s3.part_number"
	AttrRange      = "s3.range"
	AttrBytes      = "s3.bytes"
	AttrPartCount  = "s3.part_count"
)

// Span names, one per remote operation.
const (
	SpanGetObjectRange    = "s3.GetObjectRange"
	SpanHeadObject        = "s3.HeadObject"
	SpanCreateMultipart   = "s3.CreateMultipartUpload"
	SpanUploadPart        = "s3.UploadPart"
	SpanCompleteMultipart = "s3.CompleteMultipartUpload"
	SpanAbortMultipart    = "s3.AbortMultipartUpload"
	SpanPutEmptyObject    = "s3.PutEmptyObject"
)

// Tracer returns the stream tracer from tp, or a no-op tracer when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return tp.Tracer(TracerName)
}

// ObjectAttributes returns the bucket and key attributes shared by all spans.
func ObjectAttributes(bucket, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrBucket, bucket),
		attribute.String(AttrKey, key),
	}
}

// RecordError marks span as failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
