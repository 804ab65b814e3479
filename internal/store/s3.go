package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/byterange"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/telemetry"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/metrics"
)

// S3Store implements Store on top of an S3 client.
type S3Store struct {
	client  s3api.S3API
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures an S3Store.
type Option func(*S3Store)

// WithLogger sets the logger used for per-call debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *S3Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the collectors updated on every call.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *S3Store) {
		s.metrics = m
	}
}

// WithTracerProvider enables spans around every call.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *S3Store) {
		s.tracer = telemetry.Tracer(tp)
	}
}

// New creates an S3Store over client.
func New(client s3api.S3API, opts ...Option) *S3Store {
	s := &S3Store{
		client: client,
		logger: slog.New(slog.DiscardHandler),
		tracer: telemetry.Tracer(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*S3Store)(nil)

// observe opens a span for op and returns the function that closes it.
func (s *S3Store) observe(
	ctx context.Context,
	spanName, op, bucket, key string,
	attrs ...attribute.KeyValue,
) (context.Context, func(error)) {
	attrs = append(telemetry.ObjectAttributes(bucket, key), attrs...)
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
	began := time.Now()

	return ctx, func(err error) {
		s.metrics.ObserveOperation(op, time.Since(began), err)
		telemetry.RecordError(span, err)
		span.End()
	}
}

// GetObjectRange issues a ranged GET for r.
func (s *S3Store) GetObjectRange(
	ctx context.Context,
	bucket, key string,
	r byterange.Range,
) (io.ReadCloser, error) {
	header := r.String()
	ctx, done := s.observe(ctx, telemetry.SpanGetObjectRange, "getObjectRange", bucket, key,
		attribute.String(telemetry.AttrRange, header))

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(header),
	})
	if err != nil {
		if errors.IsRangeNotSatisfiable(err) {
			// End of object; not a failed operation.
			done(nil)
			s.logger.Debug("range not satisfiable", "bucket", bucket, "key", key, "range", header)
			return nil, errors.NewObjectError("getObjectRange", bucket, key,
				fmt.Errorf("%w: %w", errors.ErrRangeNotSatisfiable, err))
		}
		done(err)
		return nil, errors.NewObjectError("getObjectRange", bucket, key, err)
	}
	done(nil)

	s.logger.Debug("opened range", "bucket", bucket, "key", key, "range", header,
		"size", aws.ToInt64(output.ContentLength))

	body := output.Body
	if body == nil {
		body = http.NoBody
	}
	return &meteredBody{ReadCloser: body, metrics: s.metrics}, nil
}

// HeadObjectSize returns the ContentLength reported by HEAD.
func (s *S3Store) HeadObjectSize(ctx context.Context, bucket, key string) (int64, error) {
	ctx, done := s.observe(ctx, telemetry.SpanHeadObject, "headObject", bucket, key)

	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		done(err)
		return 0, errors.NewObjectError("headObject", bucket, key, err)
	}
	if output.ContentLength == nil {
		err = errors.NewObjectError("headObject", bucket, key, errors.ErrInvalidInput).
			WithMessage("response has no content length")
		done(err)
		return 0, err
	}
	done(nil)

	size := aws.ToInt64(output.ContentLength)
	s.logger.Debug("resolved object size", "bucket", bucket, "key", key, "size", size)
	return size, nil
}

// CreateMultipartSession starts a multipart upload carrying attrs.
func (s *S3Store) CreateMultipartSession(
	ctx context.Context,
	bucket, key string,
	attrs Attributes,
) (string, error) {
	ctx, done := s.observe(ctx, telemetry.SpanCreateMultipart, "createMultipartSession", bucket, key)

	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}

	if attrs.ContentType != "" {
		input.ContentType = aws.String(attrs.ContentType)
	}

	// Set storage class if specified
	if attrs.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(attrs.StorageClass)
	}

	if len(attrs.Metadata) > 0 {
		input.Metadata = attrs.Metadata
	}

	output, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		done(err)
		return "", errors.NewObjectError("createMultipartSession", bucket, key, err)
	}

	uploadID := aws.ToString(output.UploadId)
	if uploadID == "" {
		err = errors.NewObjectError("createMultipartSession", bucket, key, errors.ErrInvalidInput).
			WithMessage("response has no upload id")
		done(err)
		return "", err
	}
	done(nil)

	return uploadID, nil
}

// UploadPart uploads body as part partNumber of uploadID.
func (s *S3Store) UploadPart(
	ctx context.Context,
	bucket, key, uploadID string,
	partNumber int32,
	body []byte,
) (string, error) {
	ctx, done := s.observe(ctx, telemetry.SpanUploadPart, "uploadPart", bucket, key,
		attribute.String(telemetry.AttrUploadID, uploadID),
		attribute.Int(telemetry.AttrPartNumber, int(partNumber)),
		attribute.Int(telemetry.AttrBytes, len(body)))

	output, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(partNumber),
		ContentLength: aws.Int64(int64(len(body))),
		Body:          bytes.NewReader(body),
	})
	done(err)
	if err != nil {
		return "", errors.NewObjectError("uploadPart", bucket, key, err)
	}

	s.metrics.RecordBytes(metrics.DirectionUpload, int64(len(body)))
	s.metrics.ObservePart(len(body))

	return aws.ToString(output.ETag), nil
}

// CompleteMultipartSession commits parts in the given order.
func (s *S3Store) CompleteMultipartSession(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []Part,
) error {
	ctx, done := s.observe(ctx, telemetry.SpanCompleteMultipart, "completeMultipartSession", bucket, key,
		attribute.String(telemetry.AttrUploadID, uploadID),
		attribute.Int(telemetry.AttrPartCount, len(parts)))

	completed := make([]awstypes.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.Number),
		}
	}

	_, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	done(err)
	if err != nil {
		return errors.NewObjectError("completeMultipartSession", bucket, key, err)
	}
	return nil
}

// AbortMultipartSession aborts uploadID.
func (s *S3Store) AbortMultipartSession(ctx context.Context, bucket, key, uploadID string) error {
	ctx, done := s.observe(ctx, telemetry.SpanAbortMultipart, "abortMultipartSession", bucket, key,
		attribute.String(telemetry.AttrUploadID, uploadID))

	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	done(err)
	if err != nil {
		return errors.NewObjectError("abortMultipartSession", bucket, key, err)
	}
	return nil
}

// PutEmptyObject writes a zero-length object carrying attrs.
func (s *S3Store) PutEmptyObject(ctx context.Context, bucket, key string, attrs Attributes) error {
	ctx, done := s.observe(ctx, telemetry.SpanPutEmptyObject, "putEmptyObject", bucket, key)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	}
	if attrs.ContentType != "" {
		input.ContentType = aws.String(attrs.ContentType)
	}
	if attrs.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(attrs.StorageClass)
	}
	if len(attrs.Metadata) > 0 {
		input.Metadata = attrs.Metadata
	}

	_, err := s.client.PutObject(ctx, input)
	done(err)
	if err != nil {
		return errors.NewObjectError("putEmptyObject", bucket, key, err)
	}
	return nil
}

// meteredBody counts bytes read from a range body and reports them on Close.
type meteredBody struct {
	io.ReadCloser
	metrics *metrics.Metrics
	read    int64
}

func (b *meteredBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.read += int64(n)
	return n, err
}

func (b *meteredBody) Close() error {
	b.metrics.RecordBytes(metrics.DirectionDownload, b.read)
	b.read = 0
	return b.ReadCloser.Close()
}
