// Package store is the remote side of a stream: ranged reads, multipart
// session calls and the zero-length put, expressed over the S3 API.
//
// The store performs exactly one remote call per method and does not retry.
// Retry policy belongs to the AWS SDK client it wraps.
package store

import (
	"context"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/byterange"
)

// Part identifies one uploaded part of a multipart session.
type Part struct {
	Number int32
	ETag   string
}

// Attributes are applied to the object when a session is created or an
// empty object is written.
type Attributes struct {
	ContentType  string
	StorageClass string
	Metadata     map[string]string
}

// Store is the transport used by streams.
type Store interface {
	// GetObjectRange opens the body of the byte window r. The caller closes it.
	// A window starting at or past the object end fails with ErrRangeNotSatisfiable.
	GetObjectRange(ctx context.Context, bucket, key string, r byterange.Range) (io.ReadCloser, error)

	// HeadObjectSize returns the object length in bytes.
	HeadObjectSize(ctx context.Context, bucket, key string) (int64, error)

	// CreateMultipartSession starts a multipart upload and returns its ID.
	CreateMultipartSession(ctx context.Context, bucket, key string, attrs Attributes) (string, error)

	// UploadPart uploads body as partNumber and returns the part ETag.
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, error)

	// CompleteMultipartSession commits parts, which must be in ascending order.
	CompleteMultipartSession(ctx context.Context, bucket, key, uploadID string, parts []Part) error

	// AbortMultipartSession discards the session and any uploaded parts.
	AbortMultipartSession(ctx context.Context, bucket, key, uploadID string) error

	// PutEmptyObject writes a zero-length object.
	PutEmptyObject(ctx context.Context, bucket, key string, attrs Attributes) error
}
