// Package s3types provides shared type definitions for the s3stream module:
// the object a stream targets, and the client, writer and reader configuration.
package s3types

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/metrics"
)

// Multipart limits imposed by S3.
const (
	// MinPartSize is the smallest size a non-final part may have.
	MinPartSize = 5 * bytesize.MiB

	// MaxPartSize is the largest size any part may have.
	MaxPartSize = 5 * bytesize.GiB

	// MaxPartNumber is the highest part number of a multipart upload.
	MaxPartNumber = 10000
)

// StorageClass represents the S3 storage class for objects.
type StorageClass string

// Predefined S3 storage classes
const (
	StorageClassStandard           StorageClass = "STANDARD"
	StorageClassStandardIA         StorageClass = "STANDARD_IA"
	StorageClassOneZoneIA          StorageClass = "ONEZONE_IA"
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"
	StorageClassGlacier            StorageClass = "GLACIER"
	StorageClassGlacierIR          StorageClass = "GLACIER_IR"
	StorageClassDeepArchive        StorageClass = "DEEP_ARCHIVE"
)

// ObjectIdentity names the object a stream reads or writes and the client
// used to reach it. It is comparable with ==.
type ObjectIdentity struct {
	Bucket string      `validate:"required"`
	Key    string      `validate:"required"`
	Client s3api.S3API `validate:"-"`
}

// String returns the s3:// URI of the object.
func (o ObjectIdentity) String() string {
	return "s3://" + o.Bucket + "/" + o.Key
}

// SizeMode selects how a reader discovers the end of the object.
type SizeMode int

const (
	// SizeModeReactive ends the stream when a range request is answered with
	// "range not satisfiable". It needs no extra request and is the default.
	SizeModeReactive SizeMode = iota

	// SizeModeDeclared ends the stream once the offset reaches the object
	// size. The size comes from configuration or from one HEAD request
	// issued before the first read.
	SizeModeDeclared
)

func (m SizeMode) String() string {
	switch m {
	case SizeModeReactive:
		return "reactive"
	case SizeModeDeclared:
		return "declared"
	default:
		return "unknown"
	}
}

// ParseSizeMode converts "reactive" or "declared" to a SizeMode.
func ParseSizeMode(s string) (SizeMode, bool) {
	switch s {
	case "reactive", "":
		return SizeModeReactive, true
	case "declared":
		return SizeModeDeclared, true
	default:
		return 0, false
	}
}

// Filler drains one range body into p, retrying short reads.
// It returns io.EOF only when no byte could be copied.
type Filler interface {
	Fill(src io.Reader, p []byte) (int, error)
}

// Instrumentation carries the optional logging, metrics and tracing hooks.
type Instrumentation struct {
	Logger         *slog.Logger         `validate:"-"`
	Metrics        *metrics.Metrics     `validate:"-"`
	TracerProvider trace.TracerProvider `validate:"-"`
}

// ClientConfig holds configuration for an s3stream Client.
type ClientConfig struct {
	// Region is the AWS region
	Region string

	// Endpoint overrides the S3 endpoint URL
	Endpoint string

	// ForcePathStyle selects path-style addressing
	ForcePathStyle bool

	// MaxRetries bounds SDK retry attempts. Zero keeps the SDK default.
	MaxRetries int

	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration

	// AccessKeyID, SecretAccessKey and SessionToken, when set, replace the
	// default credential chain
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// CustomAWSConfig replaces default configuration loading
	CustomAWSConfig *aws.Config

	// CustomHTTPClient replaces the SDK HTTP client
	CustomHTTPClient *http.Client

	// PartSize is the default minimum part size for writers
	PartSize bytesize.Size

	Instrumentation
}

// Option configures a Client.
type Option func(*ClientConfig)

// WriterConfig configures one Writer.
type WriterConfig struct {
	Object ObjectIdentity

	// MinPartSize is the buffered size that triggers a part upload.
	// Zero selects MinPartSize.
	MinPartSize bytesize.Size `validate:"gte=5242880,lte=5368709120"`

	ContentType  string
	StorageClass StorageClass
	Metadata     map[string]string `validate:"-"`

	Instrumentation
}

// WriterOption configures a Writer.
type WriterOption func(*WriterConfig)

// ReaderConfig configures one Reader.
type ReaderConfig struct {
	Object ObjectIdentity

	SizeMode SizeMode `validate:"oneof=0 1"`

	// Size is the declared object size, used when SizeKnown is set.
	Size      int64 `validate:"gte=0"`
	SizeKnown bool

	// Filler drains range bodies. Nil selects the default retrying reader.
	Filler Filler `validate:"-"`

	Instrumentation
}

// ReaderOption configures a Reader.
type ReaderOption func(*ReaderConfig)
