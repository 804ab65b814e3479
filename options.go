package s3stream

import (
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// WithRegion sets the AWS region for S3 operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithMaxRetries sets the maximum number of attempts the SDK makes per request.
// Default is 3.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout sets the timeout for individual HTTP requests.
// Default is no timeout (0).
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithCustomHTTPClient allows providing a custom HTTP client.
// It takes precedence over WithTimeout.
func WithCustomHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithStaticCredentials replaces the default credential chain with fixed keys.
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithPartSize sets the default minimum part size for writers.
func WithPartSize(size bytesize.Size) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if size > 0 {
			c.PartSize = size
		}
	}
}

// WithLogger sets the logger passed to every stream.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithMetrics sets the Prometheus collectors updated by every stream.
func WithMetrics(m *metrics.Metrics) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Metrics = m
	}
}

// WithTracerProvider enables OpenTelemetry spans around remote calls.
func WithTracerProvider(tp trace.TracerProvider) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.TracerProvider = tp
	}
}

// WithMinPartSize sets the buffered size that triggers a part upload.
// Sizes below 5 MiB are rejected when the writer is created.
func WithMinPartSize(size bytesize.Size) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.MinPartSize = size
	}
}

// WithContentType sets the content type of the written object.
func WithContentType(contentType string) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.ContentType = contentType
	}
}

// WithStorageClass sets the storage class of the written object.
func WithStorageClass(storageClass s3types.StorageClass) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		c.StorageClass = storageClass
	}
}

// WithMetadata adds user metadata to the written object.
func WithMetadata(metadata map[string]string) s3types.WriterOption {
	return func(c *s3types.WriterConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		maps.Copy(c.Metadata, metadata)
	}
}

// WithObjectSize declares the object size, so the reader stops at size
// without probing past the end.
func WithObjectSize(size int64) s3types.ReaderOption {
	return func(c *s3types.ReaderConfig) {
		c.Size = size
		c.SizeKnown = true
		c.SizeMode = s3types.SizeModeDeclared
	}
}

// WithSizeMode selects how the reader finds the end of the object.
// Declared mode without WithObjectSize issues one HEAD before the first read.
func WithSizeMode(mode s3types.SizeMode) s3types.ReaderOption {
	return func(c *s3types.ReaderConfig) {
		c.SizeMode = mode
	}
}

// WithFiller replaces the routine that drains range bodies.
func WithFiller(f s3types.Filler) s3types.ReaderOption {
	return func(c *s3types.ReaderConfig) {
		c.Filler = f
	}
}
