package s3stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// Client hands out streams over one S3 API client.
// It is safe for concurrent use; the streams it returns are not.
type Client struct {
	// s3Client is the underlying AWS SDK S3 client
	s3Client s3api.S3API

	// config holds the AWS configuration
	config aws.Config

	// settings holds the defaults applied to every stream
	settings s3types.ClientConfig

	// mu protects concurrent access to client configuration
	mu sync.RWMutex
}

func defaultClientConfig() *s3types.ClientConfig {
	return &s3types.ClientConfig{
		MaxRetries: 3,
		PartSize:   s3types.MinPartSize,
	}
}

// New creates a new client with the provided options.
// It loads AWS credentials using the default credential chain
// unless static credentials or a custom AWS config are given.
//
// Example:
//
//	client, err := s3stream.New(
//	    s3stream.WithRegion("us-west-2"),
//	    s3stream.WithMaxRetries(5),
//	)
func New(opts ...s3types.Option) (*Client, error) {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("newClient", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	if clientCfg.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			clientCfg.AccessKeyID,
			clientCfg.SecretAccessKey,
			clientCfg.SessionToken,
		))
	}

	var s3Opts []func(*s3.Options)

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	// A custom HTTP client wins over the timeout shortcut
	switch {
	case clientCfg.CustomHTTPClient != nil:
		httpClient := clientCfg.CustomHTTPClient
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	case clientCfg.Timeout > 0:
		httpClient := &http.Client{
			Timeout: clientCfg.Timeout,
		}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	client := &Client{
		s3Client: s3.NewFromConfig(cfg, s3Opts...),
		config:   cfg,
		settings: *clientCfg,
	}
	client.logger().Debug("client initialized", "region", cfg.Region, "endpoint", clientCfg.Endpoint)

	return client, nil
}

// NewWithClient creates a client over a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, opts ...s3types.Option) *Client {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	return &Client{
		s3Client: s3Client,
		config:   aws.Config{},
		settings: *clientCfg,
	}
}

func (c *Client) logger() *slog.Logger {
	if c.settings.Logger != nil {
		return c.settings.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// NewWriter opens a Writer for bucket/key with the client defaults
// overridden by opts.
func (c *Client) NewWriter(
	ctx context.Context,
	bucket, key string,
	opts ...s3types.WriterOption,
) (*Writer, error) {
	c.mu.RLock()
	cfg := s3types.WriterConfig{
		Object:          s3types.ObjectIdentity{Bucket: bucket, Key: key, Client: c.s3Client},
		MinPartSize:     c.settings.PartSize,
		Instrumentation: c.settings.Instrumentation,
	}
	c.mu.RUnlock()

	for _, opt := range opts {
		opt(&cfg)
	}
	return NewWriter(ctx, cfg)
}

// NewReader opens a Reader for bucket/key. No request is sent until the
// first Read.
func (c *Client) NewReader(
	ctx context.Context,
	bucket, key string,
	opts ...s3types.ReaderOption,
) (*Reader, error) {
	c.mu.RLock()
	cfg := s3types.ReaderConfig{
		Object:          s3types.ObjectIdentity{Bucket: bucket, Key: key, Client: c.s3Client},
		Instrumentation: c.settings.Instrumentation,
	}
	c.mu.RUnlock()

	for _, opt := range opts {
		opt(&cfg)
	}
	return NewReader(ctx, cfg)
}

// Stat returns the size of bucket/key in bytes.
func (c *Client) Stat(ctx context.Context, bucket, key string) (int64, error) {
	c.mu.RLock()
	st := newStore(c.s3Client, c.settings.Instrumentation)
	c.mu.RUnlock()

	return st.HeadObjectSize(ctx, bucket, key)
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return nil
}

// newStore builds the transport streams talk to.
func newStore(api s3api.S3API, inst s3types.Instrumentation) store.Store {
	return store.New(api,
		store.WithLogger(inst.Logger),
		store.WithMetrics(inst.Metrics),
		store.WithTracerProvider(inst.TracerProvider),
	)
}
