package s3stream

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
	s3errors "github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// TestClient_New tests the New() constructor without touching the network.
func TestClient_New(t *testing.T) {
	base := &aws.Config{Region: "eu-west-1"}

	tests := []struct {
		name       string
		opts       []s3types.Option
		wantRegion string
	}{
		{
			name:       "custom aws config",
			opts:       []s3types.Option{WithAWSConfig(base)},
			wantRegion: "eu-west-1",
		},
		{
			name:       "region overrides custom config",
			opts:       []s3types.Option{WithAWSConfig(base), WithRegion("us-west-2")},
			wantRegion: "us-west-2",
		},
		{
			name:       "empty region falls back to us-east-1",
			opts:       []s3types.Option{WithAWSConfig(&aws.Config{})},
			wantRegion: "us-east-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.opts...)
			require.NoError(t, err)
			require.NotNil(t, client)
			assert.NotNil(t, client.s3Client)
			assert.Equal(t, tt.wantRegion, client.config.Region)
			assert.Equal(t, 3, client.config.RetryMaxAttempts)
		})
	}
}

func TestClient_New_S3Options(t *testing.T) {
	httpClient := &http.Client{Timeout: time.Minute}

	client, err := New(
		WithAWSConfig(&aws.Config{}),
		WithEndpoint("http://localhost:4566"),
		WithForcePathStyle(true),
		WithMaxRetries(7),
		WithCustomHTTPClient(httpClient),
		WithStaticCredentials("AKID", "SECRET", ""),
	)
	require.NoError(t, err)

	raw, ok := client.s3Client.(*s3.Client)
	require.True(t, ok)
	opts := raw.Options()
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:4566", aws.ToString(opts.BaseEndpoint))
	assert.Same(t, httpClient, opts.HTTPClient)
	assert.Equal(t, 7, client.config.RetryMaxAttempts)

	creds, err := client.config.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SECRET", creds.SecretAccessKey)
}

func TestClient_New_Timeout(t *testing.T) {
	client, err := New(WithAWSConfig(&aws.Config{}), WithTimeout(5*time.Second))
	require.NoError(t, err)

	raw := client.s3Client.(*s3.Client)
	httpClient, ok := raw.Options().HTTPClient.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, httpClient.Timeout)
}

func TestClient_NewWithClient(t *testing.T) {
	fake := testutil.NewFakeS3()
	logger := slog.New(slog.DiscardHandler)

	client := NewWithClient(fake, WithLogger(logger), WithPartSize(6*bytesize.MiB))
	assert.Same(t, fake, client.s3Client)
	assert.Same(t, logger, client.settings.Logger)
	assert.Equal(t, 6*bytesize.MiB, client.settings.PartSize)
	assert.NoError(t, client.Close())
}

func TestClient_Stat(t *testing.T) {
	fake := testutil.NewFakeS3()
	fake.Seed(testBucket, testKey, make([]byte, 42))
	client := NewWithClient(fake)

	size, err := client.Stat(context.Background(), testBucket, testKey)
	require.NoError(t, err)
	assert.Equal(t, int64(42), size)

	_, err = client.Stat(context.Background(), testBucket, "missing")
	assert.True(t, s3errors.IsObjectNotFound(err))
}

func TestClient_RoundTrip(t *testing.T) {
	fake := testutil.NewFakeS3()
	client := NewWithClient(fake)
	ctx := context.Background()

	data := testutil.GenerateRandomData(int(6 * bytesize.MiB))

	w, err := client.NewWriter(ctx, testBucket, testKey)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := client.NewReader(ctx, testBucket, testKey, WithSizeMode(s3types.SizeModeDeclared))
	require.NoError(t, err)
	got := make([]byte, 0, len(data))
	buf := make([]byte, 1<<20)
	for {
		n, err := r.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), r.Offset())
}

func TestClient_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	fake := testutil.NewFakeS3()
	client := NewWithClient(fake, WithTracerProvider(tp))

	w, err := client.NewWriter(context.Background(), testBucket, testKey)
	require.NoError(t, err)
	_, err = w.Write([]byte("traced"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{
		"s3.CreateMultipartUpload",
		"s3.UploadPart",
		"s3.CompleteMultipartUpload",
	}, names)
}

// TestClient_ConcurrentStreams checks that one client can hand out streams
// from many goroutines.
func TestClient_ConcurrentStreams(t *testing.T) {
	fake := testutil.NewFakeS3()
	client := NewWithClient(fake)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := testutil.GenerateTestKey("concurrent")
			w, err := client.NewWriter(context.Background(), testBucket, key)
			if !assert.NoError(t, err) {
				return
			}
			_, err = w.Write([]byte{byte(i)})
			assert.NoError(t, err)
			assert.NoError(t, w.Close())
		}(i)
	}
	wg.Wait()

	assert.Len(t, fake.CallsFor(testutil.OpCompleteMultipartUpload), workers)
	assert.Zero(t, fake.PendingUploads())
}
