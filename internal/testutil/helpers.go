// Package testutil provides test helper functions.
package testutil

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test data for uploads.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateTestKey generates a test S3 object key with optional prefix.
// This helps ensure test isolation by using unique keys.
func GenerateTestKey(prefix string) string {
	timestamp := time.Now().UnixNano()
	random := rand.Int63n(100000)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%stest-object-%d-%d", prefix, timestamp, random)
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CalculateETag calculates the ETag for the given data.
// For simple uploads, this is the MD5 hash.
func CalculateETag(data []byte) string {
	h := md5.Sum(data)
	return fmt.Sprintf(`"%x"`, h)
}

// CreateGetObjectOutput creates a test GetObjectOutput structure.
// This is useful for mocking ranged reads.
func CreateGetObjectOutput(data []byte) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ETag:          aws.String(CalculateETag(data)),
	}
}

// TrackingBody is a response body that records whether it was closed.
type TrackingBody struct {
	io.Reader
	Closed bool
}

// NewTrackingBody wraps r.
func NewTrackingBody(r io.Reader) *TrackingBody {
	return &TrackingBody{Reader: r}
}

// Close marks the body closed.
func (b *TrackingBody) Close() error {
	b.Closed = true
	return nil
}

// FailingReader returns data and then fails with Err.
type FailingReader struct {
	Data []byte
	Err  error
}

func (r *FailingReader) Read(p []byte) (int, error) {
	if len(r.Data) == 0 {
		return 0, r.Err
	}
	n := copy(p, r.Data)
	r.Data = r.Data[n:]
	return n, nil
}
