package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/s3api"
)

// Operation names recorded in the FakeS3 call log.
const (
	OpGetObject               = "GetObject"
	OpHeadObject              = "HeadObject"
	OpPutObject               = "PutObject"
	OpCreateMultipartUpload   = "CreateMultipartUpload"
	OpUploadPart              = "UploadPart"
	OpCompleteMultipartUpload = "CompleteMultipartUpload"
	OpAbortMultipartUpload    = "AbortMultipartUpload"
)

// Call is one request received by FakeS3.
type Call struct {
	Op         string
	Bucket     string
	Key        string
	UploadID   string
	PartNumber int32
	Range      string
	Size       int
	Parts      []int32
}

type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

type fakeUpload struct {
	bucket      string
	key         string
	contentType string
	metadata    map[string]string
	parts       map[int32][]byte
}

// FakeS3 is an in-memory S3API that behaves like S3 for the calls streams
// make: ranged GETs answer 416 past the end, multipart uploads assemble
// their parts on completion.
type FakeS3 struct {
	mu       sync.Mutex
	objects  map[string]*fakeObject
	uploads  map[string]*fakeUpload
	calls    []Call
	failures map[string]error

	// ChunkSize caps the bytes returned by each Read on a GET body.
	// Zero means unlimited.
	ChunkSize int
}

var _ s3api.S3API = (*FakeS3)(nil)

// NewFakeS3 returns an empty FakeS3.
func NewFakeS3() *FakeS3 {
	return &FakeS3{
		objects:  make(map[string]*fakeObject),
		uploads:  make(map[string]*fakeUpload),
		failures: make(map[string]error),
	}
}

func objectPath(bucket, key string) string {
	return bucket + "/" + key
}

// Seed stores data as bucket/key.
func (f *FakeS3) Seed(bucket, key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectPath(bucket, key)] = &fakeObject{data: append([]byte(nil), data...)}
}

// Object returns the stored bytes of bucket/key.
func (f *FakeS3) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[objectPath(bucket, key)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), obj.data...), true
}

// ContentType returns the content type stored with bucket/key.
func (f *FakeS3) ContentType(bucket, key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.objects[objectPath(bucket, key)]; ok {
		return obj.contentType
	}
	return ""
}

// Metadata returns the user metadata stored with bucket/key.
func (f *FakeS3) Metadata(bucket, key string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj, ok := f.objects[objectPath(bucket, key)]; ok {
		return obj.metadata
	}
	return nil
}

// PendingUploads returns the number of multipart uploads neither completed nor aborted.
func (f *FakeS3) PendingUploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

// FailOn makes every later call to op fail with err. A nil err clears it.
func (f *FakeS3) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Calls returns a copy of the call log.
func (f *FakeS3) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the logged calls to op.
func (f *FakeS3) CallsFor(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Ops returns the logged operation names in order.
func (f *FakeS3) Ops() []string {
	calls := f.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// record logs c and returns the injected failure for its op, if any.
// Callers hold f.mu.
func (f *FakeS3) record(c Call) error {
	f.calls = append(f.calls, c)
	return f.failures[c.Op]
}

// RangeNotSatisfiable builds the error S3 returns for a range past the object end.
func RangeNotSatisfiable() error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusRequestedRangeNotSatisfiable}},
		Err: &smithy.GenericAPIError{
			Code:    "InvalidRange",
			Message: "The requested range is not satisfiable",
		},
	}
}

// GetObject serves the object, or the requested inclusive byte range of it.
func (f *FakeS3) GetObject(
	_ context.Context,
	params *s3.GetObjectInput,
	_ ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	rangeHeader := aws.ToString(params.Range)
	if err := f.record(Call{Op: OpGetObject, Bucket: bucket, Key: key, Range: rangeHeader}); err != nil {
		return nil, err
	}

	obj, ok := f.objects[objectPath(bucket, key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}

	data := obj.data
	if rangeHeader != "" {
		var start, end int64
		if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil {
			return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: err.Error()}
		}
		size := int64(len(data))
		if start >= size {
			return nil, RangeNotSatisfiable()
		}
		if end >= size {
			end = size - 1
		}
		data = data[start : end+1]
	}

	body := append([]byte(nil), data...)
	var reader io.Reader = bytes.NewReader(body)
	if f.ChunkSize > 0 {
		reader = &chunkedReader{r: reader, chunk: f.ChunkSize}
	}

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(reader),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(obj.contentType),
		ETag:          aws.String(CalculateETag(obj.data)),
	}, nil
}

// HeadObject reports the stored object length.
func (f *FakeS3) HeadObject(
	_ context.Context,
	params *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	if err := f.record(Call{Op: OpHeadObject, Bucket: bucket, Key: key}); err != nil {
		return nil, err
	}

	obj, ok := f.objects[objectPath(bucket, key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		Metadata:      obj.metadata,
	}, nil
}

// PutObject stores the request body.
func (f *FakeS3) PutObject(
	_ context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	var data []byte
	if params.Body != nil {
		var err error
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	if err := f.record(Call{Op: OpPutObject, Bucket: bucket, Key: key, Size: len(data)}); err != nil {
		return nil, err
	}

	f.objects[objectPath(bucket, key)] = &fakeObject{
		data:        data,
		contentType: aws.ToString(params.ContentType),
		metadata:    params.Metadata,
	}
	return &s3.PutObjectOutput{ETag: aws.String(CalculateETag(data))}, nil
}

// CreateMultipartUpload opens an upload with a random ID.
func (f *FakeS3) CreateMultipartUpload(
	_ context.Context,
	params *s3.CreateMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, key := aws.ToString(params.Bucket), aws.ToString(params.Key)
	if err := f.record(Call{Op: OpCreateMultipartUpload, Bucket: bucket, Key: key}); err != nil {
		return nil, err
	}

	uploadID := uuid.NewString()
	f.uploads[uploadID] = &fakeUpload{
		bucket:      bucket,
		key:         key,
		contentType: aws.ToString(params.ContentType),
		metadata:    params.Metadata,
		parts:       make(map[int32][]byte),
	}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(uploadID),
	}, nil
}

// UploadPart stores one part of an open upload.
func (f *FakeS3) UploadPart(
	_ context.Context,
	params *s3.UploadPartInput,
	_ ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	var data []byte
	if params.Body != nil {
		var err error
		if data, err = io.ReadAll(params.Body); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	uploadID := aws.ToString(params.UploadId)
	partNumber := aws.ToInt32(params.PartNumber)
	call := Call{
		Op:         OpUploadPart,
		Bucket:     aws.ToString(params.Bucket),
		Key:        aws.ToString(params.Key),
		UploadID:   uploadID,
		PartNumber: partNumber,
		Size:       len(data),
	}
	if err := f.record(call); err != nil {
		return nil, err
	}

	upload, ok := f.uploads[uploadID]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	upload.parts[partNumber] = data
	return &s3.UploadPartOutput{ETag: aws.String(CalculateETag(data))}, nil
}

// CompleteMultipartUpload assembles the listed parts into the object.
func (f *FakeS3) CompleteMultipartUpload(
	_ context.Context,
	params *s3.CompleteMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uploadID := aws.ToString(params.UploadId)
	var listed []types.CompletedPart
	if params.MultipartUpload != nil {
		listed = params.MultipartUpload.Parts
	}
	numbers := make([]int32, len(listed))
	for i, p := range listed {
		numbers[i] = aws.ToInt32(p.PartNumber)
	}

	call := Call{
		Op:       OpCompleteMultipartUpload,
		Bucket:   aws.ToString(params.Bucket),
		Key:      aws.ToString(params.Key),
		UploadID: uploadID,
		Parts:    numbers,
	}
	if err := f.record(call); err != nil {
		return nil, err
	}

	upload, ok := f.uploads[uploadID]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	if len(listed) == 0 || !sort.SliceIsSorted(numbers, func(i, j int) bool { return numbers[i] < numbers[j] }) {
		return nil, &smithy.GenericAPIError{Code: "InvalidPartOrder", Message: "parts must be listed in ascending order"}
	}

	var assembled []byte
	for _, p := range listed {
		data, ok := upload.parts[aws.ToInt32(p.PartNumber)]
		if !ok || CalculateETag(data) != aws.ToString(p.ETag) {
			return nil, &smithy.GenericAPIError{Code: "InvalidPart", Message: "part not found or etag mismatch"}
		}
		assembled = append(assembled, data...)
	}

	f.objects[objectPath(upload.bucket, upload.key)] = &fakeObject{
		data:        assembled,
		contentType: upload.contentType,
		metadata:    upload.metadata,
	}
	delete(f.uploads, uploadID)

	return &s3.CompleteMultipartUploadOutput{
		Bucket: params.Bucket,
		Key:    params.Key,
		ETag:   aws.String(CalculateETag(assembled)),
	}, nil
}

// AbortMultipartUpload discards an open upload.
func (f *FakeS3) AbortMultipartUpload(
	_ context.Context,
	params *s3.AbortMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uploadID := aws.ToString(params.UploadId)
	call := Call{
		Op:       OpAbortMultipartUpload,
		Bucket:   aws.ToString(params.Bucket),
		Key:      aws.ToString(params.Key),
		UploadID: uploadID,
	}
	if err := f.record(call); err != nil {
		return nil, err
	}

	if _, ok := f.uploads[uploadID]; !ok {
		return nil, &types.NoSuchUpload{}
	}
	delete(f.uploads, uploadID)
	return &s3.AbortMultipartUploadOutput{}, nil
}

// chunkedReader returns at most chunk bytes per Read.
type chunkedReader struct {
	r     io.Reader
	chunk int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(p) > c.chunk {
		p = p[:c.chunk]
	}
	return c.r.Read(p)
}
