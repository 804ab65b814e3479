package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/byterange"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// recordingStore is a store.Store that logs calls and fails on demand.
type recordingStore struct {
	calls    []string
	parts    []store.Part
	failures map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{failures: make(map[string]error)}
}

func (r *recordingStore) do(op string) error {
	r.calls = append(r.calls, op)
	return r.failures[op]
}

func (r *recordingStore) GetObjectRange(context.Context, string, string, byterange.Range) (io.ReadCloser, error) {
	return nil, r.do("get")
}

func (r *recordingStore) HeadObjectSize(context.Context, string, string) (int64, error) {
	return 0, r.do("head")
}

func (r *recordingStore) CreateMultipartSession(context.Context, string, string, store.Attributes) (string, error) {
	if err := r.do("create"); err != nil {
		return "", err
	}
	return "upload-1", nil
}

func (r *recordingStore) UploadPart(_ context.Context, _, _, _ string, n int32, _ []byte) (string, error) {
	if err := r.do("upload"); err != nil {
		return "", err
	}
	return fmt.Sprintf("etag-%d", n), nil
}

func (r *recordingStore) CompleteMultipartSession(_ context.Context, _, _, _ string, parts []store.Part) error {
	r.parts = parts
	return r.do("complete")
}

func (r *recordingStore) AbortMultipartSession(context.Context, string, string, string) error {
	return r.do("abort")
}

func (r *recordingStore) PutEmptyObject(context.Context, string, string, store.Attributes) error {
	return r.do("put")
}

func TestStart(t *testing.T) {
	st := newRecordingStore()
	s, err := Start(context.Background(), st, "bucket", "key", store.Attributes{})
	require.NoError(t, err)

	assert.Equal(t, "upload-1", s.UploadID())
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, int32(1), s.NextPartNumber())
	assert.Empty(t, s.Parts())
	assert.Equal(t, []string{"create"}, st.calls)
}

func TestStart_PropagatesStoreError(t *testing.T) {
	st := newRecordingStore()
	cause := errors.New("denied")
	st.failures["create"] = cause

	s, err := Start(context.Background(), st, "bucket", "key", store.Attributes{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, cause)
}

func TestSession_UploadAndFinish(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStore()
	s, err := Start(ctx, st, "bucket", "key", store.Attributes{})
	require.NoError(t, err)

	require.NoError(t, s.UploadPart(ctx, []byte("a")))
	require.NoError(t, s.UploadPart(ctx, []byte("b")))
	assert.Equal(t, int32(3), s.NextPartNumber())

	require.NoError(t, s.Finish(ctx))
	assert.Equal(t, StateCommitted, s.State())
	assert.Equal(t, []store.Part{{Number: 1, ETag: "etag-1"}, {Number: 2, ETag: "etag-2"}}, st.parts)
	assert.Equal(t, []string{"create", "upload", "upload", "complete"}, st.calls)

	// Closed sessions refuse everything without remote calls
	assert.ErrorIs(t, s.UploadPart(ctx, []byte("c")), s3errors.ErrSessionClosed)
	assert.ErrorIs(t, s.Finish(ctx), s3errors.ErrSessionClosed)
	assert.ErrorIs(t, s.Abort(ctx), s3errors.ErrSessionClosed)
	assert.Len(t, st.calls, 4)
}

func TestSession_FinishEmpty(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStore()
	s, err := Start(ctx, st, "bucket", "key", store.Attributes{})
	require.NoError(t, err)

	require.NoError(t, s.Finish(ctx))
	assert.Equal(t, StateAborted, s.State())
	assert.Equal(t, []string{"create", "abort", "put"}, st.calls)
}

func TestSession_FinishFailureKeepsOpen(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStore()
	cause := errors.New("complete failed")
	st.failures["complete"] = cause

	s, err := Start(ctx, st, "bucket", "key", store.Attributes{})
	require.NoError(t, err)
	require.NoError(t, s.UploadPart(ctx, []byte("a")))

	assert.ErrorIs(t, s.Finish(ctx), cause)
	assert.Equal(t, StateOpen, s.State())

	require.NoError(t, s.Abort(ctx))
	assert.Equal(t, StateAborted, s.State())
	assert.Equal(t, []string{"create", "upload", "complete", "abort"}, st.calls)
}

func TestSession_UploadFailureNotRecorded(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStore()
	s, err := Start(ctx, st, "bucket", "key", store.Attributes{})
	require.NoError(t, err)

	st.failures["upload"] = errors.New("timeout")
	assert.Error(t, s.UploadPart(ctx, []byte("a")))
	assert.Empty(t, s.Parts())
	assert.Equal(t, int32(1), s.NextPartNumber())
	assert.Equal(t, StateOpen, s.State())
}

func TestSession_PartLimit(t *testing.T) {
	ctx := context.Background()
	st := newRecordingStore()
	s, err := Start(ctx, st, "bucket", "key", store.Attributes{})
	require.NoError(t, err)

	for i := 0; i < s3types.MaxPartNumber; i++ {
		require.NoError(t, s.UploadPart(ctx, []byte{byte(i)}))
	}
	assert.Len(t, s.Parts(), s3types.MaxPartNumber)
	assert.Equal(t, int32(s3types.MaxPartNumber), s.Parts()[s3types.MaxPartNumber-1].Number)
	uploads := len(st.calls)

	err = s.UploadPart(ctx, []byte("overflow"))
	require.Error(t, err)
	assert.ErrorIs(t, err, s3errors.ErrPartLimitExceeded)
	assert.Equal(t, s3errors.CodePartLimit, s3errors.CodeOf(err))
	assert.Len(t, st.calls, uploads)
	assert.Equal(t, StateOpen, s.State())

	require.NoError(t, s.Abort(ctx))
}

func TestSession_AgainstFakeS3(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeS3()
	s, err := Start(ctx, store.New(fake), "bucket", "key", store.Attributes{ContentType: "text/plain"})
	require.NoError(t, err)

	require.NoError(t, s.UploadPart(ctx, []byte("hello ")))
	require.NoError(t, s.UploadPart(ctx, []byte("world")))
	require.NoError(t, s.Finish(ctx))

	data, ok := fake.Object("bucket", "key")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, []string{
		testutil.OpCreateMultipartUpload,
		testutil.OpUploadPart,
		testutil.OpUploadPart,
		testutil.OpCompleteMultipartUpload,
	}, fake.Ops())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "committed", StateCommitted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "State(7)", State(7).String())
}
