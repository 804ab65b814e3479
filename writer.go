package s3stream

import (
	"context"
	"io"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/buffer"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/upload"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// Writer streams bytes into one S3 object through a multipart upload.
//
// Bytes are buffered until MinPartSize is reached and then uploaded as the
// next part. Close uploads whatever is left, which may be smaller than the
// minimum, and completes the upload. After any failed remote call the writer
// keeps returning that error; call Abort or Close to clean up.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	ctx     context.Context
	object  s3types.ObjectIdentity
	minPart bytesize.Size
	buf     *buffer.Buffer
	session *upload.Session
	logger  *slog.Logger

	written int64
	err     error
	closed  bool
}

var (
	_ io.WriteCloser = (*Writer)(nil)
	_ io.ByteWriter  = (*Writer)(nil)
	_ io.ReaderFrom  = (*Writer)(nil)
)

// NewWriter validates cfg and starts the multipart upload. Every
// configuration problem is reported in a single ErrInvalidConfig error
// before any request is sent.
//
// ctx is used for every remote call the writer makes.
func NewWriter(ctx context.Context, cfg s3types.WriterConfig) (*Writer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	attrs := store.Attributes{
		ContentType:  cfg.ContentType,
		StorageClass: string(cfg.StorageClass),
		Metadata:     cfg.Metadata,
	}
	session, err := upload.Start(ctx,
		newStore(cfg.Object.Client, cfg.Instrumentation),
		cfg.Object.Bucket, cfg.Object.Key, attrs,
		upload.WithLogger(logger),
		upload.WithMetrics(cfg.Metrics),
	)
	if err != nil {
		return nil, err
	}

	return &Writer{
		ctx:     ctx,
		object:  cfg.Object,
		minPart: cfg.MinPartSize,
		buf:     buffer.New(int(cfg.MinPartSize.Bytes())),
		session: session,
		logger:  logger,
	}, nil
}

// Object returns the object being written.
func (w *Writer) Object() s3types.ObjectIdentity {
	return w.object
}

// UploadID returns the multipart upload ID.
func (w *Writer) UploadID() string {
	return w.session.UploadID()
}

// MinPartSize returns the buffered size that triggers a part upload.
func (w *Writer) MinPartSize() bytesize.Size {
	return w.minPart
}

// Buffered returns the number of bytes accepted but not yet uploaded.
func (w *Writer) Buffered() int {
	return w.buf.Len()
}

// Written returns the number of bytes accepted so far.
func (w *Writer) Written() int64 {
	return w.written
}

func (w *Writer) check(op string) error {
	if w.closed {
		return errors.NewObjectError(op, w.object.Bucket, w.object.Key, errors.ErrStreamClosed)
	}
	return w.err
}

// Write buffers all of p and uploads a part once the buffer holds at least
// MinPartSize bytes. When that upload fails the bytes of p stay accepted and
// the error is returned with n == len(p).
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.check("write"); err != nil {
		return 0, err
	}
	if err := w.buf.Append(p, 0, len(p)); err != nil {
		return 0, err
	}
	w.written += int64(len(p))

	if err := w.flushFull(); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// WriteByte buffers a single byte.
func (w *Writer) WriteByte(c byte) error {
	if err := w.check("writeByte"); err != nil {
		return err
	}
	if err := w.buf.AppendByte(c); err != nil {
		return err
	}
	w.written++

	return w.flushFull()
}

// ReadFrom copies r into the writer until io.EOF through a pooled scratch
// buffer. It lets io.Copy avoid allocating its own buffer.
func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	if err := w.check("readFrom"); err != nil {
		return 0, err
	}

	scratch := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(scratch)

	var total int64
	for {
		n, readErr := r.Read(scratch)
		if n > 0 {
			if _, err := w.Write(scratch[:n]); err != nil {
				return total + int64(n), err
			}
			total += int64(n)
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

// Flush uploads the buffered bytes as a part, regardless of size.
// It does nothing when the buffer is empty.
//
// Only the last part of an object may be smaller than 5 MiB, so flushing a
// short buffer before more writes makes the completion fail.
func (w *Writer) Flush() error {
	if err := w.check("flush"); err != nil {
		return err
	}
	return w.flush()
}

func (w *Writer) flushFull() error {
	if int64(w.buf.Len()) < w.minPart.Bytes() {
		return nil
	}
	return w.flush()
}

func (w *Writer) flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	if err := w.session.UploadPart(w.ctx, w.buf.Bytes()); err != nil {
		w.err = err
		return err
	}
	w.buf.Reset()
	return nil
}

// Close uploads the remaining bytes and completes the upload. If that fails,
// the upload is aborted and the first error is returned. A writer that never
// received a byte produces a zero-length object.
//
// Calling Close again returns ErrStreamClosed.
func (w *Writer) Close() error {
	if w.closed {
		return errors.NewObjectError("close", w.object.Bucket, w.object.Key, errors.ErrStreamClosed)
	}
	w.closed = true
	defer w.buf.Release()

	err := w.err
	if err == nil {
		err = w.flush()
	}
	if err == nil {
		err = w.session.Finish(w.ctx)
	}
	if err != nil {
		w.err = err
		w.abortSession()
		return err
	}

	w.logger.Debug("writer closed", "bucket", w.object.Bucket, "key", w.object.Key, "size", w.written)
	return nil
}

// Abort discards the upload and every uploaded part. It is the cleanup path
// after a failed Write, such as one that ran out of part numbers.
func (w *Writer) Abort() error {
	if w.closed {
		return errors.NewObjectError("abort", w.object.Bucket, w.object.Key, errors.ErrStreamClosed)
	}
	w.closed = true
	defer w.buf.Release()

	if w.session.State() != upload.StateOpen {
		return nil
	}
	return w.session.Abort(w.ctx)
}

func (w *Writer) abortSession() {
	if w.session.State() != upload.StateOpen {
		return
	}
	if err := w.session.Abort(w.ctx); err != nil {
		w.logger.Error("failed to abort upload",
			"bucket", w.object.Bucket, "key", w.object.Key,
			"upload_id", w.session.UploadID(), "error", err)
	}
}
