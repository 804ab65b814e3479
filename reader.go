package s3stream

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/download"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/store"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// Reader streams one S3 object sequentially. Every Read issues one ranged
// GET for exactly the window it was asked for.
//
// There is no ReadByte: one GET per byte is never wanted. Decoders that need
// an io.ByteReader add their own bufio.Reader over it.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	ctx    context.Context
	object s3types.ObjectIdentity
	store  store.Store
	cursor *download.Cursor
	filler s3types.Filler
	mode   s3types.SizeMode
	logger *slog.Logger

	// err is the read failure that made the reader unusable
	err    error
	closed bool
}

var (
	_ io.ReadCloser = (*Reader)(nil)
	_ io.WriterTo   = (*Reader)(nil)
)

// NewReader validates cfg and returns a reader positioned at offset 0.
// No request is sent until the first Read.
//
// ctx is used for every remote call the reader makes.
func NewReader(ctx context.Context, cfg s3types.ReaderConfig) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	filler := cfg.Filler
	if filler == nil {
		filler = download.RetryingReader{}
	}

	cursor := download.NewCursor()
	if cfg.SizeKnown {
		cursor.SetSize(cfg.Size)
	}

	return &Reader{
		ctx:    ctx,
		object: cfg.Object,
		store:  newStore(cfg.Object.Client, cfg.Instrumentation),
		cursor: cursor,
		filler: filler,
		mode:   cfg.SizeMode,
		logger: logger,
	}, nil
}

// Object returns the object being read.
func (r *Reader) Object() s3types.ObjectIdentity {
	return r.object
}

// Offset returns the number of bytes delivered so far.
func (r *Reader) Offset() int64 {
	return r.cursor.Offset()
}

// Size returns the object size when it was declared or fetched.
func (r *Reader) Size() (int64, bool) {
	return r.cursor.Size()
}

// Read fills p from the current offset with one ranged GET.
//
// It returns io.EOF without a request once the end is known. A request that
// starts past the end, or a body with no bytes, ends the stream. A failure
// while draining the body is returned wrapped with ErrReadFailure and is
// returned again by every later Read.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.NewObjectError("read", r.object.Bucket, r.object.Key, errors.ErrStreamClosed)
	}
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if err := r.resolveSize(); err != nil {
		return 0, err
	}
	if r.cursor.Done() {
		return 0, io.EOF
	}

	rng := r.cursor.Next(len(p))
	body, err := r.store.GetObjectRange(r.ctx, r.object.Bucket, r.object.Key, rng)
	if err != nil {
		if errors.IsRangeNotSatisfiable(err) {
			r.cursor.MarkEnd()
			return 0, io.EOF
		}
		return 0, err
	}

	n, err := r.filler.Fill(body, p)
	if closeErr := body.Close(); closeErr != nil {
		r.logger.Debug("failed to close range body", "range", rng.String(), "error", closeErr)
	}
	r.cursor.Advance(n)

	switch {
	case stdErrors.Is(err, io.EOF):
		r.cursor.MarkEnd()
		return 0, io.EOF
	case err != nil:
		if errors.IsReadFailure(err) {
			r.err = errors.NewObjectError("read", r.object.Bucket, r.object.Key, err)
			return n, r.err
		}
		return n, err
	}

	r.logger.Debug("read range",
		"bucket", r.object.Bucket, "key", r.object.Key,
		"range", rng.String(), "size", n, "offset", r.cursor.Offset())
	return n, nil
}

// resolveSize fetches the object size once when declared mode was chosen
// without a size.
func (r *Reader) resolveSize() error {
	if r.mode != s3types.SizeModeDeclared {
		return nil
	}
	if _, known := r.cursor.Size(); known {
		return nil
	}

	size, err := r.store.HeadObjectSize(r.ctx, r.object.Bucket, r.object.Key)
	if err != nil {
		return err
	}
	r.cursor.SetSize(size)
	return nil
}

// WriteTo copies the rest of the object to dst through a pooled scratch
// buffer. It lets io.Copy avoid allocating its own buffer.
func (r *Reader) WriteTo(dst io.Writer) (int64, error) {
	scratch := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(scratch)

	var total int64
	for {
		n, readErr := r.Read(scratch)
		if n > 0 {
			written, err := dst.Write(scratch[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
			if written != n {
				return total, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}

// Close marks the reader closed. No request is sent; every later Read
// returns ErrStreamClosed.
func (r *Reader) Close() error {
	r.closed = true
	return nil
}
