// Package buffer holds the bytes a writer has accepted but not yet uploaded.
package buffer

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/pool"
)

// Buffer is an append-only byte accumulator. Its storage is drawn from the
// part pool at the capacity hint and grows past it rather than dropping bytes.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	data []byte
	hint int
}

// New returns an empty buffer sized for capacityHint bytes.
func New(capacityHint int) *Buffer {
	return &Buffer{
		data: pool.GetPartBuffer(capacityHint),
		hint: capacityHint,
	}
}

// Append copies src[off:off+n] to the end of the buffer. An out-of-range
// off or n fails with ErrOutOfBounds and leaves the buffer unchanged.
func (b *Buffer) Append(src []byte, off, n int) error {
	if off < 0 || n < 0 || off > len(src) || n > len(src)-off {
		return errors.NewError("append", errors.ErrOutOfBounds).
			WithMessage(fmt.Sprintf("offset %d length %d for %d bytes", off, n, len(src)))
	}
	b.data = append(b.data, src[off:off+n]...)
	return nil
}

// AppendByte appends a single byte.
func (b *Buffer) AppendByte(c byte) error {
	return b.Append([]byte{c}, 0, 1)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the current storage capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Bytes returns the buffered bytes without copying. The view is valid until
// the next Append, Reset or Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Reset empties the buffer and keeps its storage.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Release returns the storage to the pool. Storage that grew past the hint
// is left to the garbage collector. The buffer must not be used afterwards.
func (b *Buffer) Release() {
	if cap(b.data) == b.hint {
		pool.PutPartBuffer(b.data)
	}
	b.data = nil
}
