// Package download holds the read-side state of a stream: where the next
// ranged read starts, whether the object size is known, and whether the end
// of the object has been reached.
package download

import (
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/byterange"
)

// Cursor tracks sequential ranged reads over one object.
// It is not safe for concurrent use.
type Cursor struct {
	offset    int64
	size      int64
	sizeKnown bool
	ended     bool
}

// NewCursor returns a cursor at offset 0 with an unknown size.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Offset returns the number of bytes delivered so far.
func (c *Cursor) Offset() int64 {
	return c.offset
}

// Size returns the declared object size, if known.
func (c *Cursor) Size() (int64, bool) {
	return c.size, c.sizeKnown
}

// SetSize records the object size.
func (c *Cursor) SetSize(size int64) {
	c.size = size
	c.sizeKnown = true
}

// Done reports whether no further range request should be issued: the end
// was observed, or the offset has reached a known size.
func (c *Cursor) Done() bool {
	return c.ended || (c.sizeKnown && c.offset >= c.size)
}

// Next returns the range for a read of n bytes at the current offset.
func (c *Cursor) Next(n int) byterange.Range {
	return byterange.New(c.offset, int64(n))
}

// Advance moves the offset forward by the n bytes actually delivered.
func (c *Cursor) Advance(n int) {
	if n > 0 {
		c.offset += int64(n)
	}
}

// MarkEnd records that the object end was reached. It cannot be undone.
func (c *Cursor) MarkEnd() {
	c.ended = true
}
