// Package byterange models the byte window of a single ranged GET.
package byterange

import "fmt"

// Range is a window of Length bytes starting at Start.
// The zero value is an empty range at offset 0.
type Range struct {
	Start  int64
	Length int64
}

// New returns the range [start, start+length).
func New(start, length int64) Range {
	return Range{Start: start, Length: length}
}

// End returns the inclusive offset of the last byte in the range.
func (r Range) End() int64 {
	return r.Start + r.Length - 1
}

// String renders the HTTP Range header value. The end offset is inclusive,
// so a window of n bytes from s reads "bytes=s-(s+n-1)".
func (r Range) String() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End())
}
