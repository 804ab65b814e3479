// Package bytesize provides an immutable byte-count value with binary unit conversions.
//
// Sizes render and parse in the human-readable form used by docker/go-units,
// so "5MiB", "5m" and "5242880" all denote the same Size.
package bytesize

import (
	"fmt"

	"github.com/docker/go-units"
)

// Size is a count of bytes.
type Size int64

// Binary units. One KB is 1024 bytes throughout this package.
const (
	B   Size = 1
	KiB Size = 1024 * B
	MiB Size = 1024 * KiB
	GiB Size = 1024 * MiB
)

// FromBytes returns a Size of n bytes.
func FromBytes(n int64) Size {
	return Size(n)
}

// FromKB returns a Size of n kibibytes.
func FromKB(n int64) Size {
	return Size(n) * KiB
}

// FromMB returns a Size of n mebibytes.
func FromMB(n int64) Size {
	return Size(n) * MiB
}

// Bytes returns the size in bytes.
func (s Size) Bytes() int64 {
	return int64(s)
}

// KB returns the size in whole kibibytes, truncated.
func (s Size) KB() int64 {
	return int64(s / KiB)
}

// MB returns the size in whole mebibytes, truncated.
func (s Size) MB() int64 {
	return int64(s / MiB)
}

// Compare returns -1, 0 or +1 depending on whether s is smaller than,
// equal to, or larger than other.
func (s Size) Compare(other Size) int {
	switch {
	case s < other:
		return -1
	case s > other:
		return 1
	default:
		return 0
	}
}

// String renders the size with the largest fitting binary unit, e.g. "5MiB".
func (s Size) String() string {
	return units.BytesSize(float64(s))
}

// Parse reads a human-readable size such as "8MiB", "512k" or "1048576".
// Units are binary regardless of the "i" infix.
func Parse(text string) (Size, error) {
	n, err := units.RAMInBytes(text)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", text, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse size %q: negative size", text)
	}
	return Size(n), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so sizes can be read from
// flags and configuration files.
func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
