package download

import (
	"fmt"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
)

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// RetryingReader fills a destination from a single range body, re-reading
// after short reads until the destination is full or the body is exhausted.
type RetryingReader struct{}

// Fill copies from src into p until len(p) bytes are copied or src reports
// io.EOF. It returns io.EOF only when no byte was copied. Any other error
// from src is wrapped with ErrReadFailure and returned with the bytes
// copied so far; it is not retried.
func (RetryingReader) Fill(src io.Reader, p []byte) (int, error) {
	total := 0
	empty := 0

	for total < len(p) {
		n, err := src.Read(p[total:])
		total += n

		switch {
		case err == io.EOF:
			if total == 0 {
				return 0, io.EOF
			}
			return total, nil
		case err != nil:
			return total, errors.NewError("fill", fmt.Errorf("%w: %w", errors.ErrReadFailure, err))
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				return total, errors.NewError("fill", fmt.Errorf("%w: %w", errors.ErrReadFailure, io.ErrNoProgress))
			}
		default:
			empty = 0
		}
	}

	return total, nil
}
