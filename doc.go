// Package s3stream streams bytes to and from Amazon S3 objects.
//
// A Writer is an io.Writer backed by a multipart upload. Bytes are buffered
// until the configured minimum part size is reached, then uploaded as the
// next part; Close uploads the tail and completes the upload. Closing a
// writer that received no bytes produces a zero-length object.
//
// A Reader is an io.Reader that turns every Read into one ranged GET for
// exactly the requested window. The end of the object is found either from a
// declared size or from the "range not satisfiable" answer of the first
// request past the end.
//
// Neither streams nor their sessions are safe for concurrent use. The Client
// that hands them out is.
//
// Example usage:
//
//	client, err := s3stream.New(s3stream.WithRegion("eu-central-1"))
//	if err != nil {
//	    return err
//	}
//
//	w, err := client.NewWriter(ctx, "my-bucket", "logs/today.ndjson",
//	    s3stream.WithMinPartSize(8*bytesize.MiB))
//	if err != nil {
//	    return err
//	}
//	if _, err := io.Copy(w, src); err != nil {
//	    _ = w.Abort()
//	    return err
//	}
//	return w.Close()
package s3stream
