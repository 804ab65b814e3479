package commands

import (
	"bufio"
	stdErrors "errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// sniffLen is how much of the input is inspected to guess a content type.
const sniffLen = 3072

const zstdContentType = "application/zstd"

type putOptions struct {
	file         string
	partSize     string
	contentType  string
	storageClass string
	metadata     map[string]string
	compress     bool
}

func newPutCmd(a *app) *cobra.Command {
	opts := &putOptions{}

	cmd := &cobra.Command{
		Use:   "put <bucket> <key>",
		Short: "Upload standard input or a file to an object",
		Long: `Upload standard input or a file to an object.

Data is buffered until a part is full and then sent as one part of a
multipart upload. An empty input produces an empty object.

When --content-type is not given it is detected from the first bytes of
the input.`,
		Example: `  # Upload a tarball from a pipe
  tar cz ./dir | s3stream put my-bucket backups/dir.tar.gz

  # Upload a file with 16 MiB parts, compressed
  s3stream put my-bucket logs/app.log --file app.log --part-size 16MiB --zstd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPut(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read from this file instead of standard input")
	cmd.Flags().StringVar(&opts.partSize, "part-size", "", "minimum part size (e.g. 8MiB), overrides the configured default")
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "content type of the object")
	cmd.Flags().StringVar(&opts.storageClass, "storage-class", "", "storage class of the object")
	cmd.Flags().StringToStringVar(&opts.metadata, "metadata", nil, "user metadata as key=value pairs")
	cmd.Flags().BoolVar(&opts.compress, "zstd", false, "compress the data with zstd before upload")

	return cmd
}

func (a *app) runPut(cmd *cobra.Command, bucket, key string, opts *putOptions) error {
	ctx := cmd.Context()

	src := cmd.InOrStdin()
	if opts.file != "" {
		path, err := filepath.Abs(opts.file)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", opts.file, err)
		}
		f, err := a.fs.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", opts.file, err)
		}
		defer func() { _ = f.Close() }()
		src = f
	}

	in := bufio.NewReaderSize(src, sniffLen)

	var writerOpts []s3types.WriterOption
	if opts.partSize != "" {
		size, err := bytesize.Parse(opts.partSize)
		if err != nil {
			return fmt.Errorf("invalid --part-size: %w", err)
		}
		writerOpts = append(writerOpts, s3stream.WithMinPartSize(size))
	}
	if opts.storageClass != "" {
		writerOpts = append(writerOpts, s3stream.WithStorageClass(s3types.StorageClass(opts.storageClass)))
	}
	if len(opts.metadata) > 0 {
		writerOpts = append(writerOpts, s3stream.WithMetadata(opts.metadata))
	}

	contentType, err := detectContentType(in, opts)
	if err != nil {
		return err
	}
	if contentType != "" {
		writerOpts = append(writerOpts, s3stream.WithContentType(contentType))
	}

	w, err := a.client.NewWriter(ctx, bucket, key, writerOpts...)
	if err != nil {
		return err
	}
	a.logger.Debug("upload started", "object", w.Object().String(), "upload_id", w.UploadID(), "content_type", contentType)

	if err := copyToWriter(w, in, opts.compress); err != nil {
		if abortErr := w.Abort(); abortErr != nil {
			a.logger.Error("failed to abort upload", "object", w.Object().String(), "error", abortErr)
		}
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	a.logger.Info("upload complete", "object", w.Object().String(), "bytes", w.Written())
	return nil
}

// detectContentType returns the explicit content type, the zstd type when
// compressing, or a guess from the buffered head of in.
func detectContentType(in *bufio.Reader, opts *putOptions) (string, error) {
	switch {
	case opts.contentType != "":
		return opts.contentType, nil
	case opts.compress:
		return zstdContentType, nil
	}

	head, err := in.Peek(sniffLen)
	if err != nil && !stdErrors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if len(head) == 0 {
		return "", nil
	}
	return mimetype.Detect(head).String(), nil
}

func copyToWriter(w *s3stream.Writer, in io.Reader, compress bool) error {
	if !compress {
		_, err := io.Copy(w, in)
		return err
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
