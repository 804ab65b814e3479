package s3types

import (
	stdErrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/validation"
)

// validate caches struct metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ApplyDefaults fills zero fields with their defaults.
func (c *WriterConfig) ApplyDefaults() {
	if c.MinPartSize == 0 {
		c.MinPartSize = MinPartSize
	}
}

// Validate checks the writer configuration and reports every problem at once.
// The returned error wraps ErrInvalidConfig.
func (c *WriterConfig) Validate() error {
	problems := structProblems(c)
	problems = append(problems, objectProblems(c.Object)...)

	if err := validation.ValidateContentType(c.ContentType); err != nil {
		problems = append(problems, err)
	}
	if err := validation.ValidateStorageClass(string(c.StorageClass)); err != nil {
		problems = append(problems, err)
	}
	if err := validation.ValidateMetadata(c.Metadata); err != nil {
		problems = append(problems, err)
	}

	return configError("validateWriterConfig", c.Object, problems)
}

// Validate checks the reader configuration and reports every problem at once.
// The returned error wraps ErrInvalidConfig.
func (c *ReaderConfig) Validate() error {
	problems := structProblems(c)
	problems = append(problems, objectProblems(c.Object)...)

	if c.SizeKnown && c.SizeMode == SizeModeReactive {
		problems = append(problems, stdErrors.New("a declared object size requires declared size mode"))
	}

	return configError("validateReaderConfig", c.Object, problems)
}

func structProblems(cfg any) []error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) {
		return []error{err}
	}

	problems := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Errorf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		problems = append(problems, fmt.Errorf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return problems
}

func objectProblems(o ObjectIdentity) []error {
	var problems []error
	if o.Client == nil {
		problems = append(problems, stdErrors.New("object client is required"))
	}
	if o.Bucket != "" {
		if err := validation.ValidateBucketName(o.Bucket); err != nil {
			problems = append(problems, err)
		}
	}
	if o.Key != "" {
		if err := validation.ValidateObjectKey(o.Key); err != nil {
			problems = append(problems, err)
		}
	}
	return problems
}

func configError(op string, o ObjectIdentity, problems []error) error {
	if len(problems) == 0 {
		return nil
	}
	return errors.NewObjectError(op, o.Bucket, o.Key,
		fmt.Errorf("%w: %w", errors.ErrInvalidConfig, stdErrors.Join(problems...)))
}
