// Package errors provides error types and handling for S3 stream operations.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// Error represents a stream operation error with context about the operation that failed.
// It wraps the underlying AWS SDK error with additional context for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "uploadPart", "getObjectRange")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key (if applicable)
	Key string

	// Code classifies the failure. Empty means derive it from Err.
	Code ErrorCode

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3stream.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3stream.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3stream.%s object %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3stream.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the explicit code, or the code of the wrapped sentinel.
func (e *Error) ErrorCode() ErrorCode {
	if e.Code != "" {
		return e.Code
	}
	return CodeOf(e.Err)
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithCode overrides the derived error code.
func (e *Error) WithCode(code ErrorCode) *Error {
	e.Code = code
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// Sentinel errors for stream failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates the stream configuration was rejected before any remote call
	ErrInvalidConfig = errors.New("s3stream: invalid configuration")

	// ErrPartLimitExceeded indicates the upload needed more than MaxPartNumber parts
	ErrPartLimitExceeded = errors.New("s3stream: part number limit exceeded")

	// ErrReadFailure indicates the response body failed while being drained
	ErrReadFailure = errors.New("s3stream: read failure")

	// ErrUnsupported indicates the stream does not offer the requested operation
	ErrUnsupported = errors.New("s3stream: operation not supported")

	// ErrRangeNotSatisfiable indicates a ranged read started at or beyond the object end
	ErrRangeNotSatisfiable = errors.New("s3stream: range not satisfiable")

	// ErrSessionClosed indicates the multipart session was already committed or aborted
	ErrSessionClosed = errors.New("s3stream: upload session closed")

	// ErrStreamClosed indicates the stream was already closed
	ErrStreamClosed = errors.New("s3stream: stream closed")

	// ErrOutOfBounds indicates an offset or length outside the source slice
	ErrOutOfBounds = errors.New("s3stream: offset or length out of bounds")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3stream: object not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3stream: access denied")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3stream: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3stream: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3stream: invalid object key")
)

var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrInvalidConfig, CodeInvalidConfig},
	{ErrInvalidBucketName, CodeInvalidConfig},
	{ErrInvalidObjectKey, CodeInvalidConfig},
	{ErrPartLimitExceeded, CodePartLimit},
	{ErrReadFailure, CodeReadFailed},
	{ErrUnsupported, CodeUnsupported},
	{ErrRangeNotSatisfiable, CodeRangeNotSatisfiable},
	{ErrSessionClosed, CodeSessionClosed},
	{ErrStreamClosed, CodeClosed},
	{ErrOutOfBounds, CodeInvalidInput},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrObjectNotFound, CodeNotFound},
	{ErrAccessDenied, CodeForbidden},
}

// CodeOf classifies err. Remote errors are inspected through the AWS error types.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}

	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}

	switch {
	case IsObjectNotFound(err):
		return CodeNotFound
	case IsAccessDenied(err):
		return CodeForbidden
	case IsRangeNotSatisfiable(err):
		return CodeRangeNotSatisfiable
	}

	return CodeUnknown
}

// IsObjectNotFound checks if an error indicates that an object was not found.
// It recognizes the sentinel as well as NoSuchKey and NotFound responses from S3.
func IsObjectNotFound(err error) bool {
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	if errors.Is(err, ErrAccessDenied) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden":
			return true
		}
	}

	return false
}

// IsRangeNotSatisfiable reports whether err is the store's signal that a
// ranged read began at or beyond the end of the object.
func IsRangeNotSatisfiable(err error) bool {
	if errors.Is(err, ErrRangeNotSatisfiable) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidRange" {
		return true
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusRequestedRangeNotSatisfiable {
		return true
	}

	return false
}

// IsInvalidConfig checks if an error was raised by configuration validation.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsPartLimitExceeded checks if an upload ran out of part numbers.
func IsPartLimitExceeded(err error) bool {
	return errors.Is(err, ErrPartLimitExceeded)
}

// IsReadFailure checks if an error came from draining a response body.
func IsReadFailure(err error) bool {
	return errors.Is(err, ErrReadFailure)
}
