// Package validation checks stream targets and object attributes before any
// request is sent to S3.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/errors"
)

const (
	minBucketLength = 3
	maxBucketLength = 63
	maxKeyLength    = 1024
	maxMetaKeyLen   = 128
	maxMetaValueLen = 2048
)

var (
	bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[a-z0-9]$`)
	ipPattern     = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	mimePattern   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)
)

var storageClasses = map[string]bool{
	"STANDARD":            true,
	"REDUCED_REDUNDANCY":  true,
	"STANDARD_IA":         true,
	"ONEZONE_IA":          true,
	"INTELLIGENT_TIERING": true,
	"GLACIER":             true,
	"DEEP_ARCHIVE":        true,
	"GLACIER_IR":          true,
	"EXPRESS_ONEZONE":     true,
}

func bucketError(bucket, msg string) error {
	return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(msg)
}

func keyError(key, msg string) error {
	return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(msg)
}

// ValidateBucketName validates that a bucket name is DNS-compliant according to AWS S3 rules.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	switch {
	case bucket == "":
		return bucketError(bucket, "bucket name cannot be empty")
	case len(bucket) < minBucketLength || len(bucket) > maxBucketLength:
		return bucketError(bucket, fmt.Sprintf("bucket name must be between %d and %d characters long",
			minBucketLength, maxBucketLength))
	case !bucketPattern.MatchString(bucket):
		return bucketError(bucket,
			"bucket name can only contain lowercase letters, numbers, dots, and hyphens, "+
				"and must start and end with a letter or number")
	case ipPattern.MatchString(bucket):
		return bucketError(bucket, "bucket name cannot be formatted as an IP address")
	case strings.Contains(bucket, ".."):
		return bucketError(bucket, "bucket name cannot contain two adjacent periods")
	}
	return nil
}

// ValidateObjectKey validates that an object key is valid according to AWS S3 rules.
// Path traversal sequences and control characters are rejected.
func ValidateObjectKey(key string) error {
	switch {
	case key == "":
		return keyError(key, "object key cannot be empty")
	case len(key) > maxKeyLength:
		return keyError(key, fmt.Sprintf("object key cannot exceed %d bytes", maxKeyLength))
	case hasPathTraversal(key):
		return keyError(key, "object key cannot contain path traversal sequences")
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return keyError(key, "object key cannot contain control characters")
	}
	return nil
}

// ValidateMetadata validates user metadata keys and values according to S3 rules.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if err := validateMetadataKey(key); err != nil {
			return err
		}
		if len(value) > maxMetaValueLen {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("metadata value for %q cannot exceed %d characters", key, maxMetaValueLen))
		}
		for _, r := range value {
			if !unicode.IsPrint(r) && r != '\t' {
				return errors.NewError("validateMetadata", errors.ErrInvalidInput).
					WithMessage(fmt.Sprintf("metadata value for %q can only contain printable characters", key))
			}
		}
	}
	return nil
}

// ValidateContentType checks that a non-empty content type looks like a MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" || mimePattern.MatchString(contentType) {
		return nil
	}
	return errors.NewError("validateContentType", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("content type %q must be a valid MIME type", contentType))
}

// ValidateStorageClass checks a non-empty storage class against the classes S3 accepts.
func ValidateStorageClass(class string) error {
	if class == "" || storageClasses[class] {
		return nil
	}
	return errors.NewError("validateStorageClass", errors.ErrInvalidInput).
		WithMessage(fmt.Sprintf("unknown storage class %q", class))
}

// validateMetadataKey validates a metadata key according to S3 rules
func validateMetadataKey(key string) error {
	if key == "" {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).
			WithMessage("metadata key cannot be empty")
	}

	if len(key) > maxMetaKeyLen {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("metadata key cannot exceed %d characters", maxMetaKeyLen))
	}

	// Keys cannot start with prefixes reserved by AWS
	lower := strings.ToLower(key)
	for _, prefix := range []string{"aws:", "x-amz-"} {
		if strings.HasPrefix(lower, prefix) {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage(fmt.Sprintf("metadata key cannot start with reserved prefix: %s", prefix))
		}
	}

	// HTTP header token characters only
	for _, char := range key {
		if char <= ' ' || char > '~' {
			return errors.NewError("validateMetadata", errors.ErrInvalidInput).
				WithMessage("metadata key can only contain printable ASCII characters without spaces")
		}
	}

	return nil
}

// hasPathTraversal checks for path traversal attempts in object keys
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.ToSlash(filepath.Clean(key))
	if strings.HasPrefix(cleaned, "/") {
		return true
	}

	// Windows-style absolute paths
	return len(cleaned) >= 3 && cleaned[1] == ':' && cleaned[2] == '/'
}
