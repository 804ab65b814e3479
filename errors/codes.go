package errors

// ErrorCode classifies a stream failure.
// Codes are string-based for debuggability and natural log output.
type ErrorCode string

const (
	// Configuration errors.

	// CodeInvalidConfig indicates a stream was configured with invalid values.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeInvalidInput indicates arguments to a stream operation were out of range.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Upload errors.

	// CodePartLimit indicates the multipart part-number ceiling was reached.
	CodePartLimit ErrorCode = "PART_LIMIT_EXCEEDED"

	// CodeSessionClosed indicates an operation on a committed or aborted upload session.
	CodeSessionClosed ErrorCode = "SESSION_CLOSED"

	// Download errors.

	// CodeReadFailed indicates an I/O fault while draining a response body.
	CodeReadFailed ErrorCode = "READ_FAILED"

	// CodeRangeNotSatisfiable indicates the requested range starts past the object end.
	CodeRangeNotSatisfiable ErrorCode = "RANGE_NOT_SATISFIABLE"

	// CodeUnsupported indicates the operation is not offered by the stream.
	CodeUnsupported ErrorCode = "UNSUPPORTED"

	// Remote errors.

	// CodeNotFound indicates the object or bucket does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeForbidden indicates the credentials lack permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeClosed indicates the stream was already closed.
	CodeClosed ErrorCode = "CLOSED"

	// CodeUnknown indicates an unclassified transport failure.
	CodeUnknown ErrorCode = "UNKNOWN"
)
