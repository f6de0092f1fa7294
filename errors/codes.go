package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Server-observable errors
const (
	// ErrCodeTransport indicates a network or connection failure reported by the transport.
	ErrCodeTransport ErrorCode = "TRANSPORT"
	// ErrCodeProtocol indicates a response that violates the wire contract
	// (status, required headers, content type).
	ErrCodeProtocol ErrorCode = "PROTOCOL"
	// ErrCodeParse indicates a malformed JSON body despite a JSON content type.
	ErrCodeParse ErrorCode = "PARSE"
)

// Classification errors
const (
	// ErrCodeClassification indicates a kind problem: missing, unknown or changed.
	ErrCodeClassification ErrorCode = "CLASSIFICATION"
	// ErrCodeDuplicate indicates two resources resolved to the same location in a collection.
	ErrCodeDuplicate ErrorCode = "DUPLICATE_ID"
)

// Local errors
const (
	// ErrCodePrecondition indicates missing local state (location, etag) before a call.
	ErrCodePrecondition ErrorCode = "PRECONDITION"
	// ErrCodeMisuse indicates a programmer error detected at the call site.
	ErrCodeMisuse ErrorCode = "MISUSE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransport: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
