package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error is the unified SDK error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is the human-readable description returned by Error().
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried as-is.
	Retryable bool `json:"retryable"`
	// Details contains additional context (status, url, header, kind...).
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the message. The code is available through Code.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with automatic retryable detection.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Transport ---

// Transport wraps a failure reported by the transport adapter.
func Transport(cause error) *Error {
	return New(ErrCodeTransport, fmt.Sprintf("http error: %v", cause)).WithCause(cause)
}

// --- Protocol ---

// UnexpectedStatus reports a status code other than 200 or 201.
func UnexpectedStatus(status int, url string, body []byte) *Error {
	return New(ErrCodeProtocol, fmt.Sprintf("unexpected status: %d url: %s body: %s", status, url, body)).
		WithDetail("status", status).
		WithDetail("url", url)
}

// MissingHeader reports that the designated location header is absent.
func MissingHeader(header, url string) *Error {
	return New(ErrCodeProtocol, fmt.Sprintf("missing %s for %s", header, url)).
		WithDetail("header", header).
		WithDetail("url", url)
}

// MissingETag reports a response without an etag header.
func MissingETag() *Error {
	return New(ErrCodeProtocol, "server did not provide etag").WithDetail("header", "etag")
}

// MissingContentType reports a response without a content-type header.
func MissingContentType() *Error {
	return New(ErrCodeProtocol, "server did not declare content type").WithDetail("header", "content-type")
}

// NonJSONContentType reports a content type other than application/json.
func NonJSONContentType(value string) *Error {
	return New(ErrCodeProtocol, "non-json content-type: "+value).WithDetail("content_type", value)
}

// --- Parse ---

// Parse reports a body that is not a JSON object.
func Parse(cause error) *Error {
	return New(ErrCodeParse, fmt.Sprintf("invalid json body: %v", cause)).WithCause(cause)
}

// --- Classification ---

// NoKind reports a payload without a discriminator and no kinded target to apply it to.
func NoKind() *Error {
	return New(ErrCodeClassification, "no kind in payload")
}

// InvalidKind reports a discriminator that is not a string.
func InvalidKind(value any) *Error {
	return New(ErrCodeClassification, fmt.Sprintf("invalid kind in payload: %v", value)).WithDetail("kind", value)
}

// KindChange reports an attempt to change the kind of a live resource.
func KindChange(from, to string) *Error {
	return New(ErrCodeClassification, fmt.Sprintf("cannot change kind from %s to %s", from, to)).
		WithDetail("from", from).
		WithDetail("to", to)
}

// UnknownKind reports a discriminator with no registered factory.
func UnknownKind(kind string) *Error {
	return New(ErrCodeClassification, "unknown kind: "+kind).WithDetail("kind", kind)
}

// NoItemLocation reports a collection item whose location cannot be resolved.
func NoItemLocation(index int) *Error {
	return New(ErrCodeClassification, fmt.Sprintf("collection item %d has no location", index)).WithDetail("index", index)
}

// Duplicate reports a second resource resolving to an already indexed location.
func Duplicate(location string) *Error {
	return New(ErrCodeDuplicate, "duplicate id: "+location).WithDetail("location", location)
}

// --- Local ---

// Precondition reports local state missing before an operation.
func Precondition(message string) *Error {
	return New(ErrCodePrecondition, message)
}

// Misuse reports a programmer error detected at the call site.
func Misuse(message string) *Error {
	return New(ErrCodeMisuse, message)
}

// --- Inspection ---

// As converts an error to an *Error if possible.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// IsTransport checks if an error is a transport error.
func IsTransport(err error) bool { return HasCode(err, ErrCodeTransport) }

// IsProtocol checks if an error is a protocol violation.
func IsProtocol(err error) bool { return HasCode(err, ErrCodeProtocol) }

// IsParse checks if an error is a parse error.
func IsParse(err error) bool { return HasCode(err, ErrCodeParse) }

// IsClassification checks if an error is a classification error.
func IsClassification(err error) bool { return HasCode(err, ErrCodeClassification) }

// IsDuplicate checks if an error is a duplicate-id error.
func IsDuplicate(err error) bool { return HasCode(err, ErrCodeDuplicate) }

// IsPrecondition checks if an error is a local precondition error.
func IsPrecondition(err error) bool { return HasCode(err, ErrCodePrecondition) }

// IsMisuse checks if an error is a misuse error.
func IsMisuse(err error) bool { return HasCode(err, ErrCodeMisuse) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	e, ok := As(err)
	return ok && e.Retryable
}

// StatusCode returns the HTTP status carried by an unexpected-status error, or 0.
func StatusCode(err error) int {
	e, ok := As(err)
	if !ok || e.Details == nil {
		return 0
	}
	status, _ := e.Details["status"].(int)
	return status
}

// IsPreconditionFailed reports whether the server rejected a stale concurrency token.
func IsPreconditionFailed(err error) bool {
	return StatusCode(err) == http.StatusPreconditionFailed
}

// IsConflict reports whether the server answered 409 Conflict.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}
