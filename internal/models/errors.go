package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies pipeline failures for HTTP mapping and logging
type ErrorKind int

const (
	// ErrorKindUnknown - unclassified error, reported as 500
	ErrorKindUnknown ErrorKind = iota

	// ErrorKindValidation - missing, non-string or oversized trigger
	ErrorKindValidation

	// ErrorKindAuth - bypass secret mismatch
	ErrorKindAuth

	// ErrorKindNotFound - no content stored for the normalized key
	ErrorKindNotFound

	// ErrorKindUpstream - content or completion service failed
	ErrorKindUpstream

	// ErrorKindUpstreamTimeout - completion service did not answer in time
	ErrorKindUpstreamTimeout

	// ErrorKindPersistence - curated memory write was rejected
	ErrorKindPersistence
)

// String returns a human-readable kind name
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindValidation:
		return "validation"
	case ErrorKindAuth:
		return "auth"
	case ErrorKindNotFound:
		return "not_found"
	case ErrorKindUpstream:
		return "upstream"
	case ErrorKindUpstreamTimeout:
		return "upstream_timeout"
	case ErrorKindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// PipelineError wraps errors with a kind so handlers can map them to a status.
// Message is safe to expose to clients; Cause is not.
type PipelineError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int // upstream HTTP status if applicable
	Cause      error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("[%d] %s", e.StatusCode, msg)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the response status for this error
func (e *PipelineError) HTTPStatus() int {
	switch e.Kind {
	case ErrorKindValidation:
		return http.StatusBadRequest
	case ErrorKindAuth:
		return http.StatusUnauthorized
	case ErrorKindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports bad client input
func NewValidationError(message string) *PipelineError {
	return &PipelineError{Kind: ErrorKindValidation, Message: message}
}

// NewAuthError reports a rejected bypass secret
func NewAuthError(message string) *PipelineError {
	return &PipelineError{Kind: ErrorKindAuth, Message: message}
}

// NewNotFoundError reports a key with no stored content
func NewNotFoundError(key string) *PipelineError {
	return &PipelineError{
		Kind:    ErrorKindNotFound,
		Message: fmt.Sprintf("No se encontraron memorias con la clave '%s'", key),
	}
}

// NewUpstreamError reports a failed call to an external service
func NewUpstreamError(message string, statusCode int, cause error) *PipelineError {
	return &PipelineError{Kind: ErrorKindUpstream, Message: message, StatusCode: statusCode, Cause: cause}
}

// NewUpstreamTimeout reports a call cancelled by its deadline
func NewUpstreamTimeout(message string, cause error) *PipelineError {
	return &PipelineError{Kind: ErrorKindUpstreamTimeout, Message: message, Cause: cause}
}

// NewPersistenceError reports a rejected curated memory write
func NewPersistenceError(message string, cause error) *PipelineError {
	return &PipelineError{Kind: ErrorKindPersistence, Message: message, Cause: cause}
}

// KindOf extracts the kind of err, or ErrorKindUnknown
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrorKindUnknown
}

// IsKind reports whether err is a PipelineError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
